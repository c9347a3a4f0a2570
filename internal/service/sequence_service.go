package service

import (
	"time"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/internal/model"
	"go-posledger-ws/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	sequenceMaxAttempts = 3
	sequenceBackoffBase = 25 * time.Millisecond
)

// SequenceService issues unique invoice numbers from a versioned counter
// row. Two concurrent callers can never receive the same number; a caller
// whose enclosing operation later fails simply burns the number (gaps are
// acceptable, duplicates are not).
type SequenceService interface {
	NextInvoiceNumber(prefix string) (string, error)
}

type sequenceService struct {
	seqRepo repository.SequenceRepository
	logger  *logrus.Logger
	sleep   func(time.Duration)
}

func NewSequenceService(seqRepo repository.SequenceRepository, logger *logrus.Logger) SequenceService {
	return &sequenceService{
		seqRepo: seqRepo,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

func (s *sequenceService) NextInvoiceNumber(prefix string) (string, error) {
	if prefix == "" {
		return "", apperr.Validation("prefix", "must not be empty")
	}

	for attempt := 1; attempt <= sequenceMaxAttempts; attempt++ {
		value, ok, err := s.seqRepo.TryIncrement(prefix)
		if err != nil {
			return "", err
		}
		if ok {
			return model.FormatInvoiceNumber(prefix, value), nil
		}
		if attempt < sequenceMaxAttempts {
			s.sleep(sequenceBackoffBase * time.Duration(attempt))
		}
	}

	s.logger.WithFields(logrus.Fields{
		"module": "sequence",
		"prefix": prefix,
	}).Warn("invoice number reservation exhausted retries")
	return "", apperr.ErrConcurrencyConflict
}
