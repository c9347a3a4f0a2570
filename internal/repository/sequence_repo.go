package repository

import (
	"errors"

	"go-posledger-ws/internal/model"

	"gorm.io/gorm"
)

// SequenceRepository backs invoice-number issuance with a versioned counter
// row. TryIncrement is the single compare-and-increment primitive; the
// retry/backoff policy lives in the service layer.
type SequenceRepository interface {
	// TryIncrement reserves the next value for prefix. It returns the
	// reserved value and true on success, or false when a concurrent caller
	// won the conditional update and the attempt must be retried.
	TryIncrement(prefix string) (int64, bool, error)
}

type sequenceRepo struct {
	db *gorm.DB
}

func NewSequenceRepo(db *gorm.DB) SequenceRepository {
	return &sequenceRepo{db}
}

func (r *sequenceRepo) TryIncrement(prefix string) (int64, bool, error) {
	var seq model.InvoiceSequence
	err := r.db.Where("prefix = ?", prefix).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = model.InvoiceSequence{Prefix: prefix}
		if err := r.db.Create(&seq).Error; err != nil {
			// Lost the creation race; re-read and fall through to the
			// conditional update.
			if err2 := r.db.Where("prefix = ?", prefix).First(&seq).Error; err2 != nil {
				return 0, false, err
			}
		}
	} else if err != nil {
		return 0, false, err
	}

	next := seq.Value + 1
	res := r.db.Model(&model.InvoiceSequence{}).
		Where("id = ? AND version = ?", seq.ID, seq.Version).
		Updates(map[string]interface{}{
			"value":   next,
			"version": seq.Version + 1,
		})
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent caller moved the counter first.
		return 0, false, nil
	}
	return next, true, nil
}
