package service

import (
	"encoding/json"
	"time"

	"go-posledger-ws/internal/model"
	"go-posledger-ws/internal/repository"

	"gorm.io/gorm"
)

// AuditService appends before/after snapshots for mutating operations. Record
// must be called with the transaction of the mutation it documents so audit
// and business state are never observed inconsistently.
type AuditService interface {
	Record(tx *gorm.DB, userID, action, entityName, entityID string, oldValues, newValues any) error
	History(entityName, entityID string) ([]model.AuditLog, error)
	Recent(limit int) ([]model.AuditLog, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	now       func() time.Time
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		now:       time.Now,
	}
}

func (s *auditService) Record(tx *gorm.DB, userID, action, entityName, entityID string, oldValues, newValues any) error {
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityName: entityName,
		EntityID:   entityID,
		Timestamp:  s.now(),
	}
	if oldValues != nil {
		raw, err := json.Marshal(oldValues)
		if err != nil {
			return err
		}
		entry.OldValues = raw
	}
	if newValues != nil {
		raw, err := json.Marshal(newValues)
		if err != nil {
			return err
		}
		entry.NewValues = raw
	}
	return s.auditRepo.Create(tx, entry)
}

func (s *auditService) History(entityName, entityID string) ([]model.AuditLog, error) {
	return s.auditRepo.FindByEntity(entityName, entityID)
}

func (s *auditService) Recent(limit int) ([]model.AuditLog, error) {
	return s.auditRepo.FindAll(limit)
}
