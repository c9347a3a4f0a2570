package repository

import (
	"go-posledger-ws/internal/model"

	"gorm.io/gorm"
)

type AuditRepository interface {
	// Create appends inside the caller's transaction so audit and business
	// state commit (or roll back) together.
	Create(tx *gorm.DB, entry *model.AuditLog) error
	FindByEntity(entityName, entityID string) ([]model.AuditLog, error)
	FindAll(limit int) ([]model.AuditLog, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

func (r *auditRepo) Create(tx *gorm.DB, entry *model.AuditLog) error {
	return tx.Create(entry).Error
}

func (r *auditRepo) FindByEntity(entityName, entityID string) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	err := r.db.Where("entity_name = ? AND entity_id = ?", entityName, entityID).
		Order("timestamp ASC").
		Find(&entries).Error
	return entries, err
}

func (r *auditRepo) FindAll(limit int) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	if limit <= 0 {
		limit = 100
	}
	err := r.db.Order("timestamp DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
