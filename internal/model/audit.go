package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog captures before/after state for every mutating operation. Rows
// are append-only: never updated, never deleted, and they survive soft
// deletion of the entity they reference.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID     string         `gorm:"type:varchar(255);not null" json:"user_id"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityName string         `gorm:"type:varchar(50);not null;index" json:"entity_name"`
	EntityID   string         `gorm:"type:varchar(64);not null;index" json:"entity_id"`
	OldValues  datatypes.JSON `gorm:"type:jsonb" json:"old_values"`
	NewValues  datatypes.JSON `gorm:"type:jsonb" json:"new_values"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
