package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceHistory is an append-only log of product price changes. Exactly one
// row is written per accepted change; rows are never edited afterwards.
type PriceHistory struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	OldSalePrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"old_sale_price"`
	NewSalePrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"new_sale_price"`
	OldCostPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"old_cost_price"`
	NewCostPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"new_cost_price"`
	Reason       string          `gorm:"type:varchar(255)" json:"reason"`
	ChangedBy    string          `gorm:"type:varchar(255)" json:"changed_by"`
	ChangeDate   time.Time       `gorm:"not null" json:"change_date"`
}

func (p *PriceHistory) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
