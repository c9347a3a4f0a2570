package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	BaseModel
	InternalCode string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"internal_code" validate:"required"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Description  string          `json:"description"`
	Unit         string          `gorm:"type:varchar(20)" json:"unit"`
	SalePrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sale_price"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(5,2)" json:"tax_rate"`
	DiscountPct  decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_pct"`

	// Stock control flags
	ControlsStock  bool `gorm:"default:true" json:"controls_stock"`
	AllowBackorder bool `gorm:"default:false" json:"allow_backorder"`
	MinStock       int  `gorm:"default:0" json:"min_stock"`
	MaxStock       int  `gorm:"default:0" json:"max_stock"`
	ReorderPoint   int  `gorm:"default:0" json:"reorder_point"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	Stock        *Stock          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"stock,omitempty"`
	Movements    []StockMovement `gorm:"foreignKey:ProductID" json:"movements,omitempty"`
	PriceChanges []PriceHistory  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"price_changes,omitempty"`
}

// Stock is the cached projection of the movement ledger for one product.
// Quantity must always equal the sum of the signed movement deltas; it is
// never an independent source of truth.
type Stock struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProductID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"product_id"`
	Quantity         int       `gorm:"not null;default:0" json:"quantity"`
	ReservedQuantity int       `gorm:"not null;default:0" json:"reserved_quantity"`

	// IntegrityHold blocks further non-adjustment movements after a
	// reconciliation mismatch until a corrective adjustment is recorded.
	IntegrityHold bool `gorm:"default:false" json:"integrity_hold"`

	LastUpdate    time.Time `json:"last_update"`
	LastUpdatedBy string    `gorm:"type:varchar(255)" json:"last_updated_by"`
}

func (s *Stock) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

func (s *Stock) AvailableQuantity() int {
	return s.Quantity - s.ReservedQuantity
}
