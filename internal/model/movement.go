package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementEntry      MovementType = "ENTRY"
	MovementExit       MovementType = "EXIT"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementReturn     MovementType = "RETURN"
)

// ValidDelta reports whether the signed delta is acceptable for the type:
// entries and returns add stock, exits remove it, adjustments go either way.
func (t MovementType) ValidDelta(delta int) bool {
	switch t {
	case MovementEntry, MovementReturn:
		return delta > 0
	case MovementExit:
		return delta < 0
	case MovementAdjustment:
		return delta != 0
	}
	return false
}

// StockMovement is one append-only ledger row. Rows are immutable once
// written; NewQuantity of one row equals PreviousQuantity of the next row
// for the same product, forming a verifiable chain.
type StockMovement struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id" validate:"uuid_required"`
	Product          *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty" validate:"-"`
	Quantity         int             `gorm:"not null" json:"quantity"` // signed delta
	PreviousQuantity int             `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int             `gorm:"not null" json:"new_quantity"`
	Type             MovementType    `gorm:"type:varchar(20);not null" json:"type" validate:"required,oneof=ENTRY EXIT ADJUSTMENT RETURN"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_cost"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(14,2)" json:"total_cost"`
	Date             time.Time       `gorm:"not null;index" json:"date"`
	UserID           string          `gorm:"type:varchar(255);not null" json:"user_id"`
	Reference        string          `gorm:"type:varchar(100)" json:"reference"`
	Notes            string          `json:"notes"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// ChainBreak describes the first inconsistency found in a movement chain.
type ChainBreak struct {
	Index    int       `json:"index"`
	Movement uuid.UUID `json:"movement_id"`
	Expected int       `json:"expected_previous"`
	Actual   int       `json:"actual_previous"`
}

// VerifyChain walks movements (oldest first) and checks that each row's
// arithmetic holds and that the quantities link up row to row. Returns nil
// when the chain is intact.
func VerifyChain(movements []StockMovement) *ChainBreak {
	prev := 0
	for i, m := range movements {
		if i == 0 {
			prev = m.PreviousQuantity
		}
		if m.PreviousQuantity != prev {
			return &ChainBreak{Index: i, Movement: m.ID, Expected: prev, Actual: m.PreviousQuantity}
		}
		if m.PreviousQuantity+m.Quantity != m.NewQuantity {
			return &ChainBreak{Index: i, Movement: m.ID, Expected: m.PreviousQuantity + m.Quantity, Actual: m.NewQuantity}
		}
		prev = m.NewQuantity
	}
	return nil
}

// SumDeltas recomputes the ledger quantity from scratch.
func SumDeltas(movements []StockMovement) int {
	total := 0
	for _, m := range movements {
		total += m.Quantity
	}
	return total
}
