package repository

import (
	"errors"
	"time"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementRepository interface {
	Create(tx *gorm.DB, movement *model.StockMovement) error
	FindByID(id uuid.UUID) (*model.StockMovement, error)
	FindAll(from, to *time.Time) ([]model.StockMovement, error)

	// FindByProduct returns the full chain for one product, oldest first.
	// The read is unscoped on the product side: history of soft-deleted
	// products remains queryable.
	FindByProduct(productID uuid.UUID) ([]model.StockMovement, error)

	// SumDeltas recomputes the ledger quantity inside tx. Used by
	// reconciliation against the locked projection row.
	SumDeltas(tx *gorm.DB, productID uuid.UUID) (int, error)

	DailyTotals(startDate, endDate time.Time) ([]DailyMovementTotals, error)
}

// DailyMovementTotals aggregates inbound/outbound units per day.
type DailyMovementTotals struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

func (r *movementRepo) Create(tx *gorm.DB, movement *model.StockMovement) error {
	return tx.Create(movement).Error
}

func (r *movementRepo) FindByID(id uuid.UUID) (*model.StockMovement, error) {
	var movement model.StockMovement
	err := r.db.Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&movement, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &movement, err
}

func (r *movementRepo) FindAll(from, to *time.Time) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	query := r.db.Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date < ?", *to)
	}
	err := query.Order("date DESC").Find(&movements).Error
	return movements, err
}

func (r *movementRepo) FindByProduct(productID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.Where("product_id = ?", productID).
		Order("date ASC, id ASC").
		Find(&movements).Error
	return movements, err
}

func (r *movementRepo) SumDeltas(tx *gorm.DB, productID uuid.UUID) (int, error) {
	var sum int
	err := tx.Model(&model.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *movementRepo) DailyTotals(startDate, endDate time.Time) ([]DailyMovementTotals, error) {
	var results []DailyMovementTotals

	rows, err := r.db.Model(&model.StockMovement{}).
		Select(`
			DATE(date) as date,
			COALESCE(SUM(CASE WHEN quantity > 0 THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN quantity < 0 THEN -quantity ELSE 0 END), 0) as outbound
		`).
		Where("date BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(date)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data DailyMovementTotals
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}
