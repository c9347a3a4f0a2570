package repository

import (
	"errors"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	FindAll() ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByInternalCode(code string) (*model.Product, error)

	// FindActiveForUpdate locks the product row for the duration of tx.
	// Soft-deleted and inactive products are not eligible.
	FindActiveForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error)

	FindStock(productID uuid.UUID) (*model.Stock, error)
	FindStockForUpdate(tx *gorm.DB, productID uuid.UUID) (*model.Stock, error)
	SaveStock(tx *gorm.DB, stock *model.Stock) error
	FindLowStock() ([]model.Stock, error)

	CreatePriceHistory(tx *gorm.DB, entry *model.PriceHistory) error
	FindPriceHistory(productID uuid.UUID) ([]model.PriceHistory, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return tx.Create(product).Error
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Preload("Stock").Order("internal_code ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.Preload("Stock").First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &product, err
}

func (r *productRepo) FindByInternalCode(code string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "internal_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &product, err
}

func (r *productRepo) FindActiveForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &product, err
}

func (r *productRepo) FindStock(productID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	err := r.db.First(&stock, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &stock, err
}

// FindStockForUpdate locks (and lazily creates) the projection row so
// concurrent movements on the same product serialize at the store.
func (r *productRepo) FindStockForUpdate(tx *gorm.DB, productID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&stock, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stock = model.Stock{ProductID: productID}
		if err := tx.Create(&stock).Error; err != nil {
			return nil, err
		}
		// Re-read under lock so the row is held like the fast path.
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&stock, "product_id = ?", productID).Error
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *productRepo) SaveStock(tx *gorm.DB, stock *model.Stock) error {
	return tx.Save(stock).Error
}

func (r *productRepo) FindLowStock() ([]model.Stock, error) {
	var stocks []model.Stock
	err := r.db.
		Joins("JOIN products ON products.id = stocks.product_id AND products.deleted_at IS NULL").
		Where("products.controls_stock = ? AND stocks.quantity <= products.reorder_point", true).
		Find(&stocks).Error
	return stocks, err
}

func (r *productRepo) CreatePriceHistory(tx *gorm.DB, entry *model.PriceHistory) error {
	return tx.Create(entry).Error
}

func (r *productRepo) FindPriceHistory(productID uuid.UUID) ([]model.PriceHistory, error) {
	var entries []model.PriceHistory
	err := r.db.Where("product_id = ?", productID).Order("change_date ASC").Find(&entries).Error
	return entries, err
}
