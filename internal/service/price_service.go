package service

import (
	"time"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/internal/model"
	"go-posledger-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PriceService keeps the append-only price log and the product's live prices
// in step: one history row per accepted change, written in the same
// transaction as the price update. History rows are never edited.
type PriceService interface {
	ChangePrice(productID uuid.UUID, newSalePrice, newCostPrice decimal.Decimal, reason, userID string) (*model.PriceHistory, error)
	GetPriceHistory(productID uuid.UUID) ([]model.PriceHistory, error)
}

type priceService struct {
	productRepo repository.ProductRepository
	audit       AuditService
	db          *gorm.DB
	logger      *logrus.Logger
	now         func() time.Time
}

func NewPriceService(pRepo repository.ProductRepository, audit AuditService, db *gorm.DB, logger *logrus.Logger) PriceService {
	return &priceService{
		productRepo: pRepo,
		audit:       audit,
		db:          db,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *priceService) ChangePrice(productID uuid.UUID, newSalePrice, newCostPrice decimal.Decimal, reason, userID string) (*model.PriceHistory, error) {
	if newSalePrice.IsNegative() || newCostPrice.IsNegative() {
		return nil, apperr.Validation("price", "must not be negative")
	}
	if userID == "" {
		return nil, apperr.Validation("user_id", "is required")
	}

	var entry *model.PriceHistory

	err := runInTx(s.db, func(tx *gorm.DB) error {
		product, err := s.productRepo.FindActiveForUpdate(tx, productID)
		if err != nil {
			return err
		}

		entry = &model.PriceHistory{
			ProductID:    product.ID,
			OldSalePrice: product.SalePrice,
			NewSalePrice: newSalePrice,
			OldCostPrice: product.CostPrice,
			NewCostPrice: newCostPrice,
			Reason:       reason,
			ChangedBy:    userID,
			ChangeDate:   s.now(),
		}
		if err := s.productRepo.CreatePriceHistory(tx, entry); err != nil {
			return err
		}

		old := *product
		product.SalePrice = newSalePrice
		product.CostPrice = newCostPrice
		product.UpdatedBy = userID
		if err := tx.Save(product).Error; err != nil {
			return err
		}

		return s.audit.Record(tx, userID, "product.price_change", "Product", product.ID.String(), old, product)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":     "price",
		"product_id": productID,
		"sale_price": newSalePrice,
		"cost_price": newCostPrice,
	}).Info("product price changed")

	return entry, nil
}

func (s *priceService) GetPriceHistory(productID uuid.UUID) ([]model.PriceHistory, error) {
	return s.productRepo.FindPriceHistory(productID)
}
