package service

import (
	"fmt"
	"time"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/internal/model"
	"go-posledger-ws/internal/repository"
	"go-posledger-ws/internal/ws"
	"go-posledger-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RecordMovementInput carries one ledger append request. Delta is signed:
// entries and returns are positive, exits negative, adjustments either way.
type RecordMovementInput struct {
	ProductID uuid.UUID
	Delta     int
	Type      model.MovementType
	UnitCost  decimal.Decimal
	Reference string
	Notes     string
	UserID    string
}

// ReconcileResult reports a ledger/projection comparison for one product.
type ReconcileResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	LedgerSum  int       `json:"ledger_sum"`
	Projection int       `json:"projection"`
	InSync     bool      `json:"in_sync"`
}

type StockService interface {
	CreateProduct(req *model.Product, userID string) error
	UpdateProduct(id uuid.UUID, req *model.Product, userID string) (*model.Product, error)
	DeleteProduct(id uuid.UUID, userID string) error
	GetProducts() ([]model.Product, error)
	GetProduct(id uuid.UUID) (*model.Product, error)

	RecordMovement(in RecordMovementInput) (*model.StockMovement, error)
	Reconcile(productID uuid.UUID) (*ReconcileResult, error)
	GetAvailableQuantity(productID uuid.UUID) (int, error)
	GetMovement(id uuid.UUID) (*model.StockMovement, error)
	GetMovements(from, to *time.Time) ([]model.StockMovement, error)
	GetProductMovements(productID uuid.UUID) ([]model.StockMovement, error)
	VerifyMovementChain(productID uuid.UUID) (*model.ChainBreak, error)
	GetLowStock() ([]model.Stock, error)
	GetDailyTotals(startDate, endDate time.Time) ([]repository.DailyMovementTotals, error)
}

type stockService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	audit        AuditService
	db           *gorm.DB
	wsHub        *ws.Hub
	logger       *logrus.Logger
	now          func() time.Time
}

func NewStockService(
	pRepo repository.ProductRepository,
	mRepo repository.MovementRepository,
	audit AuditService,
	db *gorm.DB,
	hub *ws.Hub,
	logger *logrus.Logger,
) StockService {
	return &stockService{
		productRepo:  pRepo,
		movementRepo: mRepo,
		audit:        audit,
		db:           db,
		wsHub:        hub,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *stockService) CreateProduct(req *model.Product, userID string) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return apperr.Validation(first.FailedField, fmt.Sprintf("failed on tag '%s'", first.Tag))
	}

	existing, err := s.productRepo.FindByInternalCode(req.InternalCode)
	if err == nil && existing != nil {
		return apperr.Validation("internal_code", "already exists")
	}

	req.IsActive = true
	req.CreatedBy = userID
	req.UpdatedBy = userID
	req.Stock = &model.Stock{LastUpdate: s.now(), LastUpdatedBy: userID}

	err = runInTx(s.db, func(tx *gorm.DB) error {
		if err := s.productRepo.Create(tx, req); err != nil {
			// Concurrent create with the same code slips past the pre-check.
			if isUniqueViolation(err) {
				return apperr.Validation("internal_code", "already exists")
			}
			return err
		}
		return s.audit.Record(tx, userID, "product.create", "Product", req.ID.String(), nil, req)
	})
	if err != nil {
		return err
	}

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "stock_update",
		Action:  "product_created",
		Payload: req,
		UserID:  userID,
	})
	return nil
}

func (s *stockService) UpdateProduct(id uuid.UUID, req *model.Product, userID string) (*model.Product, error) {
	var updated *model.Product

	err := runInTx(s.db, func(tx *gorm.DB) error {
		existing, err := s.productRepo.FindActiveForUpdate(tx, id)
		if err != nil {
			return err
		}

		old := *existing
		existing.Name = req.Name
		existing.Description = req.Description
		existing.Unit = req.Unit
		existing.ControlsStock = req.ControlsStock
		existing.AllowBackorder = req.AllowBackorder
		existing.MinStock = req.MinStock
		existing.MaxStock = req.MaxStock
		existing.ReorderPoint = req.ReorderPoint
		existing.UpdatedBy = userID

		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		if err := s.audit.Record(tx, userID, "product.update", "Product", existing.ID.String(), old, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProduct soft-deletes: the product disappears from active listings
// while its movement ledger and price history remain queryable.
func (s *stockService) DeleteProduct(id uuid.UUID, userID string) error {
	return runInTx(s.db, func(tx *gorm.DB) error {
		product, err := s.productRepo.FindActiveForUpdate(tx, id)
		if err != nil {
			return err
		}
		product.DeletedBy = userID
		if err := tx.Save(product).Error; err != nil {
			return err
		}
		if err := tx.Delete(product).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, userID, "product.delete", "Product", id.String(), product, nil)
	})
}

func (s *stockService) GetProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *stockService) GetProduct(id uuid.UUID) (*model.Product, error) {
	return s.productRepo.FindByID(id)
}

// RecordMovement appends one ledger row and updates the projection as one
// atomic unit. On a detected conflict the transaction retries a bounded
// number of times before surfacing ErrConcurrencyConflict.
func (s *stockService) RecordMovement(in RecordMovementInput) (*model.StockMovement, error) {
	if in.Delta == 0 {
		return nil, apperr.Validation("delta", "must not be zero")
	}
	if !in.Type.ValidDelta(in.Delta) {
		return nil, apperr.Validation("type", fmt.Sprintf("delta %d is not valid for movement type %s", in.Delta, in.Type))
	}
	if in.UserID == "" {
		return nil, apperr.Validation("user_id", "is required")
	}

	var movement *model.StockMovement

	err := runInTx(s.db, func(tx *gorm.DB) error {
		product, err := s.productRepo.FindActiveForUpdate(tx, in.ProductID)
		if err != nil {
			return err
		}

		stock, err := s.productRepo.FindStockForUpdate(tx, product.ID)
		if err != nil {
			return err
		}

		if stock.IntegrityHold && in.Type != model.MovementAdjustment {
			return apperr.Validation("product_id", "product is on integrity hold; record a corrective adjustment first")
		}

		previous := stock.Quantity
		if in.Type == model.MovementAdjustment {
			// Adjustments anchor to the ledger sum, not the cached quantity,
			// so a corrective adjustment realigns a drifted projection.
			sum, err := s.movementRepo.SumDeltas(tx, product.ID)
			if err != nil {
				return err
			}
			previous = sum
		}
		newQuantity := previous + in.Delta
		if newQuantity < 0 && !product.AllowBackorder {
			return &apperr.InsufficientStockError{
				ProductID: product.ID,
				Available: previous,
				Requested: -in.Delta,
			}
		}

		movement = &model.StockMovement{
			ProductID:        product.ID,
			Quantity:         in.Delta,
			PreviousQuantity: previous,
			NewQuantity:      newQuantity,
			Type:             in.Type,
			UnitCost:         in.UnitCost,
			TotalCost:        in.UnitCost.Mul(decimal.NewFromInt(int64(abs(in.Delta)))).Round(2),
			Date:             s.now(),
			UserID:           in.UserID,
			Reference:        in.Reference,
			Notes:            in.Notes,
		}
		if err := s.movementRepo.Create(tx, movement); err != nil {
			return err
		}

		oldStock := *stock
		stock.Quantity = newQuantity
		stock.LastUpdate = s.now()
		stock.LastUpdatedBy = in.UserID
		// A corrective adjustment releases the integrity hold.
		if in.Type == model.MovementAdjustment {
			stock.IntegrityHold = false
		}
		if err := s.productRepo.SaveStock(tx, stock); err != nil {
			return err
		}

		return s.audit.Record(tx, in.UserID, "stock.movement", "StockMovement", movement.ID.String(), oldStock, stock)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":       "stock",
		"product_id":   in.ProductID,
		"delta":        in.Delta,
		"type":         in.Type,
		"new_quantity": movement.NewQuantity,
	}).Info("stock movement recorded")

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "stock_update",
		Action:  "movement_recorded",
		Payload: movement,
		UserID:  in.UserID,
	})
	return movement, nil
}

// Reconcile recomputes the quantity from the ledger and compares it to the
// projection. A mismatch places the product on integrity hold and surfaces a
// DataIntegrityError; it is never silently repaired. Running it twice with
// no intervening movements yields the same result with no side effects.
func (s *stockService) Reconcile(productID uuid.UUID) (*ReconcileResult, error) {
	var result *ReconcileResult

	err := runInTx(s.db, func(tx *gorm.DB) error {
		stock, err := s.productRepo.FindStockForUpdate(tx, productID)
		if err != nil {
			return err
		}

		sum, err := s.movementRepo.SumDeltas(tx, productID)
		if err != nil {
			return err
		}

		result = &ReconcileResult{
			ProductID:  productID,
			LedgerSum:  sum,
			Projection: stock.Quantity,
			InSync:     sum == stock.Quantity,
		}

		if !result.InSync && !stock.IntegrityHold {
			stock.IntegrityHold = true
			if err := s.productRepo.SaveStock(tx, stock); err != nil {
				return err
			}
		}
		// The hold write must commit, so the transaction returns nil on a
		// mismatch and the error is surfaced afterwards.
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.InSync {
		s.logger.WithFields(logrus.Fields{
			"module":     "stock",
			"product_id": productID,
			"ledger_sum": result.LedgerSum,
			"projection": result.Projection,
		}).Error("stock projection out of sync; product placed on integrity hold")
		return result, &apperr.DataIntegrityError{
			ProductID:  productID,
			LedgerSum:  result.LedgerSum,
			Projection: result.Projection,
		}
	}
	return result, nil
}

// GetAvailableQuantity reads the projection (O(1)); by the ledger invariant
// it always equals the movement delta sum.
func (s *stockService) GetAvailableQuantity(productID uuid.UUID) (int, error) {
	stock, err := s.productRepo.FindStock(productID)
	if err != nil {
		return 0, err
	}
	return stock.AvailableQuantity(), nil
}

func (s *stockService) GetMovement(id uuid.UUID) (*model.StockMovement, error) {
	return s.movementRepo.FindByID(id)
}

func (s *stockService) GetMovements(from, to *time.Time) ([]model.StockMovement, error) {
	return s.movementRepo.FindAll(from, to)
}

func (s *stockService) GetProductMovements(productID uuid.UUID) ([]model.StockMovement, error) {
	return s.movementRepo.FindByProduct(productID)
}

// VerifyMovementChain checks the previous/new quantity linkage of the whole
// ledger for one product. Returns nil when the chain is intact.
func (s *stockService) VerifyMovementChain(productID uuid.UUID) (*model.ChainBreak, error) {
	movements, err := s.movementRepo.FindByProduct(productID)
	if err != nil {
		return nil, err
	}
	return model.VerifyChain(movements), nil
}

func (s *stockService) GetLowStock() ([]model.Stock, error) {
	return s.productRepo.FindLowStock()
}

func (s *stockService) GetDailyTotals(startDate, endDate time.Time) ([]repository.DailyMovementTotals, error) {
	return s.movementRepo.DailyTotals(startDate, endDate)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
