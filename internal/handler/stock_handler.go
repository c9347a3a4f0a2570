package handler

import (
	"time"

	"go-posledger-ws/internal/model"
	"go-posledger-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type StockHandler struct {
	stockService service.StockService
	priceService service.PriceService
}

func NewStockHandler(stockService service.StockService, priceService service.PriceService) *StockHandler {
	return &StockHandler{
		stockService: stockService,
		priceService: priceService,
	}
}

func (h *StockHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.stockService.CreateProduct(&product, getUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *StockHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.stockService.UpdateProduct(productID, &product, getUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *StockHandler) DeleteProduct(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	if err := h.stockService.DeleteProduct(productID, getUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func (h *StockHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.stockService.GetProducts()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

func (h *StockHandler) GetProduct(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	product, err := h.stockService.GetProduct(productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

// MovementRequest is the request body for recording a stock movement.
type MovementRequest struct {
	ProductID string          `json:"product_id"`
	Delta     int             `json:"delta"`
	Type      string          `json:"type"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

func (h *StockHandler) RecordMovement(c *fiber.Ctx) error {
	var req MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	productID, err := parseUUID(req.ProductID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	movement, err := h.stockService.RecordMovement(service.RecordMovementInput{
		ProductID: productID,
		Delta:     req.Delta,
		Type:      model.MovementType(req.Type),
		UnitCost:  req.UnitCost,
		Reference: req.Reference,
		Notes:     req.Notes,
		UserID:    getUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Movement recorded", "data": movement})
}

func (h *StockHandler) GetMovements(c *fiber.Ctx) error {
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid 'from' date, use RFC3339"})
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid 'to' date, use RFC3339"})
		}
		to = &t
	}

	movements, err := h.stockService.GetMovements(from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(movements)
}

func (h *StockHandler) GetMovement(c *fiber.Ctx) error {
	movementID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid movement ID"})
	}

	movement, err := h.stockService.GetMovement(movementID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(movement)
}

func (h *StockHandler) GetProductMovements(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	movements, err := h.stockService.GetProductMovements(productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(movements)
}

func (h *StockHandler) GetAvailableQuantity(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	quantity, err := h.stockService.GetAvailableQuantity(productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": productID, "available_quantity": quantity})
}

// Reconcile compares the ledger sum against the cached quantity. A mismatch
// answers 409 with both numbers and leaves the product on integrity hold.
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	result, err := h.stockService.Reconcile(productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock in sync", "data": result})
}

func (h *StockHandler) VerifyChain(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	chainBreak, err := h.stockService.VerifyMovementChain(productID)
	if err != nil {
		return writeError(c, err)
	}
	if chainBreak != nil {
		return c.Status(409).JSON(fiber.Map{"error": "Movement chain broken", "data": chainBreak})
	}
	return c.JSON(fiber.Map{"message": "Movement chain intact"})
}

func (h *StockHandler) GetLowStock(c *fiber.Ctx) error {
	stocks, err := h.stockService.GetLowStock()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stocks)
}

func (h *StockHandler) GetDailyTotals(c *fiber.Ctx) error {
	rangeParam := c.Query("range", "7d")
	now := time.Now()
	var startDate time.Time

	switch rangeParam {
	case "7d":
		startDate = now.AddDate(0, 0, -7)
	case "1m":
		startDate = now.AddDate(0, -1, 0)
	case "3m":
		startDate = now.AddDate(0, -3, 0)
	case "6m":
		startDate = now.AddDate(0, -6, 0)
	case "12m":
		startDate = now.AddDate(0, -12, 0)
	default:
		startDate = now.AddDate(0, 0, -7)
	}

	totals, err := h.stockService.GetDailyTotals(startDate, now)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(totals)
}

// PriceChangeRequest is the request body for changing product prices.
type PriceChangeRequest struct {
	SalePrice decimal.Decimal `json:"sale_price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Reason    string          `json:"reason"`
}

func (h *StockHandler) ChangePrice(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req PriceChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	entry, err := h.priceService.ChangePrice(productID, req.SalePrice, req.CostPrice, req.Reason, getUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Price changed", "data": entry})
}

func (h *StockHandler) GetPriceHistory(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	history, err := h.priceService.GetPriceHistory(productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(history)
}
