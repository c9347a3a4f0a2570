package handler

import (
	"errors"

	"go-posledger-ws/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// writeError maps the engine's error taxonomy onto HTTP statuses. Business
// failures carry their detail to the client; anything else is a 500 with a
// generic message.
func writeError(c *fiber.Ctx, err error) error {
	var ve *apperr.ValidationError
	var ise *apperr.InsufficientStockError
	var ope *apperr.OverpaymentError
	var die *apperr.DataIntegrityError

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Not found"})
	case errors.As(err, &ve):
		return c.Status(400).JSON(fiber.Map{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &ise):
		return c.Status(409).JSON(fiber.Map{
			"error":     ise.Error(),
			"available": ise.Available,
			"requested": ise.Requested,
		})
	case errors.As(err, &ope):
		return c.Status(409).JSON(fiber.Map{
			"error":     ope.Error(),
			"total":     ope.Total,
			"would_pay": ope.WouldPay,
		})
	case errors.As(err, &die):
		return c.Status(409).JSON(fiber.Map{
			"error":      die.Error(),
			"ledger_sum": die.LedgerSum,
			"projection": die.Projection,
		})
	case errors.Is(err, apperr.ErrConcurrencyConflict):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperr.ErrDuplicateInvoiceNumber):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}

// getUserID extracts the user ID set by the auth middleware.
func getUserID(c *fiber.Ctx) string {
	userID := c.Locals("user_id")
	if userID == nil {
		return "system"
	}
	return userID.(string)
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}
