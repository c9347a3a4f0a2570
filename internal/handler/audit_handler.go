package handler

import (
	"go-posledger-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetEntityHistory returns the audit trail for one entity, newest first.
// GET /api/v1/audit/:entity/:id
func (h *AuditHandler) GetEntityHistory(c *fiber.Ctx) error {
	entries, err := h.auditService.History(c.Params("entity"), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(entries)
}

// GetRecent returns the most recent audit entries across all entities.
// GET /api/v1/audit?limit=50
func (h *AuditHandler) GetRecent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	entries, err := h.auditService.Recent(limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(entries)
}
