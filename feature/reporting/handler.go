package reporting

import (
	"github.com/Candra0x6/Inventy-sub003/core/authz"
	"github.com/Candra0x6/Inventy-sub003/core/logger"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the reports over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, l *zap.Logger) *Handler {
	return &Handler{service: service, logger: l}
}

// RegisterRoutes registers the reporting routes, staff-only.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	staff := authz.RequireRole(models.StaffTier...)

	group := app.Group("/reports", staff)
	group.Get("/summary", h.HandleSummary)
}

// HandleSummary returns the aggregate snapshot.
// @Summary Get Reporting Summary
// @Tags reports
// @Produce json
// @Success 200 {object} Report
// @Router /reports/summary [get]
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	report, err := h.service.Summary(c.Context())
	if err != nil {
		logger.WithRayID(h.logger, c).Error("report build failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(report)
}
