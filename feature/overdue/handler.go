package overdue

import (
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/authz"
	"github.com/Candra0x6/Inventy-sub003/core/logger"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the sweep over HTTP for operators.
type Handler struct {
	sweeper *Sweeper
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(sweeper *Sweeper, l *zap.Logger) *Handler {
	return &Handler{sweeper: sweeper, logger: l}
}

// RegisterRoutes registers the overdue routes, all staff-only.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	staff := authz.RequireRole(models.StaffTier...)

	group := app.Group("/overdue", staff)
	group.Get("/", h.HandleList)
	group.Post("/sweep", h.HandleSweep)
}

// HandleList returns the current overdue reservations with their lateness.
// @Summary List Overdue Reservations
// @Tags overdue
// @Produce json
// @Success 200 {array} Entry
// @Router /overdue [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	entries, err := h.sweeper.Snapshot(c.Context(), time.Now())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(entries)
}

// HandleSweep triggers a sweep run immediately and returns its summary.
// @Summary Run Overdue Sweep
// @Tags overdue
// @Produce json
// @Success 200 {object} Summary
// @Router /overdue/sweep [post]
func (h *Handler) HandleSweep(c *fiber.Ctx) error {
	summary, err := h.sweeper.Run(c.Context(), time.Now())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	logger.WithRayID(h.logger, c).Error("overdue request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
