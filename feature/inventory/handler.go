package inventory

import (
	"errors"

	"github.com/Candra0x6/Inventy-sub003/core/authz"
	"github.com/Candra0x6/Inventy-sub003/core/logger"
	"github.com/Candra0x6/Inventy-sub003/core/metrics"
	"github.com/Candra0x6/Inventy-sub003/core/models"
	"github.com/Candra0x6/Inventy-sub003/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for items.
type Handler struct {
	service *Service
	metrics *metrics.Metrics
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

// RegisterRoutes registers the item routes. Reads require an authenticated
// session; mutations require the staff tier.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	staff := authz.RequireRole(models.StaffTier...)

	group := app.Group("/items")
	group.Get("/", h.HandleList)
	group.Get("/:id", h.HandleGet)
	group.Get("/:id/status-recommendation", h.HandleRecommendation)
	group.Post("/", staff, h.HandleCreate)
	group.Delete("/:id", staff, h.HandleDelete)
	group.Post("/:id/reconcile", staff, h.HandleReconcile)
	group.Post("/bulk-status", staff, h.HandleBulkStatus)
}

// HandleCreate registers a new item.
// @Summary Create Item
// @Tags items
// @Accept json
// @Produce json
// @Param body body CreateItemInput true "Item fields"
// @Success 201 {object} models.Item
// @Failure 400 {object} map[string]string
// @Router /items [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var in CreateItemInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	item, err := h.service.CreateItem(c.Context(), in, authz.Actor(c).ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleGet returns one item.
// @Summary Get Item
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} models.Item
// @Failure 404 {object} map[string]string
// @Router /items/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	item, err := h.service.GetItem(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(item)
}

// HandleList returns items, filterable by status and category.
// @Summary List Items
// @Tags items
// @Produce json
// @Param status query string false "Item status filter"
// @Param category query string false "Category filter"
// @Success 200 {array} models.Item
// @Router /items [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	items, err := h.service.ListItems(c.Context(), models.ItemStatus(c.Query("status")), c.Query("category"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(items)
}

// HandleDelete destroys an item without open reservations.
// @Summary Delete Item
// @Tags items
// @Param id path string true "Item ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /items/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeleteItem(c.Context(), c.Params("id"), authz.Actor(c).ID); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRecommendation returns the drift report for one item. Read-only.
// @Summary Get Status Transition Recommendation
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} reconcile.Recommendation
// @Failure 404 {object} map[string]any
// @Router /items/{id}/status-recommendation [get]
func (h *Handler) HandleRecommendation(c *fiber.Ctx) error {
	rec, err := h.service.Recommend(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, reconcile.ErrItemNotFound) {
			// Null currentStatus lets callers distinguish "deleted" from "no drift".
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"currentStatus":     nil,
				"recommendedStatus": nil,
				"driftDetected":     false,
				"error":             err.Error(),
			})
		}
		return h.respondError(c, err)
	}

	if rec.DriftDetected {
		h.metrics.DriftDetectedTotal.Inc()
	}
	return c.JSON(rec)
}

type reconcileRequest struct {
	ReservationStatus models.ReservationStatus `json:"reservationStatus"`
	Reason            string                   `json:"reason"`
}

// HandleReconcile recomputes and applies an item's status.
// @Summary Trigger Item Status Reconciliation
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param body body reconcileRequest true "Triggering reservation status"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /items/{id}/reconcile [post]
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	var req reconcileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	out, err := h.service.Reconcile(c.Context(), c.Params("id"), req.ReservationStatus, authz.Actor(c).ID, req.Reason)
	if err != nil {
		h.metrics.ReconciliationsTotal.WithLabelValues("error").Inc()
		return h.respondError(c, err)
	}

	outcome := "unchanged"
	if out.Changed {
		outcome = "applied"
	}
	h.metrics.ReconciliationsTotal.WithLabelValues(outcome).Inc()

	return c.JSON(fiber.Map{
		"message":        "item status reconciled",
		"itemId":         out.ItemID,
		"previousStatus": out.PreviousStatus,
		"newStatus":      out.NewStatus,
	})
}

// HandleBulkStatus validates and applies a batch of status transitions.
// @Summary Bulk Update Item Status
// @Tags items
// @Accept json
// @Produce json
// @Param body body BulkRequest true "Bulk transition"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]any
// @Router /items/bulk-status [post]
func (h *Handler) HandleBulkStatus(c *fiber.Ctx) error {
	var req BulkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := h.service.BulkUpdateStatus(c.Context(), req, authz.Actor(c).ID)
	if err != nil {
		var missing *MissingItemsError
		if errors.As(err, &missing) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":      "some items were not found",
				"missingIds": missing.IDs,
			})
		}
		return h.respondError(c, err)
	}

	h.metrics.BulkUpdatesTotal.WithLabelValues("updated").Add(float64(len(result.Updated)))
	h.metrics.BulkUpdatesTotal.WithLabelValues("skipped").Add(float64(len(result.Skipped)))
	h.metrics.BulkUpdatesTotal.WithLabelValues("failed").Add(float64(len(result.Failed)))

	return c.JSON(fiber.Map{
		"results": result,
		"summary": result.Summary(),
	})
}

// respondError maps service errors onto the HTTP taxonomy.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	l := logger.WithRayID(h.service.logger, c)

	switch {
	case errors.Is(err, ErrItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrActiveReservations), errors.Is(err, reconcile.ErrLockHeld):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrBatchTooLarge), errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrUnknownStatus), errors.Is(err, reconcile.ErrMissingReservationStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	l.Error("inventory request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
