package reservation

import (
	"errors"

	"github.com/Candra0x6/Inventy-sub003/core/authz"
	"github.com/Candra0x6/Inventy-sub003/core/logger"
	"github.com/Candra0x6/Inventy-sub003/core/models"
	"github.com/Candra0x6/Inventy-sub003/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reservations.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the reservation routes. Approval, rejection,
// pickup and return are desk operations and require the staff tier.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	staff := authz.RequireRole(models.StaffTier...)

	group := app.Group("/reservations")
	group.Post("/", h.HandleRequest)
	group.Get("/", h.HandleList)
	group.Get("/:id", h.HandleGet)
	group.Post("/:id/approve", staff, h.HandleApprove)
	group.Post("/:id/reject", staff, h.HandleReject)
	group.Post("/:id/pickup", staff, h.HandlePickup)
	group.Post("/:id/return", staff, h.HandleReturn)
	group.Post("/:id/cancel", h.HandleCancel)
}

// HandleRequest files a reservation for the calling user.
// @Summary Request Reservation
// @Tags reservations
// @Accept json
// @Produce json
// @Param body body RequestInput true "Reservation window"
// @Success 201 {object} models.Reservation
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations [post]
func (h *Handler) HandleRequest(c *fiber.Ctx) error {
	var in RequestInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	res, err := h.service.Request(c.Context(), in, authz.Actor(c).ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// HandleList returns reservations. Borrowers see only their own.
// @Summary List Reservations
// @Tags reservations
// @Produce json
// @Param status query string false "Reservation status filter"
// @Param itemId query string false "Item filter"
// @Success 200 {array} models.Reservation
// @Router /reservations [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	actor := authz.Actor(c)
	f := ListFilter{
		ItemID: c.Query("itemId"),
		Status: models.ReservationStatus(c.Query("status")),
	}
	if actor.Role == models.RoleBorrower {
		f.UserID = actor.ID
	}

	out, err := h.service.List(c.Context(), f)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(out)
}

// HandleGet returns one reservation.
// @Summary Get Reservation
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} models.Reservation
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	res, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	actor := authz.Actor(c)
	if actor.Role == models.RoleBorrower && res.UserID != actor.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ErrNotOwner.Error()})
	}
	return c.JSON(res)
}

// HandleApprove approves a pending reservation.
// @Summary Approve Reservation
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} models.Reservation
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/approve [post]
func (h *Handler) HandleApprove(c *fiber.Ctx) error {
	res, err := h.service.Approve(c.Context(), c.Params("id"), authz.Actor(c).ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// rejectRequest carries the mandatory rejection reason.
type rejectRequest struct {
	Reason string `json:"reason"`
}

// HandleReject rejects a pending reservation.
// @Summary Reject Reservation
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body rejectRequest true "Rejection reason"
// @Success 200 {object} models.Reservation
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/reject [post]
func (h *Handler) HandleReject(c *fiber.Ctx) error {
	var req rejectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	res, err := h.service.Reject(c.Context(), c.Params("id"), authz.Actor(c).ID, req.Reason)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// HandlePickup marks an approved reservation as picked up.
// @Summary Pickup Reservation
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} models.Reservation
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/pickup [post]
func (h *Handler) HandlePickup(c *fiber.Ctx) error {
	res, err := h.service.Pickup(c.Context(), c.Params("id"), authz.Actor(c).ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// HandleReturn completes an active reservation and records the hand-back.
// @Summary Return Reservation
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param body body ReturnInput true "Return condition"
// @Success 200 {object} models.Reservation
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/return [post]
func (h *Handler) HandleReturn(c *fiber.Ctx) error {
	var in ReturnInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	res, err := h.service.Return(c.Context(), c.Params("id"), authz.Actor(c).ID, in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// HandleCancel cancels a pending or approved reservation.
// @Summary Cancel Reservation
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} models.Reservation
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/cancel [post]
func (h *Handler) HandleCancel(c *fiber.Ctx) error {
	res, err := h.service.Cancel(c.Context(), c.Params("id"), authz.Actor(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// respondError maps service errors onto the HTTP taxonomy.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrReservationNotFound), errors.Is(err, ErrItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrItemUnavailable), errors.Is(err, reconcile.ErrLockHeld):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidDates), errors.Is(err, ErrReasonRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	logger.WithRayID(h.service.logger, c).Error("reservation request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
