package attachment

import (
	"errors"

	"github.com/Candra0x6/Inventy-sub003/core/authz"
	"github.com/Candra0x6/Inventy-sub003/core/logger"
	"github.com/Candra0x6/Inventy-sub003/core/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes item photos over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the photo routes under /items.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	staff := authz.RequireRole(models.StaffTier...)

	group := app.Group("/items/:id/photo")
	group.Get("/", h.HandleGet)
	group.Put("/", staff, h.HandleUpload)
	group.Delete("/", staff, h.HandleDelete)
}

// HandleUpload replaces the item's photo with the uploaded file.
// @Summary Upload Item Photo
// @Tags items
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Item ID"
// @Param photo formData file true "Photo file"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /items/{id}/photo [put]
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file is required"})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read upload"})
	}
	defer src.Close()

	key, err := h.service.Upload(c.Context(), c.Params("id"), file.Filename,
		file.Header.Get("Content-Type"), src, file.Size)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"key": key})
}

// HandleGet streams the item's photo.
// @Summary Get Item Photo
// @Tags items
// @Produce octet-stream
// @Param id path string true "Item ID"
// @Success 200
// @Failure 404 {object} map[string]string
// @Router /items/{id}/photo [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	photo, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}

	if photo.ContentType != "" {
		c.Set(fiber.HeaderContentType, photo.ContentType)
	}
	return c.SendStream(photo.Body, int(photo.Size))
}

// HandleDelete removes the item's photo.
// @Summary Delete Item Photo
// @Tags items
// @Param id path string true "Item ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /items/{id}/photo [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrNoPhoto):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.service.logger, c).Error("photo request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
