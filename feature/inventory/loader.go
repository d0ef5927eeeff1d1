package inventory

import (
	"github.com/Candra0x6/Inventy-sub003/core/metrics"
	"github.com/Candra0x6/Inventy-sub003/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the inventory feature.
func NewFeature(db *gorm.DB, engine *reconcile.Engine, logger *zap.Logger, m *metrics.Metrics) *Feature {
	svc := NewService(db, engine, logger)
	h := NewHandler(svc, m)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "inventory"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
