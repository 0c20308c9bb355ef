package diagnostics

import (
	"github.com/wangkanai/foundation/core/entity"
	"github.com/wangkanai/foundation/core/logger"
	"github.com/wangkanai/foundation/core/valueobject"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for cache diagnostics.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new diagnostics handler.
func NewHandler(log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{logger: log}
}

// RegisterRoutes registers the diagnostics routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/diagnostics")
	group.Get("/caches", h.HandleCacheStats)
	group.Post("/caches/clear", h.HandleCacheClear)
}

// HandleCacheStats reports counters for the value-object plan cache and
// the type-resolution cache.
func (h *Handler) HandleCacheStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"value_objects":   valueobject.Stats(),
		"type_resolution": entity.CacheStats(),
	})
}

// HandleCacheClear drops both caches. Comparisons in flight repopulate
// them lazily.
func (h *Handler) HandleCacheClear(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	valueobject.ClearCache()
	entity.ClearCache()
	l.Info("Caches cleared")
	return c.JSON(fiber.Map{"status": "cleared"})
}
