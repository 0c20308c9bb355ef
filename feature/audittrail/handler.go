package audittrail

import (
	"github.com/wangkanai/foundation/core/logger"
	"github.com/wangkanai/foundation/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for recorded audit trails.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, logger: log}
}

// RegisterRoutes registers the audit trail routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/trails")
	group.Get("/id/:id", h.HandleGetTrail)
	group.Get("/:entity", h.HandleListTrails)
}

// HandleListTrails returns the most recent trails for one entity.
// Accepts an optional ?limit= query parameter.
func (h *Handler) HandleListTrails(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	entity := c.Params("entity")
	limit := utils.ToInt(c.Query("limit", "50"))

	views, err := h.service.List(c.Context(), entity, limit)
	if err != nil {
		l.Error("List trails failed", zap.String("entity", entity), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"entity": entity,
		"count":  len(views),
		"trails": views,
	})
}

// HandleGetTrail returns a single trail with decoded before/after state.
func (h *Handler) HandleGetTrail(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	id := c.Params("id")
	view, err := h.service.Get(c.Context(), id)
	if err != nil {
		l.Warn("Get trail failed", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(view)
}
