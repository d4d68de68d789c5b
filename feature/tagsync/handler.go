package tagsync

import (
	"errors"

	"performer-tag-sync/core/logger"
	"performer-tag-sync/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for tag syncs.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/", h.HandleStart)
	group.Get("/status", h.HandleStatus)
	group.Get("/reports", h.HandleListReports)
	group.Get("/reports/:id", h.HandleGetReport)
}

// HandleStart starts a sync run in the background.
// @Summary Start Tag Sync
// @Description Starts syncing performer tags to images, galleries and scenes. The run continues in the background; poll /sync/status for progress.
// @Tags sync
// @Accept json
// @Produce json
// @Param options body RunOptions false "Per-run overrides"
// @Success 202 {object} map[string]string "Run ID"
// @Failure 400 {object} map[string]string "Invalid options"
// @Failure 409 {object} map[string]string "A run is already in progress"
// @Router /sync [post]
func (h *Handler) HandleStart(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var opts RunOptions
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	runID, err := h.service.Start(opts)
	switch {
	case errors.Is(err, reconcile.ErrConfig):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrRunInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		l.Error("Failed to start sync", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Sync started", zap.String("run_id", runID), zap.Bool("dry_run", opts.DryRun))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"run_id": runID})
}

// HandleStatus returns the state of the current or last run.
// @Summary Sync Status
// @Description Returns whether a run is active, its progress, and the result of the last run.
// @Tags sync
// @Produce json
// @Success 200 {object} Status
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleListReports lists archived run reports.
// @Summary List Sync Reports
// @Description Lists the run reports archived in object storage, newest first.
// @Tags sync
// @Produce json
// @Success 200 {array} ReportInfo
// @Failure 404 {object} map[string]string "Archiving disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/reports [get]
func (h *Handler) HandleListReports(c *fiber.Ctx) error {
	archive := h.service.Archive()
	if archive == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "report archiving is disabled"})
	}

	reports, err := archive.List(c.Context())
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if reports == nil {
		reports = []ReportInfo{}
	}
	return c.JSON(reports)
}

// HandleGetReport returns one archived run report.
// @Summary Get Sync Report
// @Description Returns the archived report of a run.
// @Tags sync
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} reconcile.RunResult
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/reports/{id} [get]
func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	archive := h.service.Archive()
	if archive == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "report archiving is disabled"})
	}

	result, err := archive.Get(c.Context(), c.Params("id"))
	if errors.Is(err, ErrReportNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to get report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}
