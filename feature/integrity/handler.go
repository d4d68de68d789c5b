package integrity

import (
	"performer-tag-sync/core/logger"
	"performer-tag-sync/core/utils"
	"performer-tag-sync/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/tables", h.HandleTablesCheck)
	group.Get("/indexes", h.HandleIndexesCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Schema, Tables, Indexes) against the stash database.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := make(map[string]interface{})

	if schema, err := h.service.CheckSchema(ctx); err != nil {
		report["schema"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = schema
	}

	if tables, err := h.service.CheckTables(); err != nil {
		report["tables"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["tables"] = tables
	}

	if indexes, err := h.service.CheckIndexes(ctx); err != nil {
		report["indexes"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["indexes"] = indexes
	}

	return c.JSON(report)
}

// HandleSchemaCheck checks the schema version.
// @Summary Check Schema Version
// @Description Compares the stash schema version with the tested versions.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckSchema(c.Context())
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Matched {
		l.Warn("Untested schema version", zap.Int64("version", report.Version))
	}
	return c.JSON(report)
}

// HandleTablesCheck checks the tables used by the sync.
// @Summary Check Tables
// @Description Checks that every table and column read or written by the sync exists.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.TablesReport "Tables Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/tables [get]
func (h *Handler) HandleTablesCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckTables()
	if err != nil {
		l.Error("Tables check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleIndexesCheck checks and optionally creates the performance indexes.
// @Summary Check Indexes
// @Description Checks the performance indexes used by the sync queries. Optionally creates the missing ones.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Create missing indexes"
// @Success 200 {object} checks.IndexReport "Index Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/indexes [get]
func (h *Handler) HandleIndexesCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := utils.ToBool(c.Query("fix"))

	var (
		report *checks.IndexReport
		err    error
	)
	if fix {
		l.Info("Creating missing indexes")
		report, err = h.service.FixIndexes(c.Context())
	} else {
		report, err = h.service.CheckIndexes(c.Context())
	}
	if err != nil {
		l.Error("Index check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(report.Missing) > 0 {
		l.Warn("Missing indexes detected", zap.Strings("missing", report.Missing))
	}
	return c.JSON(report)
}
