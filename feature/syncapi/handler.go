package syncapi

import (
	"datasync/core/logger"
	"datasync/core/sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the sync workflow.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/load", h.HandleLoad)
	group.Post("/compare", h.HandleCompare)
	group.Post("/run", h.HandleRun)
	group.Get("/status", h.HandleStatus)
	group.Get("/results", h.HandleResults)
	group.Get("/logs", h.HandleLogs)
}

// runRequest is the body of POST /sync/run.
type runRequest struct {
	// Confirmed acknowledges pending empty/error/orphan rows.
	Confirmed bool `json:"confirmed"`
	// RotateLog archives the previous run log before the run.
	RotateLog bool `json:"rotate_log"`
}

// HandleLoad loads both tables and takes their censuses.
// @Summary Load Tables
// @Description Takes the local snapshot and remote table censuses, enabling a compare.
// @Tags sync
// @Produce json
// @Success 200 {object} StatusReport "Censuses and warnings"
// @Failure 409 {object} map[string]string "Busy or wrong state"
// @Failure 500 {object} map[string]string "Load failure"
// @Router /sync/load [post]
func (h *Handler) HandleLoad(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Loading tables")

	if err := h.service.Load(c.Context()); err != nil {
		return respondError(c, l, err)
	}
	return c.JSON(h.service.Status())
}

// HandleCompare runs the compare pipeline.
// @Summary Compare Tables
// @Description Uploads the snapshot to staging, invokes the remote compare procedure and aggregates its results. This operation may take a long time.
// @Tags sync
// @Produce json
// @Success 200 {object} sync.CompareResult "Comparison result"
// @Failure 409 {object} map[string]string "Busy or wrong state"
// @Failure 500 {object} map[string]string "Comparison failure"
// @Router /sync/compare [post]
func (h *Handler) HandleCompare(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting comparison")

	result, err := h.service.Compare(c.Context())
	if err != nil {
		return respondError(c, l, err)
	}
	return c.JSON(result)
}

// HandleRun applies the pending comparison.
// @Summary Apply Changes
// @Description Invokes the remote update procedure for the pending comparison. Requires confirmed=true when empty, error or orphaned rows are pending.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body runRequest false "Run options"
// @Success 200 {object} sync.ApplyResult "Run outcome"
// @Failure 409 {object} map[string]string "Busy, wrong state, or confirmation required"
// @Failure 500 {object} map[string]string "Run failure"
// @Router /sync/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req runRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	l.Info("Starting sync run", zap.Bool("confirmed", req.Confirmed))
	result, err := h.service.Run(c.Context(), sync.ApplyOptions{
		Confirmed: req.Confirmed,
		RotateLog: req.RotateLog,
	})
	if err != nil {
		return respondError(c, l, err)
	}
	return c.JSON(result)
}

// HandleStatus reports the session state for UI polling.
// @Summary Session Status
// @Description Returns the run state, censuses, warnings and last outcome.
// @Tags sync
// @Produce json
// @Success 200 {object} StatusReport "Session status"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleResults returns the pending comparison result.
// @Summary Comparison Results
// @Description Returns the rows and summaries of the pending comparison.
// @Tags sync
// @Produce json
// @Success 200 {object} sync.CompareResult "Comparison result"
// @Failure 404 {object} map[string]string "No comparison pending"
// @Router /sync/results [get]
func (h *Handler) HandleResults(c *fiber.Ctx) error {
	result := h.service.Results()
	if result == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no comparison is pending"})
	}
	return c.JSON(result)
}

// HandleLogs lists archived run logs.
// @Summary Archived Run Logs
// @Description Lists run logs archived to object storage.
// @Tags sync
// @Produce json
// @Success 200 {object} map[string][]string "Archived log names"
// @Failure 500 {object} map[string]string "Listing failure"
// @Router /sync/logs [get]
func (h *Handler) HandleLogs(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	logs, err := h.service.ListArchivedLogs(c.Context())
	if err != nil {
		l.Error("Failed to list archived logs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if logs == nil {
		logs = []string{}
	}
	return c.JSON(fiber.Map{"logs": logs})
}

// respondError maps engine error kinds onto HTTP statuses.
func respondError(c *fiber.Ctx, l *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch sync.KindOf(err) {
	case sync.KindBusy, sync.KindState, sync.KindConfirmation:
		status = fiber.StatusConflict
	}

	if status == fiber.StatusInternalServerError {
		l.Error("Sync operation failed", zap.Error(err))
	} else {
		l.Warn("Sync operation rejected", zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  string(sync.KindOf(err)),
	})
}
