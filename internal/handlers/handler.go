package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/models"
	"github.com/soltixdb/homedash/internal/readings"
	"github.com/soltixdb/homedash/internal/report"
	"github.com/soltixdb/homedash/internal/services"
)

// Version is reported by the health endpoint
var Version = "dev"

// Handler contains all HTTP handlers
type Handler struct {
	logger *logging.Logger
	loc    *time.Location // zone for date-only query parameters
	// Services
	dashboardService *services.DashboardService
	seriesService    *services.SeriesService
	exportService    *services.ExportService
	reportService    *services.ReportService
}

// New creates a new handler instance over a loaded dataset
func New(logger *logging.Logger, store *readings.Store, builder *report.Builder, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		logger:           logger,
		loc:              loc,
		dashboardService: services.NewDashboardService(logger, store),
		seriesService:    services.NewSeriesService(logger, store),
		exportService:    services.NewExportService(logger, store),
		reportService:    services.NewReportService(logger, builder),
	}
}

// writeError renders request and service errors in the error envelope
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    services.CodeInvalidRequest,
				Message: fe.Message,
			},
		})
	}

	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		svcErr = services.NewServiceError(services.CodeInternal, err.Error())
	}

	status := statusFor(svcErr.Code)
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("Request failed",
			"path", c.Path(),
			"method", c.Method(),
			"error", err,
		)
	}

	return c.Status(status).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Details: svcErr.Details,
		},
	})
}

func statusFor(code string) int {
	switch code {
	case services.CodeInvalidRequest, services.CodeInvalidRange:
		return fiber.StatusBadRequest
	case services.CodeNotFound:
		return fiber.StatusNotFound
	case services.CodeUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}
