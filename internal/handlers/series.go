package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/homedash/internal/models"
	"github.com/soltixdb/homedash/internal/services"
)

// Series returns raw chart lines, optionally downsampled and with anomalies
// GET /v1/series?metrics=temperature&downsampling=lttb&downsampling_threshold=500&anomaly_detection=zscore
func (h *Handler) Series(c *fiber.Ctx) error {
	input, err := models.ParseFilterQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}
	req, err := input.Validate(h.loc)
	if err != nil {
		return h.writeError(c, err)
	}

	result, err := h.seriesService.Series(c.UserContext(), req, services.SeriesOptions{
		Downsampling:     input.Downsampling,
		Threshold:        input.Threshold,
		Anomaly:          input.Anomaly,
		AnomalyThreshold: input.AnomalyThreshold,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(result)
}
