package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/homedash/internal/models"
)

// DailyReport builds the report of one day
// GET /v1/reports/daily?date=2024-01-15&room=LivingRoom&format=text
func (h *Handler) DailyReport(c *fiber.Ctx) error {
	input, err := models.ParseReportQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}

	rep, err := h.reportService.Daily(c.UserContext(), input.Date, input.Room)
	if err != nil {
		return h.writeError(c, err)
	}

	if input.Format == "text" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(rep.Text())
	}
	return c.JSON(rep)
}
