package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/homedash/internal/models"
)

// Export downloads the filtered rows with their original columns
// GET /v1/export?start=2024-01-01&end=2024-01-31&format=xlsx
func (h *Handler) Export(c *fiber.Ctx) error {
	input, err := models.ParseFilterQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}
	req, err := input.Validate(h.loc)
	if err != nil {
		return h.writeError(c, err)
	}

	result, err := h.exportService.Export(c.UserContext(), req, input.Format)
	if err != nil {
		return h.writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, result.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Set("X-Row-Count", strconv.Itoa(result.Rows))
	return c.Send(result.Data)
}
