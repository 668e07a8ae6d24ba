package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/homedash/internal/models"
)

// Schema describes the loaded dataset
// GET /v1/schema
func (h *Handler) Schema(c *fiber.Ctx) error {
	return c.JSON(h.dashboardService.Schema())
}

// Dashboard handles GET dashboard requests
// GET /v1/dashboard?start=2024-01-01&end=2024-01-31&rooms=Kitchen&metrics=temperature&granularity=weekly&detail=true
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	input, err := models.ParseFilterQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}
	return h.executeDashboard(c, input)
}

// DashboardPost handles POST dashboard requests with a JSON body
// POST /v1/dashboard
func (h *Handler) DashboardPost(c *fiber.Ctx) error {
	input, err := models.ParseFilterBody(c)
	if err != nil {
		return h.writeError(c, err)
	}
	return h.executeDashboard(c, input)
}

func (h *Handler) executeDashboard(c *fiber.Ctx, input *models.FilterRequest) error {
	req, err := input.Validate(h.loc)
	if err != nil {
		return h.writeError(c, err)
	}

	result, err := h.dashboardService.Dashboard(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(result)
}

// KPIs returns the headline figures of the selection
// GET /v1/kpis
func (h *Handler) KPIs(c *fiber.Ctx) error {
	input, err := models.ParseFilterQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}
	req, err := input.Validate(h.loc)
	if err != nil {
		return h.writeError(c, err)
	}

	result, err := h.dashboardService.KPIs(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(result)
}

// Recent returns the last rows of the selection
// GET /v1/readings/recent?limit=10
func (h *Handler) Recent(c *fiber.Ctx) error {
	input, err := models.ParseFilterQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}
	req, err := input.Validate(h.loc)
	if err != nil {
		return h.writeError(c, err)
	}

	result, err := h.dashboardService.Recent(c.UserContext(), req, input.RecentLimit())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(result)
}
