package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/statistics"
)

type AdminController struct {
	stats *statistics.Service
}

func NewAdminController(d Deps) *AdminController {
	return &AdminController{stats: d.Stats}
}

// HandleStats returns the dashboard totals
func (ac *AdminController) HandleStats(c *fiber.Ctx) error {
	stats, err := ac.stats.Get(c.UserContext())
	if err != nil {
		return apperror.Internal("failed to load statistics", err)
	}
	return c.JSON(stats)
}
