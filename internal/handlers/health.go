package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lexportal/collabsync/internal/config"
	"github.com/lexportal/collabsync/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports service liveness and dependency reachability
type HealthHandler struct {
	Config *config.Config
	DB     *gorm.DB
}

// Check handles GET /api/health
// @Summary Service health
// @Description Database and identity provider reachability
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Config, h.DB)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
