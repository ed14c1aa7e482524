package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitepulse/models"
	"github.com/use-agent/sitepulse/scraper"
)

// Health returns a handler for GET /health.
func Health(sc *scraper.Scraper, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Uptime:  sc.Uptime().Round(time.Second).String(),
			Version: version,
		})
	}
}
