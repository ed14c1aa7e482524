package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitepulse/api/handler"
	"github.com/use-agent/sitepulse/api/middleware"
	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/metrics"
	"github.com/use-agent/sitepulse/scraper"
)

// Version is reported by GET /health.
const Version = "0.1.0"

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestLog → CORS
//	Scrape:  Auth (if enabled) → RateLimit
//
// /health and /metrics stay outside auth so probes always work. ctx bounds
// the rate limiter's background sweep.
func NewRouter(ctx context.Context, sc *scraper.Scraper, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLog())
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/health", handler.Health(sc, Version))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.GET("/scrape", handler.ScrapeGet(sc, cfg.Crawl.RelatedPages))
	protected.POST("/scrape", handler.ScrapePost(sc, cfg.Crawl.RelatedPages))

	return r
}
