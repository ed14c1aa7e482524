package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitepulse/intake"
	"github.com/use-agent/sitepulse/metrics"
	"github.com/use-agent/sitepulse/models"
	"github.com/use-agent/sitepulse/scraper"
)

// ScrapeGet returns a handler for GET /scrape.
//
// The default response is a JSON ScrapeResult; format=html returns the page
// as fetched with a text/html content type.
func ScrapeGet(sc *scraper.Scraper, defaultRelated int) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var q models.ScrapeQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respondError(c, start, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}

		if q.Format == models.FormatHTML {
			target, err := intake.Normalize(q.URL)
			if err != nil {
				respondError(c, start, err)
				return
			}
			html, err := sc.FetchHTML(c.Request.Context(), target)
			if err != nil {
				respondError(c, start, err)
				return
			}
			observe(start, http.StatusOK)
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
			return
		}

		scrape(c, sc, start, q.ToRequest(), defaultRelated)
	}
}

// ScrapePost returns a handler for POST /scrape.
func ScrapePost(sc *scraper.Scraper, defaultRelated int) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, start, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}
		scrape(c, sc, start, &req, defaultRelated)
	}
}

func scrape(c *gin.Context, sc *scraper.Scraper, start time.Time, req *models.ScrapeRequest, defaultRelated int) {
	req.Defaults(defaultRelated)

	target, err := intake.Normalize(req.URL)
	if err != nil {
		respondError(c, start, err)
		return
	}
	slog.Info("scrape request received", "url", target, "related", *req.RelatedPages, "extract", req.ExtractMode)

	result, err := sc.Scrape(c.Request.Context(), target, scraper.Options{
		RelatedPages: *req.RelatedPages,
		ExtractMode:  req.ExtractMode,
		CSSSelector:  req.CSSSelector,
		Headers:      req.Headers,
	})
	if err != nil {
		respondError(c, start, err)
		return
	}

	observe(start, http.StatusOK)
	c.JSON(http.StatusOK, result)
}

// respondError writes {"detail", "code"} with the status for the error code.
func respondError(c *gin.Context, start time.Time, err error) {
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		se = models.NewScrapeError(models.ErrCodeInternal, "An unexpected error occurred", err)
	}
	status := mapErrorToStatus(se)
	if status >= http.StatusInternalServerError {
		slog.Error("scrape request failed", "path", c.Request.URL.Path, "code", se.Code, "error", err)
	} else {
		slog.Warn("scrape request rejected", "path", c.Request.URL.Path, "code", se.Code, "error", err)
	}
	observe(start, status)
	c.AbortWithStatusJSON(status, se.ToDetail())
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput, models.ErrCodeEmptyInput, models.ErrCodeInvalidURL:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUpstream:
		return http.StatusBadGateway // 502
	case models.ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}

func observe(start time.Time, status int) {
	metrics.ServerScrapes.WithLabelValues(strconv.Itoa(status)).Inc()
	metrics.ServerScrapeDuration.Observe(time.Since(start).Seconds())
}
