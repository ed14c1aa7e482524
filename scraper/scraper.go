// Package scraper is the backend scrape service: fetch a page, clean it and
// optionally scrape the pages it links to.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/sitepulse/cleaner"
	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/engine"
	"github.com/use-agent/sitepulse/models"
)

// Options tune one scrape.
type Options struct {
	RelatedPages int
	ExtractMode  string
	CSSSelector  string

	// Headers go to the target page fetch only.
	Headers map[string]string
}

// Scraper is safe for concurrent use.
type Scraper struct {
	engine       engine.Engine
	cleaner      *cleaner.Cleaner
	crawlCfg     config.CrawlConfig
	fetchTimeout time.Duration
	startTime    time.Time
}

// New creates a Scraper that fetches through eng.
func New(eng engine.Engine, cl *cleaner.Cleaner, serverCfg config.ServerConfig, crawlCfg config.CrawlConfig) *Scraper {
	return &Scraper{
		engine:       eng,
		cleaner:      cl,
		crawlCfg:     crawlCfg,
		fetchTimeout: serverCfg.FetchTimeout,
		startTime:    time.Now(),
	}
}

// Uptime returns how long the Scraper has existed.
func (s *Scraper) Uptime() time.Duration { return time.Since(s.startTime) }

// FetchHTML returns the page at pageURL as fetched.
func (s *Scraper) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	res, err := s.fetch(ctx, pageURL, nil)
	if err != nil {
		return "", err
	}
	return res.HTML, nil
}

// Scrape fetches pageURL and returns its ScrapeResult, with up to
// opts.RelatedPages linked pages attached.
func (s *Scraper) Scrape(ctx context.Context, pageURL string, opts Options) (*models.ScrapeResult, error) {
	res, err := s.fetch(ctx, pageURL, opts.Headers)
	if err != nil {
		return nil, err
	}

	result, err := s.cleaner.Clean(res.HTML, pageURL, cleaner.Options{
		ExtractMode: opts.ExtractMode,
		CSSSelector: opts.CSSSelector,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("page scraped",
		"url", pageURL,
		"engine", res.EngineName,
		"bytes", len(res.HTML),
		"title", truncate(result.Title, 50),
		"description", truncate(result.Description, 50),
		"language", result.Language,
	)

	if opts.RelatedPages > 0 {
		c := NewCrawler(s.engine, s.cleaner, s.crawlCfg, s.fetchTimeout)
		result.RelatedPages = c.Crawl(ctx, pageURL, res.HTML, opts.RelatedPages)
	}
	return result, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string, headers map[string]string) (*engine.FetchResult, error) {
	res, err := s.engine.Fetch(ctx, &engine.FetchRequest{URL: pageURL, Headers: headers, Timeout: s.fetchTimeout})
	if err != nil {
		slog.Error("upstream fetch failed", "url", pageURL, "error", err)
		return nil, fetchError(pageURL, err)
	}
	return res, nil
}

// fetchError maps an engine error to the backend error codes.
func fetchError(pageURL string, err error) *models.ScrapeError {
	if engine.IsTimeout(err) {
		return models.NewScrapeError(models.ErrCodeUpstreamTimeout,
			fmt.Sprintf("timed out fetching %s", pageURL), err)
	}
	var ue *engine.UpstreamError
	if errors.As(err, &ue) {
		se := models.NewScrapeError(models.ErrCodeUpstream,
			fmt.Sprintf("%s returned status %d (content-type: %s)", pageURL, ue.StatusCode, ue.ContentType), err)
		se.Status = ue.StatusCode
		return se
	}
	return models.NewScrapeError(models.ErrCodeUpstream, err.Error(), err)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
