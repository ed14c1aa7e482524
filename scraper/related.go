package scraper

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/use-agent/sitepulse/cleaner"
	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/engine"
	"github.com/use-agent/sitepulse/metrics"
	"github.com/use-agent/sitepulse/models"
	"github.com/use-agent/sitepulse/simhash"
)

// Crawler scrapes the pages a seed page links to. One Crawler serves one
// seed; its limiter paces that seed's fetches.
type Crawler struct {
	engine      engine.Engine
	cleaner     *cleaner.Cleaner
	limiter     *rate.Limiter
	concurrency int
	timeout     time.Duration
	threshold   int
}

// NewCrawler creates a Crawler from cfg. A non-positive rate disables pacing.
func NewCrawler(eng engine.Engine, cl *cleaner.Cleaner, cfg config.CrawlConfig, timeout time.Duration) *Crawler {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Crawler{
		engine:      eng,
		cleaner:     cl,
		limiter:     rate.NewLimiter(limit, 1),
		concurrency: concurrency,
		timeout:     timeout,
		threshold:   simhash.DefaultThreshold,
	}
}

// Crawl scrapes up to max links of seedHTML. Pages that fail are skipped and
// near-duplicates of an earlier page (the seed included) are dropped. The
// result keeps link order.
func (c *Crawler) Crawl(ctx context.Context, seedURL, seedHTML string, max int) []models.RelatedPage {
	links := cleaner.RelatedLinks(seedHTML, seedURL)
	if len(links) > max {
		links = links[:max]
	}
	if len(links) == 0 {
		return []models.RelatedPage{}
	}

	pages := make([]*models.RelatedPage, len(links))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, link := range links {
		g.Go(func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil
			}
			page, err := c.scrape(ctx, link)
			if err != nil {
				metrics.RelatedPages.WithLabelValues("failed").Inc()
				slog.Warn("related page skipped", "seed", seedURL, "url", link, "error", err)
				return nil
			}
			pages[i] = page
			return nil
		})
	}
	_ = g.Wait()

	seen := simhash.NewIndex(c.threshold)
	if md, err := c.cleaner.Markdown(seedHTML, seedURL); err == nil {
		seen.Add(simhash.FingerprintMarkdown(md))
	}

	out := make([]models.RelatedPage, 0, len(pages))
	for _, p := range pages {
		if p == nil {
			continue
		}
		if !seen.Add(simhash.FingerprintMarkdown(p.Markdown)) {
			metrics.RelatedPages.WithLabelValues("duplicate").Inc()
			slog.Debug("related page is a near-duplicate", "seed", seedURL, "url", p.URL)
			continue
		}
		metrics.RelatedPages.WithLabelValues("ok").Inc()
		out = append(out, *p)
	}
	slog.Info("related pages crawled", "seed", seedURL, "links", len(links), "kept", len(out), "fingerprints", seen.Len())
	return out
}

func (c *Crawler) scrape(ctx context.Context, pageURL string) (*models.RelatedPage, error) {
	res, err := c.engine.Fetch(ctx, &engine.FetchRequest{URL: pageURL, Timeout: c.timeout})
	if err != nil {
		return nil, err
	}
	md, err := c.cleaner.Markdown(res.HTML, pageURL)
	if err != nil {
		return nil, err
	}
	return &models.RelatedPage{
		URL:      pageURL,
		Title:    cleaner.ExtractMetadata(res.HTML).Title,
		Markdown: md,
	}, nil
}
