package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/metrics"
	"github.com/use-agent/sitepulse/models"
)

// Prober reports whether the scrape backend answers. Its result is
// informational and never gates Scrape.
type Prober struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	status   atomic.Value // models.BackendStatus
}

// NewProber creates a Prober in the checking state.
func NewProber(cfg config.ClientConfig) *Prober {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p := &Prober{
		endpoint: endpoint(cfg.BaseURL, cfg.ProbeURL),
		timeout:  timeout,
		http:     &http.Client{},
	}
	p.status.Store(models.StatusChecking)
	return p
}

// Status returns the last known backend status.
func (p *Prober) Status() models.BackendStatus {
	return p.status.Load().(models.BackendStatus)
}

// Check probes the backend once and records the result.
func (p *Prober) Check(ctx context.Context) models.BackendStatus {
	status := p.check(ctx)
	p.status.Store(status)
	if status == models.StatusOnline {
		metrics.BackendOnline.Set(1)
	} else {
		metrics.BackendOnline.Set(0)
	}
	return status
}

// Start resets the status to checking and runs one Check in the background.
// The returned channel receives the final status.
func (p *Prober) Start(ctx context.Context) <-chan models.BackendStatus {
	p.status.Store(models.StatusChecking)
	out := make(chan models.BackendStatus, 1)
	go func() {
		out <- p.Check(ctx)
		close(out)
	}()
	return out
}

func (p *Prober) check(ctx context.Context) models.BackendStatus {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		slog.Warn("backend probe failed", "endpoint", p.endpoint, "error", err)
		return models.StatusOffline
	}
	req.Header.Set("Accept", AcceptHeader)

	resp, err := p.http.Do(req)
	if err != nil {
		slog.Warn("backend probe failed", "endpoint", p.endpoint, "error", err)
		return models.StatusOffline
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("backend probe got non-success status", "endpoint", p.endpoint, "status", resp.StatusCode)
		return models.StatusOffline
	}
	slog.Debug("backend probe succeeded", "endpoint", p.endpoint)
	return models.StatusOnline
}
