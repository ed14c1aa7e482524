// Package client talks to the scrape backend on behalf of the intake flow.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/intake"
	"github.com/use-agent/sitepulse/metrics"
	"github.com/use-agent/sitepulse/models"
	"github.com/use-agent/sitepulse/notify"
	"github.com/use-agent/sitepulse/session"
)

// AcceptHeader is sent on every backend call.
const AcceptHeader = "text/html,application/json"

// maxBody caps how much of a backend response is read.
const maxBody = 20 << 20

// Client is the scrape request orchestrator. It is safe for concurrent use;
// overlapping Scrape calls run independently and their session writes
// resolve as last write wins.
type Client struct {
	baseURL     string
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration

	http     *http.Client
	session  *session.Session
	notifier notify.Notifier
}

// New creates a Client. sess may be nil to skip persistence; n may be nil
// to drop notifications.
func New(cfg config.ClientConfig, sess *session.Session, n notify.Notifier) *Client {
	if n == nil {
		n = notify.Nop{}
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeout:     cfg.Timeout,
		maxAttempts: attempts,
		backoff:     cfg.RetryBackoff,
		http:        &http.Client{},
		session:     sess,
		notifier:    n,
	}
}

// Endpoint returns the backend URL that scrapes target.
func (c *Client) Endpoint(target string) string {
	return endpoint(c.baseURL, target)
}

func endpoint(base, target string) string {
	return strings.TrimRight(base, "/") + "/scrape?" + url.Values{"url": {target}}.Encode()
}

// Scrape normalizes rawURL, asks the backend to scrape it and stores the
// outcome in the session.
//
// Flow:
//  1. Normalize; invalid input returns at once without a network call.
//  2. GET <base>/scrape?url=..., each attempt bounded by the timeout.
//  3. 5xx and connection failures are retried up to the attempt limit;
//     timeouts and other statuses end the call.
//  4. The 2xx body becomes Structured when it is a ScrapeResult document,
//     RawHTML otherwise.
//  5. The outcome and the normalized URL are written to the session.
func (c *Client) Scrape(ctx context.Context, rawURL string) (models.Outcome, error) {
	target, err := intake.Normalize(rawURL)
	if err != nil {
		c.fail(ctx, strings.TrimSpace(rawURL), 0, err)
		return nil, err
	}

	endpoint := c.Endpoint(target)
	slog.Info("scrape request started", "url", target, "endpoint", endpoint)

	var (
		lastErr  error
		attempts int
	)
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.notifier.Notify(ctx, notify.Notification{
				Kind:    notify.KindRetrying,
				URL:     target,
				Message: fmt.Sprintf("Retrying request (attempt %d of %d)...", attempt, c.maxAttempts),
				Code:    models.CodeOf(lastErr),
				Attempt: attempt,
				Status:  statusOf(lastErr),
			})
			if err := c.wait(ctx); err != nil {
				lastErr = err
				break
			}
		}

		attempts = attempt
		body, err := c.fetch(ctx, endpoint)
		if err == nil {
			outcome := parseBody(target, body)
			c.persist(ctx, target, outcome)
			c.succeed(ctx, target, attempt, outcome)
			return outcome, nil
		}

		lastErr = err
		code := models.CodeOf(err)
		slog.Warn("scrape attempt failed",
			"url", target,
			"attempt", attempt,
			"maxAttempts", c.maxAttempts,
			"code", code,
			"error", err,
		)
		if !models.Retryable(code) {
			break
		}
	}

	c.fail(ctx, target, attempts, lastErr)
	return nil, lastErr
}

// fetch performs one backend call and returns the body of a 2xx response.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	defer cancel()

	start := time.Now()
	defer func() { metrics.ClientAttemptDuration.Observe(time.Since(start).Seconds()) }()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidURL, models.MsgInvalidURL, err)
	}
	req.Header.Set("Accept", AcceptHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.record(classify(ctx, attemptCtx, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, c.record(classify(ctx, attemptCtx, err))
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, c.record(models.NewStatusError(models.ErrCodeServerError, errorMessage(resp, body), resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, c.record(models.NewStatusError(models.ErrCodeClientError, errorMessage(resp, body), resp.StatusCode))
	}

	metrics.ClientAttempts.WithLabelValues("ok").Inc()
	return body, nil
}

func (c *Client) record(err error) error {
	metrics.ClientAttempts.WithLabelValues(strings.ToLower(models.CodeOf(err))).Inc()
	return err
}

func (c *Client) wait(ctx context.Context) error {
	if c.backoff <= 0 {
		return nil
	}
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return classify(ctx, ctx, ctx.Err())
	case <-t.C:
		return nil
	}
}

func (c *Client) persist(ctx context.Context, target string, o models.Outcome) {
	if c.session == nil {
		return
	}
	if err := c.session.SaveScrape(ctx, o); err != nil {
		slog.Warn("failed to persist scrape result", "url", target, "error", err)
	}
	if err := c.session.SetWebsite(ctx, target); err != nil {
		slog.Warn("failed to persist website", "url", target, "error", err)
	}
}

func (c *Client) succeed(ctx context.Context, target string, attempt int, o models.Outcome) {
	n := notify.Notification{Kind: notify.KindSuccess, URL: target, Message: notify.MsgSuccess, Attempt: attempt}
	label := models.KindStructured
	if o.Degraded() {
		n.Kind = notify.KindDegraded
		n.Message = notify.MsgDegraded
		label = models.KindRawHTML
	}
	metrics.ClientOutcomes.WithLabelValues(label).Inc()
	slog.Info("scrape request finished", "url", target, "attempt", attempt, "outcome", label)
	c.notifier.Notify(ctx, n)
}

func (c *Client) fail(ctx context.Context, target string, attempt int, err error) {
	code := models.CodeOf(err)
	metrics.ClientOutcomes.WithLabelValues(strings.ToLower(code)).Inc()
	slog.Error("scrape request failed", "url", target, "code", code, "error", err)
	c.notifier.Notify(ctx, notify.Notification{
		Kind:    notify.KindError,
		URL:     target,
		Message: models.UserMessage(err),
		Code:    code,
		Attempt: attempt,
		Status:  statusOf(err),
	})
}

// classify maps a transport error to a ScrapeError code. parent is the
// caller's context, attempt the per-attempt context derived from it.
func classify(parent, attempt context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		if errors.Is(perr, context.DeadlineExceeded) {
			return models.NewScrapeError(models.ErrCodeTimeout, models.MsgTimeout, err)
		}
		return models.NewScrapeError(models.ErrCodeCanceled, models.MsgCanceled, err)
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeTimeout, models.MsgTimeout, err)
	}
	return models.NewScrapeError(models.ErrCodeNetworkError, models.MsgNetwork, err)
}

func statusOf(err error) int {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// errorBody covers the error shapes backends return: {"detail": ...},
// {"error": {"message": ...}}, {"error": "..."} and {"message": ...}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// errorMessage extracts a readable message from a failed response body,
// falling back to the status line.
func errorMessage(resp *http.Response, body []byte) string {
	fallback := fmt.Sprintf("Failed to fetch website data: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return fallback
	}
	if msg := rawText(eb.Detail); msg != "" {
		return msg
	}
	if len(eb.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(eb.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		if msg := rawText(eb.Error); msg != "" {
			return msg
		}
	}
	if eb.Message != "" {
		return eb.Message
	}
	return fallback
}

// rawText returns a JSON string's value, or the raw JSON for other
// non-null values.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	if raw[0] == '{' {
		return ""
	}
	return string(raw)
}

// parseBody decodes a 2xx body. A JSON object with a url or html field is a
// ScrapeResult; a JSON string is unquoted into HTML; anything else is kept
// verbatim as HTML.
func parseBody(target string, body []byte) models.Outcome {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return models.RawHTML{URL: target, HTML: string(body)}
	}

	switch trimmed[0] {
	case '{':
		var r models.ScrapeResult
		if err := json.Unmarshal(trimmed, &r); err == nil && (r.URL != "" || r.HTML != "") {
			if r.URL == "" {
				r.URL = target
			}
			return models.Structured{ScrapeResult: r}
		}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return models.RawHTML{URL: target, HTML: s}
		}
	}
	return models.RawHTML{URL: target, HTML: string(body)}
}
