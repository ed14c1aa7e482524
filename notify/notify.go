// Package notify delivers the user-facing outcome of a scrape: success,
// degraded success, retries and terminal errors.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/sitepulse/webhook"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess  Kind = "success"
	KindDegraded Kind = "degraded"
	KindRetrying Kind = "retrying"
	KindError    Kind = "error"
)

// Messages shown for non-error outcomes.
const (
	MsgSuccess  = "Website scraped successfully!"
	MsgDegraded = "Website added but scraping failed"
)

// Notification is one user-visible event.
type Notification struct {
	Kind    Kind
	URL     string
	Message string

	// Code is the error code for KindError and KindRetrying.
	Code string

	// Attempt is the 1-based attempt that produced the event.
	Attempt int

	// Status is the last HTTP status, zero when none was received.
	Status int
}

// Notifier receives notifications. Implementations must not block the
// caller for long.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) {}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, x := range m {
		x.Notify(ctx, n)
	}
}

// Log writes notifications to slog; errors at warn level, the rest at info.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Kind == KindError {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, n.Message,
		"kind", string(n.Kind),
		"url", n.URL,
		"code", n.Code,
		"attempt", n.Attempt,
		"status", n.Status,
	)
}

// Webhook forwards notifications as webhook events. When Pending is set,
// every in-flight delivery is tracked on it so short-lived processes can
// wait before exiting.
type Webhook struct {
	Sender  *webhook.Sender
	Pending *sync.WaitGroup
}

func (w Webhook) Notify(_ context.Context, n Notification) {
	done := w.Sender.DeliverAsync(&webhook.Event{
		Type:      eventType(n.Kind),
		URL:       n.URL,
		Timestamp: time.Now().Unix(),
		Data: map[string]any{
			"message": n.Message,
			"code":    n.Code,
			"attempt": n.Attempt,
			"status":  n.Status,
		},
	})
	if w.Pending != nil {
		w.Pending.Add(1)
		go func() {
			defer w.Pending.Done()
			<-done
		}()
	}
}

func eventType(k Kind) string {
	switch k {
	case KindSuccess:
		return webhook.EventSucceeded
	case KindDegraded:
		return webhook.EventDegraded
	case KindRetrying:
		return webhook.EventRetrying
	default:
		return webhook.EventFailed
	}
}
