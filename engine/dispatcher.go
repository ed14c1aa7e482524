package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// Dispatcher tries engines in order and remembers, per host, the first one
// that worked. An engine that got an HTTP answer is authoritative: an
// *UpstreamError ends the fetch without escalation, as do timeouts.
type Dispatcher struct {
	engines []Engine
	memory  *HostMemory
}

// NewDispatcher creates a Dispatcher. memory may be nil.
func NewDispatcher(memory *HostMemory, engines ...Engine) *Dispatcher {
	return &Dispatcher{engines: engines, memory: memory}
}

func (d *Dispatcher) Name() string { return "dispatcher" }

// Fetch runs the remembered engine for the host first, then the rest in
// order, and returns the first success.
func (d *Dispatcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	host := hostOf(req.URL)

	var lastErr error
	for _, eng := range d.order(host) {
		result, err := eng.Fetch(ctx, req)
		if err == nil {
			if d.memory != nil {
				d.memory.Set(host, eng.Name())
			}
			return result, nil
		}
		lastErr = err

		var ue *UpstreamError
		if errors.As(err, &ue) || IsTimeout(err) || ctx.Err() != nil {
			return nil, err
		}
		slog.Info("engine failed, escalating", "engine", eng.Name(), "host", host, "error", err)
		if d.memory != nil {
			d.memory.Delete(host)
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("engine: no engine configured for %s", req.URL)
	}
	return nil, lastErr
}

// order returns the engines with the remembered one for host first.
func (d *Dispatcher) order(host string) []Engine {
	if d.memory == nil {
		return d.engines
	}
	name := d.memory.Get(host)
	if name == "" || len(d.engines) < 2 || d.engines[0].Name() == name {
		return d.engines
	}
	out := make([]Engine, 0, len(d.engines))
	for _, e := range d.engines {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	for _, e := range d.engines {
		if e.Name() != name {
			out = append(out, e)
		}
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
