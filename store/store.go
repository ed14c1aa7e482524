// Package store holds small key/value state that outlives one process,
// such as the last scrape result shown by the display surface.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/sitepulse/config"
)

// ErrNotFound is returned by Get when the key has never been set or was
// deleted.
var ErrNotFound = errors.New("store: key not found")

// Store is a flat key/value map. Set overwrites; there is no locking across
// callers beyond what keeps a single operation consistent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the driver selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemory(), nil
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		slog.Debug("sqlite store opened", "path", s.Path())
		return s, nil
	case "redis":
		return OpenRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
