// Package session scopes the state shared between the scrape orchestrator,
// which writes it, and display surfaces, which only read it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/use-agent/sitepulse/models"
	"github.com/use-agent/sitepulse/store"
)

// Keys held by a session.
const (
	KeyWebsite      = "website"
	KeyScrapeResult = "scrapeResult"
)

// ErrEmpty is returned when the requested value has not been written yet.
var ErrEmpty = errors.New("session: nothing stored")

// Session reads and writes the website URL and the last scrape result.
type Session struct {
	store store.Store
	now   func() time.Time
}

// New wraps s. The caller keeps ownership of s and closes it.
func New(s store.Store) *Session {
	return &Session{store: s, now: time.Now}
}

// SetWebsite records the normalized website URL.
func (s *Session) SetWebsite(ctx context.Context, url string) error {
	return s.store.Set(ctx, KeyWebsite, []byte(url))
}

// Website returns the recorded website URL.
func (s *Session) Website(ctx context.Context) (string, error) {
	b, err := s.store.Get(ctx, KeyWebsite)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SaveScrape overwrites the last scrape result with o.
func (s *Session) SaveScrape(ctx context.Context, o models.Outcome) error {
	b, err := models.MarshalStored(o, s.now().UTC())
	if err != nil {
		return fmt.Errorf("session: encode scrape: %w", err)
	}
	return s.store.Set(ctx, KeyScrapeResult, b)
}

// LastScrape returns the most recently saved scrape result.
func (s *Session) LastScrape(ctx context.Context) (models.StoredScrape, error) {
	var stored models.StoredScrape
	b, err := s.store.Get(ctx, KeyScrapeResult)
	if errors.Is(err, store.ErrNotFound) {
		return stored, ErrEmpty
	}
	if err != nil {
		return stored, err
	}
	if err := json.Unmarshal(b, &stored); err != nil {
		return stored, fmt.Errorf("session: decode scrape: %w", err)
	}
	return stored, nil
}

// HasWebsite reports whether a website URL has been recorded.
func (s *Session) HasWebsite(ctx context.Context) bool {
	_, err := s.Website(ctx)
	return err == nil
}

// Clear removes both keys.
func (s *Session) Clear(ctx context.Context) error {
	return errors.Join(
		s.store.Delete(ctx, KeyWebsite),
		s.store.Delete(ctx, KeyScrapeResult),
	)
}
