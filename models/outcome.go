package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outcome is the result of a successful scrape call. It is either
// Structured, when the backend answered with a ScrapeResult document, or
// RawHTML, when the body could not be parsed and was kept as opaque text.
type Outcome interface {
	// Result returns the outcome as a ScrapeResult. For RawHTML only URL
	// and HTML are set.
	Result() ScrapeResult

	// Degraded reports whether structured parsing failed.
	Degraded() bool

	kind() string
}

// Structured wraps a fully parsed backend response.
type Structured struct {
	ScrapeResult ScrapeResult
}

func (s Structured) Result() ScrapeResult { return s.ScrapeResult }
func (Structured) Degraded() bool          { return false }
func (Structured) kind() string            { return KindStructured }

// RawHTML is a body that was not a ScrapeResult document.
type RawHTML struct {
	URL  string
	HTML string
}

func (r RawHTML) Result() ScrapeResult {
	return ScrapeResult{URL: r.URL, HTML: r.HTML}
}
func (RawHTML) Degraded() bool { return true }
func (RawHTML) kind() string   { return KindRawHTML }

// Stored kinds.
const (
	KindStructured = "structured"
	KindRawHTML    = "raw_html"
)

// StoredScrape is the persisted form of an Outcome.
type StoredScrape struct {
	Kind      string       `json:"kind" yaml:"kind"`
	Result    ScrapeResult `json:"result" yaml:"result"`
	ScrapedAt time.Time    `json:"scrapedAt" yaml:"scraped_at"`
}

// NewStoredScrape captures o for persistence.
func NewStoredScrape(o Outcome, at time.Time) StoredScrape {
	return StoredScrape{Kind: o.kind(), Result: o.Result(), ScrapedAt: at}
}

// Outcome rebuilds the tagged value from its stored form.
func (s StoredScrape) Outcome() (Outcome, error) {
	switch s.Kind {
	case KindStructured:
		return Structured{ScrapeResult: s.Result}, nil
	case KindRawHTML:
		return RawHTML{URL: s.Result.URL, HTML: s.Result.HTML}, nil
	default:
		return nil, fmt.Errorf("models: unknown stored kind %q", s.Kind)
	}
}

// MarshalStored encodes o as a StoredScrape JSON document.
func MarshalStored(o Outcome, at time.Time) ([]byte, error) {
	return json.Marshal(NewStoredScrape(o, at))
}
