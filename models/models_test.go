package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", NewScrapeError(ErrCodeTimeout, "deadline", nil), MsgTimeout},
		{"network", NewScrapeError(ErrCodeNetworkError, "dial tcp: refused", nil), MsgNetwork},
		{"canceled", NewScrapeError(ErrCodeCanceled, "", nil), MsgCanceled},
		{"server keeps message", NewStatusError(ErrCodeServerError, "Internal Server Error", 500), "Internal Server Error"},
		{"wrapped", fmt.Errorf("client: %w", NewStatusError(ErrCodeClientError, "Page not found", 404)), "Page not found"},
		{"empty message", NewScrapeError(ErrCodeClientError, "", nil), "An error occurred"},
		{"foreign error", errors.New("boom"), "An error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	for code, want := range map[string]bool{
		ErrCodeServerError:  true,
		ErrCodeNetworkError: true,
		ErrCodeTimeout:      false,
		ErrCodeClientError:  false,
		ErrCodeCanceled:     false,
		ErrCodeInvalidURL:   false,
	} {
		if got := Retryable(code); got != want {
			t.Errorf("Retryable(%s) = %v, want %v", code, got, want)
		}
	}
}

func TestScrapeError_Error(t *testing.T) {
	cause := errors.New("eof")
	err := &ScrapeError{Code: ErrCodeServerError, Message: "bad gateway", Status: 502, Err: cause}
	if got, want := err.Error(), "SERVER_ERROR: bad gateway (status 502): eof"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not unwrapped")
	}
	if CodeOf(errors.New("x")) != ErrCodeInternal {
		t.Error("foreign error should map to INTERNAL_ERROR")
	}
}

func TestStoredScrape_Outcome(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, o := range []Outcome{
		Structured{ScrapeResult: ScrapeResult{URL: "https://example.com", Title: "Example"}},
		RawHTML{URL: "https://example.com", HTML: "<p>x</p>"},
	} {
		b, err := MarshalStored(o, at)
		if err != nil {
			t.Fatal(err)
		}
		var stored StoredScrape
		if err := json.Unmarshal(b, &stored); err != nil {
			t.Fatal(err)
		}
		got, err := stored.Outcome()
		if err != nil {
			t.Fatal(err)
		}
		if got.Degraded() != o.Degraded() || got.Result().URL != o.Result().URL {
			t.Errorf("rebuilt %#v from %#v", got, o)
		}
		if !stored.ScrapedAt.Equal(at) {
			t.Errorf("scrapedAt = %v", stored.ScrapedAt)
		}
	}

	if _, err := (StoredScrape{Kind: "pdf"}).Outcome(); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestScrapeRequest_Defaults(t *testing.T) {
	var r ScrapeRequest
	r.Defaults(3)
	if r.RelatedPages == nil || *r.RelatedPages != 3 || r.ExtractMode != "raw" {
		t.Errorf("defaults = %+v", r)
	}

	zero := 0
	r = ScrapeRequest{RelatedPages: &zero, ExtractMode: "readability"}
	r.Defaults(3)
	if *r.RelatedPages != 0 || r.ExtractMode != "readability" {
		t.Errorf("explicit values overwritten: %+v", r)
	}
}
