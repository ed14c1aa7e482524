package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/use-agent/sitepulse/models"
)

func structured() models.StoredScrape {
	return models.StoredScrape{
		Kind: models.KindStructured,
		Result: models.ScrapeResult{
			URL:      "https://example.com",
			Title:    "Example Domain",
			HTML:     "<html><body>hi</body></html>",
			Markdown: "<!-- https://example.com -->\nhi\n",
			RelatedPages: []models.RelatedPage{
				{URL: "https://example.com/more", Title: "More", Markdown: "<!-- https://example.com/more -->\nmore\n"},
			},
		},
		ScrapedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRender(t *testing.T) {
	raw := models.StoredScrape{
		Kind:   models.KindRawHTML,
		Result: models.ScrapeResult{URL: "https://example.com", HTML: "plain text"},
	}

	tests := []struct {
		name    string
		stored  models.StoredScrape
		format  string
		check   func(t *testing.T, out string)
		wantErr bool
	}{
		{
			name: "json", stored: structured(), format: formatJSON,
			check: func(t *testing.T, out string) {
				var got models.StoredScrape
				if err := json.Unmarshal([]byte(out), &got); err != nil {
					t.Fatal(err)
				}
				if got.Result.Title != "Example Domain" || got.Kind != models.KindStructured {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name: "yaml omits bodies", stored: structured(), format: formatYAML,
			check: func(t *testing.T, out string) {
				var got summary
				if err := yaml.Unmarshal([]byte(out), &got); err != nil {
					t.Fatal(err)
				}
				if got.URL != "https://example.com" || got.HTMLBytes != 28 || len(got.RelatedPages) != 1 {
					t.Errorf("got %+v", got)
				}
				if strings.Contains(out, "<html>") {
					t.Errorf("html leaked into yaml: %s", out)
				}
			},
		},
		{
			name: "markdown includes related", stored: structured(), format: formatMarkdown,
			check: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "<!-- https://example.com -->") || !strings.Contains(out, "more") {
					t.Errorf("got %q", out)
				}
			},
		},
		{
			name: "html of raw outcome", stored: raw, format: formatHTML,
			check: func(t *testing.T, out string) {
				if out != "plain text" {
					t.Errorf("got %q", out)
				}
			},
		},
		{name: "markdown of raw outcome", stored: raw, format: formatMarkdown, wantErr: true},
		{name: "unknown format", stored: raw, format: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := render(&buf, tt.stored, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, buf.String())
			}
		})
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, structured().Result)
	out := buf.String()
	for _, want := range []string{"https://example.com", "Example Domain", "related:     https://example.com/more (More)"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
