// Package cleaner turns a fetched HTML page into a ScrapeResult.
package cleaner

import (
	"fmt"
	"log/slog"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/use-agent/sitepulse/models"
)

// Extract modes.
const (
	ExtractRaw         = "raw"
	ExtractReadability = "readability"
)

// Cleaner runs the cleaning pipeline. The Markdown converter is built once
// and shared; Cleaner is safe for concurrent use.
type Cleaner struct {
	md *converter.Converter
}

// New creates a Cleaner.
func New() *Cleaner {
	return &Cleaner{md: newMarkdownConverter()}
}

// Options tune one Clean call.
type Options struct {
	// ExtractMode is ExtractRaw (whole page, default) or ExtractReadability.
	ExtractMode string

	// CSSSelector narrows the Markdown to matching elements.
	CSSSelector string
}

// Clean builds a ScrapeResult for rawHTML fetched from pageURL.
//
// Flow:
//  1. Title and meta description come from the whole page.
//  2. The optional CSS selector narrows the content.
//  3. Readability mode keeps the main article; its excerpt fills a missing
//     description.
//  4. The content is converted to Markdown and prefixed with the page URL.
//  5. The language is detected from the page text.
//
// HTML in the result is always the full page as fetched.
func (c *Cleaner) Clean(rawHTML, pageURL string, opts Options) (*models.ScrapeResult, error) {
	meta := ExtractMetadata(rawHTML)

	content := rawHTML
	if opts.CSSSelector != "" {
		narrowed, err := ApplyCSSSelector(rawHTML, opts.CSSSelector)
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
				fmt.Sprintf("invalid css_selector %q", opts.CSSSelector), err)
		}
		content = narrowed
	}

	switch opts.ExtractMode {
	case ExtractReadability:
		article, ok := ExtractContent(content, pageURL)
		content = article.Content
		if meta.Description == "" && ok {
			meta.Description = article.Excerpt
		}
		if meta.Title == "" && ok {
			meta.Title = article.Title
		}
	case ExtractRaw, "":
	default:
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown extract mode %q", opts.ExtractMode), nil)
	}

	md, err := ToMarkdown(c.md, content, pageURL)
	if err != nil {
		slog.Warn("markdown conversion failed", "url", pageURL, "error", err)
		return nil, models.NewScrapeError(models.ErrCodeInternal, "markdown conversion failed", err)
	}

	return &models.ScrapeResult{
		URL:          pageURL,
		Title:        meta.Title,
		Description:  meta.Description,
		HTML:         rawHTML,
		Markdown:     md,
		RelatedPages: []models.RelatedPage{},
		Language:     DetectLanguage(meta.Text),
	}, nil
}

// Markdown converts rawHTML from pageURL to prefixed Markdown. It is the
// cheap path used for related pages.
func (c *Cleaner) Markdown(rawHTML, pageURL string) (string, error) {
	return ToMarkdown(c.md, rawHTML, pageURL)
}
