package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"
)

// Metadata is what the cleaner reads from the page head and body.
type Metadata struct {
	Title       string
	Description string

	// Text is a whitespace-collapsed sample for language detection:
	// title, description and the first 100 body words.
	Text string
}

// ExtractMetadata reads <title>, meta[name=description] and a text sample.
func ExtractMetadata(rawHTML string) Metadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Metadata{}
	}

	var m Metadata
	m.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if val, ok := doc.Find("meta[name='description']").Attr("content"); ok {
		m.Description = strings.TrimSpace(val)
	}

	doc.Find("script, style, noscript").Remove()
	words := strings.Fields(doc.Find("body").Text())
	if len(words) > 100 {
		words = words[:100]
	}
	m.Text = strings.TrimSpace(m.Title + " " + m.Description + " " + strings.Join(words, " "))
	return m
}

// DetectLanguage returns the ISO 639-3 code of text, or "" when the guess is
// not reliable.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6393()
}
