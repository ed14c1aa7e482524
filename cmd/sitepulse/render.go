package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/use-agent/sitepulse/models"
)

const (
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

// summary is the YAML view of a stored scrape. Page bodies are left out.
type summary struct {
	Kind         string           `yaml:"kind"`
	URL          string           `yaml:"url"`
	Title        string           `yaml:"title,omitempty"`
	Description  string           `yaml:"description,omitempty"`
	Language     string           `yaml:"language,omitempty"`
	ScrapedAt    time.Time        `yaml:"scraped_at"`
	HTMLBytes    int              `yaml:"html_bytes"`
	RelatedPages []relatedSummary `yaml:"related_pages,omitempty"`
}

type relatedSummary struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
}

func render(w io.Writer, stored models.StoredScrape, format string) error {
	res := stored.Result
	switch format {
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stored)
	case formatYAML:
		s := summary{
			Kind:        stored.Kind,
			URL:         res.URL,
			Title:       res.Title,
			Description: res.Description,
			Language:    res.Language,
			ScrapedAt:   stored.ScrapedAt,
			HTMLBytes:   len(res.HTML),
		}
		for _, p := range res.RelatedPages {
			s.RelatedPages = append(s.RelatedPages, relatedSummary{URL: p.URL, Title: p.Title})
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case formatMarkdown:
		if stored.Kind == models.KindRawHTML {
			return fmt.Errorf("no markdown saved: the last scrape was kept as raw HTML")
		}
		_, err := io.WriteString(w, res.Markdown)
		if err != nil {
			return err
		}
		for _, p := range res.RelatedPages {
			if _, err := io.WriteString(w, "\n"+p.Markdown); err != nil {
				return err
			}
		}
		return nil
	case formatHTML:
		_, err := io.WriteString(w, res.HTML)
		return err
	default:
		return fmt.Errorf("unknown format %q (want json, yaml, markdown or html)", format)
	}
}
