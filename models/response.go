package models

// ScrapeResult is the structured body returned by GET and POST /scrape.
type ScrapeResult struct {
	// URL is the page that was scraped.
	URL string `json:"url"`

	// Title is the <title> text of the page.
	Title string `json:"title"`

	// Description is the meta description, or a readability excerpt
	// when the page has none.
	Description string `json:"description,omitempty"`

	// HTML is the raw page HTML as fetched.
	HTML string `json:"html"`

	// Markdown is the page converted to Markdown, prefixed with an
	// HTML comment naming the source URL.
	Markdown string `json:"markdown"`

	// RelatedPages are secondary pages discovered from the page's links,
	// in document order.
	RelatedPages []RelatedPage `json:"relatedPages"`

	// Language is the detected ISO 639-3 language of the page text.
	Language string `json:"language,omitempty"`
}

// RelatedPage is one page discovered while scraping.
type RelatedPage struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// BackendStatus classifies reachability of the scrape backend.
type BackendStatus string

const (
	StatusChecking BackendStatus = "checking"
	StatusOnline   BackendStatus = "online"
	StatusOffline  BackendStatus = "offline"
)
