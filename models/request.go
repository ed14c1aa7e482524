package models

// ScrapeRequest is the payload for POST /scrape.
type ScrapeRequest struct {
	// URL is the target page to scrape. Required. A missing scheme is
	// filled in with https://.
	URL string `json:"url" binding:"required"`

	// RelatedPages is the maximum number of linked pages to scrape
	// alongside the target. Nil means the server default.
	RelatedPages *int `json:"related_pages,omitempty" binding:"omitempty,min=0,max=50"`

	// ExtractMode controls what is converted to Markdown.
	// "raw" (default): the whole page.
	// "readability": the main content found by go-readability.
	ExtractMode string `json:"extract_mode,omitempty" binding:"omitempty,oneof=raw readability"`

	// CSSSelector optionally narrows the HTML before Markdown conversion.
	CSSSelector string `json:"css_selector,omitempty"`

	// Headers are extra request headers sent when fetching the target page,
	// e.g. a cookie for a logged-in view. They override the browser
	// defaults and are not sent to related pages.
	Headers map[string]string `json:"headers,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults(relatedPages int) {
	if r.RelatedPages == nil {
		n := relatedPages
		r.RelatedPages = &n
	}
	if r.ExtractMode == "" {
		r.ExtractMode = "raw"
	}
}

// Output formats for GET /scrape.
const (
	FormatJSON = "json"
	FormatHTML = "html"
)

// ScrapeQuery is the query string of GET /scrape.
type ScrapeQuery struct {
	URL         string `form:"url" binding:"required"`
	Format      string `form:"format" binding:"omitempty,oneof=json html"`
	Related     *int   `form:"related" binding:"omitempty,min=0,max=50"`
	Extract     string `form:"extract" binding:"omitempty,oneof=raw readability"`
	CSSSelector string `form:"selector"`
}

// ToRequest converts q to the POST body shape.
func (q *ScrapeQuery) ToRequest() *ScrapeRequest {
	return &ScrapeRequest{
		URL:          q.URL,
		RelatedPages: q.Related,
		ExtractMode:  q.Extract,
		CSSSelector:  q.CSSSelector,
	}
}
