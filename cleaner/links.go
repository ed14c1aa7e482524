package cleaner

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RelatedLinks returns the https links of a page as absolute URLs with query
// and fragment removed, in document order, without duplicates and without
// the page itself.
func RelatedLinks(rawHTML, pageURL string) []string {
	links := []string{}

	base, err := url.Parse(pageURL)
	if err != nil {
		return links
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return links
	}

	seen := map[string]struct{}{stripURL(base): {}}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil || resolved.Scheme != "https" || resolved.Host == "" {
			return
		}
		link := stripURL(resolved)
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}

func stripURL(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	c.ForceQuery = false
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
