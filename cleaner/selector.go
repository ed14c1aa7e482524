package cleaner

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ApplyCSSSelector returns the outer HTML of every element in rawHTML that
// matches selector, in document order. With no match the page is returned
// unchanged. An invalid selector is an error.
func ApplyCSSSelector(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	nodes := sel.MatchAll(doc)
	if len(nodes) == 0 {
		return rawHTML, nil
	}

	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}
