package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the shortest article text accepted from readability.
const minContentLength = 50

// ExtractContent runs Mozilla Readability on rawHTML. When the URL does not
// parse, readability fails, or the article text is too short, it returns the
// input as Content and false.
func ExtractContent(rawHTML, pageURL string) (readability.Article, bool) {
	parsed, err := nurl.Parse(pageURL)
	if err != nil {
		slog.Warn("readability: invalid page URL", "url", pageURL, "error", err)
		return readability.Article{Content: rawHTML}, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		slog.Warn("readability: extraction failed", "url", pageURL, "error", err)
		return readability.Article{Content: rawHTML}, false
	}

	if n := len(strings.TrimSpace(article.TextContent)); n < minContentLength {
		slog.Debug("readability: article too short, keeping whole page", "url", pageURL, "length", n)
		return readability.Article{Content: rawHTML}, false
	}
	return article, true
}
