package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// newMarkdownConverter builds the shared converter. The base plugin drops
// script, style, iframe and noscript; tables keep minimal padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// SourceComment is the first line of every Markdown document.
func SourceComment(pageURL string) string {
	return "<!-- " + pageURL + " -->"
}

// ToMarkdown converts htmlContent to Markdown with links resolved against
// pageURL, prefixed with SourceComment.
func ToMarkdown(conv *converter.Converter, htmlContent, pageURL string) (string, error) {
	md, err := conv.ConvertString(htmlContent, converter.WithDomain(pageURL))
	if err != nil {
		return "", err
	}
	return SourceComment(pageURL) + "\n" + strings.TrimSpace(md) + "\n", nil
}
