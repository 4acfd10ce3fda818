// Package htmltext converts HTML email bodies to plain text for
// storage as conversation content.
package htmltext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"
)

// Converter converts HTML emails to plain text
type Converter struct {
	whitespaceRegex *regexp.Regexp
	newlineRegex    *regexp.Regexp
	invisibleRegex  *regexp.Regexp
}

// NewConverter creates a new HTML to text converter
func NewConverter() *Converter {
	return &Converter{
		whitespaceRegex: regexp.MustCompile(`[^\S\n]+`),
		newlineRegex:    regexp.MustCompile(`\n{3,}`),
		// Remove invisible Unicode characters (zero-width spaces, etc.)
		invisibleRegex: regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{2060}-\x{2064}]+`),
	}
}

// Convert turns HTML into clean plain text. When the document cannot
// be parsed it falls back to a plain tag-stripping pass, so the caller
// always gets some text back for non-empty input.
func (c *Converter) Convert(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		if text, terr := html2text.FromString(html, html2text.Options{TextOnly: true}); terr == nil {
			return strings.TrimSpace(text)
		}
		return strings.TrimSpace(html)
	}

	// Remove non-content elements
	doc.Find("script, style, head, meta, link").Remove()

	// Add newlines before block elements
	doc.Find("p, div, br, h1, h2, h3, h4, h5, h6, li, tr").Each(func(i int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	text := doc.Text()

	text = c.invisibleRegex.ReplaceAllString(text, "")

	// Clean up whitespace but preserve newlines
	text = c.whitespaceRegex.ReplaceAllString(text, " ")

	// Trim each line and drop empty ones
	lines := strings.Split(text, "\n")
	var cleanLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	text = strings.Join(cleanLines, "\n")

	text = c.newlineRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
