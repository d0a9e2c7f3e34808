package contentservice

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultFilter is applied when neither the content nor its owner names one.
const DefaultFilter = "markdown"

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Linkify),
)

var scriptTagPattern = regexp.MustCompile(`(?i)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)

// ApplyFilter runs the named text transform over body text for display.
// Unknown filter names fall back to plain text rather than erroring, so a
// stale filter column can never break rendering.
func ApplyFilter(name, text string) string {
	text = scriptTagPattern.ReplaceAllString(text, "")

	switch name {
	case "markdown", "":
		var buf bytes.Buffer
		if err := md.Convert([]byte(text), &buf); err != nil {
			return plainToHTML(text)
		}
		return buf.String()
	default:
		return plainToHTML(text)
	}
}

func plainToHTML(text string) string {
	escaped := template.HTMLEscapeString(text)
	paragraphs := strings.Split(escaped, "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = "<p>" + strings.ReplaceAll(strings.TrimSpace(p), "\n", "<br>") + "</p>"
	}
	return strings.Join(paragraphs, "\n")
}
