package contentservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyFilterMarkdown(t *testing.T) {
	out := ApplyFilter("markdown", "some *emphasis* here")
	assert.Contains(t, out, "<em>emphasis</em>")

	out = ApplyFilter("markdown", "# Heading")
	assert.Contains(t, out, "<h1>Heading</h1>")
}

func TestApplyFilterDefaultsToMarkdown(t *testing.T) {
	out := ApplyFilter("", "plain **bold**")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestApplyFilterPlain(t *testing.T) {
	out := ApplyFilter("plain", "first line\nsecond line\n\nnew paragraph")
	assert.Contains(t, out, "<p>first line<br>second line</p>")
	assert.Contains(t, out, "<p>new paragraph</p>")
}

func TestApplyFilterEscapesPlainText(t *testing.T) {
	out := ApplyFilter("plain", `<b>"quoted"</b>`)
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "&lt;b&gt;")
}

func TestApplyFilterStripsScriptTags(t *testing.T) {
	out := ApplyFilter("markdown", `before <script>alert("x")</script> after`)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "alert")
}
