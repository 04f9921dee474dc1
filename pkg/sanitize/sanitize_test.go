package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_StripsMarkup(t *testing.T) {
	assert.Equal(t, "", Text(""))
	assert.Equal(t, "Live jazz tonight", Text("<p>Live <b>jazz</b>\n tonight</p>"))
	assert.Equal(t, "Tom & Jerry", Text("Tom &amp; Jerry"))
	assert.NotContains(t, Text(`<script>alert("x")</script>hello`), "<script>")
}

func TestHTML_RemovesScriptsKeepsFormatting(t *testing.T) {
	out := HTML(`<p><strong>Bold</strong></p><script>alert('xss')</script>`)
	assert.Equal(t, "<p><strong>Bold</strong></p>", out)

	out = HTML(`<a href="javascript:alert(1)">Click</a>`)
	assert.NotContains(t, out, "javascript:")
}

func TestTrimWords(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := TrimWords(long, 30)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Len(t, strings.Fields(strings.TrimSuffix(got, "…")), 30)

	assert.Equal(t, "short one", TrimWords("<em>short</em> one", 30))
	assert.Equal(t, "a b c", TrimWords("a b c", 0))
}
