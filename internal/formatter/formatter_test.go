package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

func TestSanitize(t *testing.T) {
	f := NewTextFormatter(false)

	assert.Equal(t, "<b>hi</b> there", f.Sanitize("<b>hi</b> there"))
	assert.Equal(t, "1 &lt; 2 &amp; 3", f.Sanitize("1 < 2 & 3"))
	assert.Equal(t, "alert", f.Sanitize("<script>x</script><div>alert</div>"))
	assert.Equal(t, `<a href="https://example.com">link</a>`, f.Sanitize(`<a href="https://example.com" onclick="x()">link</a>`))
}

func TestSanitize_Shortcodes(t *testing.T) {
	assert.Equal(t, "nice :thumbsup:", NewTextFormatter(false).Sanitize("nice :thumbsup:"))
	assert.NotContains(t, NewTextFormatter(true).Sanitize("nice :thumbsup:"), ":thumbsup:")
}

func TestFormat_ImagePassThrough(t *testing.T) {
	img := interfaces.MessagePart{Kind: interfaces.PartImagePath, Path: "/imgs/a.png"}
	assert.Equal(t, []interfaces.MessagePart{img}, NewTextFormatter(false).Format(img))
}

func TestFormatAll(t *testing.T) {
	parts := NewTextFormatter(false).FormatAll([]interfaces.MessagePart{
		{Kind: interfaces.PartImageURL, URL: "http://h/a.png"},
		interfaces.TextPart("a & b"),
	})
	require.Len(t, parts, 2)
	assert.Equal(t, "a &amp; b", parts[1].Text)
	assert.Equal(t, "HTML", parts[1].ParseMode)
}

func TestSplitMessage(t *testing.T) {
	assert.Nil(t, SplitMessage("", "HTML"))

	short := SplitMessage("hello", "HTML")
	require.Len(t, short, 1)
	assert.Equal(t, "hello", short[0].Text)

	long := strings.Repeat("я", MaxMessageLength+10)
	parts := SplitMessage(long, "HTML")
	require.Len(t, parts, 2)
	assert.Len(t, []rune(parts[0].Text), MaxMessageLength)
	assert.Len(t, []rune(parts[1].Text), 10)

	withBreak := strings.Repeat("a", MaxMessageLength-100) + "\n" + strings.Repeat("b", 200)
	parts = SplitMessage(withBreak, "HTML")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasSuffix(parts[0].Text, "\n"))
	assert.Equal(t, strings.Repeat("b", 200), parts[1].Text)
}
