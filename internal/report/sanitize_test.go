package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeHTML_StripsScripts(t *testing.T) {
	out := SanitizeHTML(`<script>alert(1)</script><b>bold</b> plain`)
	require.NotContains(t, out, "script")
	require.NotContains(t, out, "alert")
	require.Contains(t, out, "<b>bold</b>")
}

func TestSanitizeHTML_RestrictsURLSchemes(t *testing.T) {
	out := SanitizeHTML(`<a href="javascript:steal()">click</a>`)
	require.NotContains(t, strings.ToLower(out), "javascript")

	out = SanitizeHTML(`<a href="https://example.com">ok</a>`)
	require.Contains(t, out, `href="https://example.com"`)
}

func TestSanitizeHTML_DropsEventHandlers(t *testing.T) {
	out := SanitizeHTML(`<b onclick="x()">hi</b>`)
	require.NotContains(t, out, "onclick")
	require.Contains(t, out, "hi")
}

func TestExtractText_FlattensBlocks(t *testing.T) {
	require.Equal(t, []string{"one", "two"}, ExtractText("<p>one</p><p>two</p>"))
	require.Equal(t, []string{"a", "b"}, ExtractText("a<br>b"))
	require.Equal(t, []string{"first", "second"}, ExtractText("<ul><li>first</li><li>second</li></ul>"))
}

func TestExtractText_KeepsPlainNewlines(t *testing.T) {
	require.Equal(t, []string{"line1", "line2"}, ExtractText("line1\nline2"))
}

func TestExtractText_EmptyAndWhitespace(t *testing.T) {
	require.Nil(t, ExtractText(""))
	require.Nil(t, ExtractText("   \n "))
	require.Nil(t, ExtractText("<script>evil()</script>"))
}

func TestExtractText_UnescapesEntities(t *testing.T) {
	require.Equal(t, []string{"a < b & c"}, ExtractText("a &lt; b &amp; c"))
}
