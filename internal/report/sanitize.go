package report

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// policy is the allow-list for user-authored rich text. Goal details and
// log content arrive as arbitrary markup; anything outside basic
// formatting tags and http/https/mailto links is discarded. This is the
// XSS boundary, so every path that flattens rich text goes through here.
var policy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "p", "br", "div", "span", "ul", "ol", "li")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	return p
}()

// SanitizeHTML strips everything outside the allow-list.
func SanitizeHTML(s string) string {
	return policy.Sanitize(s)
}

// ExtractText sanitizes rich text and flattens it to plain lines: block
// boundaries and <br> become line breaks, embedded newlines are kept, and
// blank lines are dropped.
func ExtractText(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	z := html.NewTokenizer(strings.NewReader(SanitizeHTML(s)))
	var b strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.TextToken:
			b.WriteString(z.Token().Data)
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "p", "div", "li", "ul", "ol":
				b.WriteByte('\n')
			}
		}
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
