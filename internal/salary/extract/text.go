package extract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "td": true, "th": true, "table": true, "section": true,
	"article": true, "header": true, "footer": true, "dd": true, "dt": true,
	"hr": true, "blockquote": true,
}

// decodeMarkup unescapes markup that arrived entity-encoded as a whole
// (&lt;div&gt;...), which some ATS APIs return.
func decodeMarkup(s string) string {
	if n := strings.Count(s, "&lt;"); n > 0 && n >= strings.Count(s, "<") {
		return html.UnescapeString(s)
	}
	return s
}

// PlainText strips tags from markup and returns whitespace-normalized text.
// Script and style content is dropped and block elements become spaces.
// Entities are decoded twice to cover double-encoded input.
func PlainText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(decodeMarkup(markup)))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapse(html.UnescapeString(b.String()))
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			}
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// window returns s[start:end] clamped to the string and moved onto rune boundaries.
func window(s string, start, end int) string {
	start = max(0, start)
	end = min(len(s), end)
	for start > 0 && start < len(s) && !utf8.RuneStart(s[start]) {
		start--
	}
	for end < len(s) && !utf8.RuneStart(s[end]) {
		end++
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}
