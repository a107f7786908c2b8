package rawg

import (
	"strings"

	"golang.org/x/net/html"
)

const ellipsis = "..."

// Describe picks the plain-text description and caps it at limit
// characters, trimming only the cut text before the ellipsis. An empty
// result becomes MissingDescription; whitespace is kept as sent.
func Describe(raw, htmlDescription string, limit int) string {
	desc := raw
	if desc == "" && htmlDescription != "" {
		desc = StripHTML(htmlDescription)
	}

	if limit > 0 {
		if runes := []rune(desc); len(runes) > limit {
			desc = strings.TrimSpace(string(runes[:limit])) + ellipsis
		}
	}

	if desc == "" {
		return MissingDescription
	}
	return desc
}

// StripHTML returns the text content of an HTML fragment
func StripHTML(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; keep what was read
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name string) bool {
	return name == "script" || name == "style"
}
