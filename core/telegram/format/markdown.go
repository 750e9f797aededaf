// Package format escapes user and provider text for Telegram MarkdownV2.
package format

import "strings"

// v2Special lists the characters MarkdownV2 reserves outside entities.
const v2Special = "\\_*[]()~`>#+-=|{}.!"

var v2Replacer = newEscaper(v2Special)

func newEscaper(chars string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(chars))
	for _, r := range chars {
		pairs = append(pairs, string(r), "\\"+string(r))
	}
	return strings.NewReplacer(pairs...)
}

// EscapeV2 escapes plain text for a MarkdownV2 message body, e.g. a town
// name or a temperature like 12.5.
func EscapeV2(text string) string {
	return v2Replacer.Replace(text)
}

