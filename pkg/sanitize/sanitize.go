// Package sanitize cleans language model output before it is spoken.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	rolePrefix  = regexp.MustCompile(`(?i)^assistant\s*:\s*`)
	parens      = regexp.MustCompile(`\([^)]*\)`)
	brackets    = regexp.MustCompile(`\[[^\]]*\]`)
	braces      = regexp.MustCompile(`\{[^}]*\}`)
	whitespaces = regexp.MustCompile(`\s+`)
)

// Response strips a leading "Assistant:" label and bracketed stage directions
// from raw model output and normalizes whitespace. The steps run in a fixed
// order; reordering them changes the result for inputs like
// "Assistant: (aside) hi".
//
// The result may be empty when the input is entirely removable content.
func Response(raw string) string {
	text := rolePrefix.ReplaceAllString(raw, "")
	text = parens.ReplaceAllString(text, "")
	text = brackets.ReplaceAllString(text, "")
	text = braces.ReplaceAllString(text, "")
	text = whitespaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
