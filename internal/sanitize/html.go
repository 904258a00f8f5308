// Package sanitize strips unsafe markup from user supplied content.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes every tag. Used for titles, names and labels.
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy keeps safe formatting. Used for blog bodies and long
	// descriptions written in the admin editor.
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all tags and returns plain text with entities decoded and
// surrounding whitespace trimmed. The result is not HTML: whoever renders it
// escapes it.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// HTML removes scripts, event handlers and other unsafe markup while keeping
// basic formatting.
func HTML(input string) string {
	return strings.TrimSpace(UGCPolicy.Sanitize(input))
}

// TextSlice applies Text to every element and drops the ones left empty.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if cleaned := Text(input); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// TextPtr sanitizes the pointed-to string in place.
func TextPtr(input *string) {
	if input != nil {
		*input = Text(*input)
	}
}
