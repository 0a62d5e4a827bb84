// Package textutil contains small text helpers shared by the discussion
// protocol. This lives in internal to avoid committing to public API
// stability prematurely.
package textutil

import "strings"

// TruncationMarker is appended whenever text is cut.
const TruncationMarker = "..."

// TruncateWords bounds text to at most max words. Text within the bound is
// returned unchanged, so the operation is idempotent. The second return value
// reports whether a cut was made.
func TruncateWords(text string, max int) (string, bool) {
	words := strings.Fields(text)
	if len(words) <= max {
		return text, false
	}
	return strings.Join(words[:max], " ") + TruncationMarker, true
}

// Excerpt bounds text to at most max runes, appending the truncation marker
// when cut. Used to pass the previous speaker's contribution to the next
// agent without growing prompts unboundedly.
func Excerpt(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + TruncationMarker
}
