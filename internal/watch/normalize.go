package watch

import "strings"

// descriptionFingerprintCap bounds how much of a description participates in
// fingerprinting. Listings often rotate trailing boilerplate; hashing the
// full text would churn fingerprints without the posting actually changing.
const descriptionFingerprintCap = 200

// NormalizeField collapses whitespace runs to single spaces and trims the
// result. An absent value normalizes to the empty string. Idempotent.
func NormalizeField(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capRunes truncates s to at most n runes.
func capRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
