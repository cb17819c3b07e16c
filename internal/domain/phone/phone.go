// Package phone validates customer phone numbers submitted with an order.
package phone

import "regexp"

// pattern accepts an optional leading "+", a country code of up to four
// digits, an optional parenthesised area code and up to three further digit
// groups separated by "-", "." or whitespace. Whitespace includes vertical
// tab and the Unicode space separators, so numbers pasted with non-breaking
// or thin spaces are accepted.
var pattern = regexp.MustCompile(`^\+?\d{1,4}?` + sep + `?\(?\d{1,3}?\)?` + sep + `?\d{1,4}` + sep + `?\d{1,4}` + sep + `?\d{1,9}$`)

const sep = `[-.\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]`

// IsValid reports whether s looks like a phone number. The check is purely
// syntactic: no normalization and no locale rules are applied.
func IsValid(s string) bool {
	return pattern.MatchString(s)
}
