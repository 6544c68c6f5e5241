package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes a name for case-insensitive comparison. A new Caser is
// built per call because Casers are not safe for concurrent use.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}

// EqualFold reports whether two names are equal after normalization.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
