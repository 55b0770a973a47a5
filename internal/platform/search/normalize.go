// Package search normalizes free-text search input before it reaches the
// stores, so LIKE patterns match NFC-stored rows even when a client sends
// decomposed sequences.
package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

func Normalize(term string) string {
	return norm.NFC.String(strings.TrimSpace(term))
}
