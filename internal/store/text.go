package store

import (
	"context"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/JonMunkholm/fooddb/internal/logging"
)

// maxDescriptionLength is the width of every description column.
const maxDescriptionLength = 128

// simpleDescription is the accent-free form used for search.
func simpleDescription(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return out
}

// truncate cuts s to maxDescriptionLength characters.
func truncate(s string) (string, bool) {
	if len(s) <= maxDescriptionLength {
		return s, false
	}
	r := []rune(s)
	if len(r) <= maxDescriptionLength {
		return s, false
	}
	return string(r[:maxDescriptionLength]), true
}

// truncateDescription truncates s, logging a warning naming the food when
// anything was cut.
func truncateDescription(ctx context.Context, s, foodCode string) string {
	out, cut := truncate(s)
	if cut {
		logging.FromContext(ctx).Warn("description too long, truncating",
			"food_code", foodCode,
			"description", s,
		)
	}
	return out
}
