package event

import (
	"strings"
	"time"
)

// ISODateLayout is the format of DayGroup.DateISO
const ISODateLayout = "2006-01-02"

// NormalizeDate converts a day heading such as "FRIDAY, Feb. 7" into an ISO date.
// The page carries no year, so the year of now is used and Feb 29 is accepted only
// when that year is a leap year. Returns None when the heading has no ", " or the
// month/day part cannot be parsed.
func NormalizeDate(label string, now time.Time) Optional[string] {
	parts := strings.Split(label, ", ")
	if len(parts) < 2 {
		return None[string]()
	}

	monthDay := strings.TrimSpace(strings.ReplaceAll(parts[1], ".", ""))

	// Month abbreviations are matched case-insensitively by time.Parse
	t, err := time.Parse("Jan 2", monthDay)
	if err != nil {
		return None[string]()
	}

	date := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if date.Month() != t.Month() {
		// Feb 29 outside a leap year
		return None[string]()
	}

	return Some(date.Format(ISODateLayout))
}

// IsSameDay reports whether a and b fall on the same calendar day
func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
