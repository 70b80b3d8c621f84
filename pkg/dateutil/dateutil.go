// Package dateutil provides the date arithmetic shared by the tax engine
// and the CLI. Dates travel as strict YYYY-MM-DD strings so identical
// inputs always produce identical results.
package dateutil

import (
	"fmt"
	"time"
)

// DateLayout is the only accepted wire format for dates.
const DateLayout = "2006-01-02"

// ParseDate parses a strict YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// DaysBetween returns the number of whole days from a to b. Negative when
// b precedes a.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
