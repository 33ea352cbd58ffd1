package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var dateTokenRe = regexp.MustCompile(`^\s*(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2}|\d{4})\s*$`)

// DateWindow accepts day/month/year tokens whose year falls inside
// [MinYear, MaxYear]. Years outside are treated as mis-parsed.
type DateWindow struct {
	MinYear int
	MaxYear int
}

// Normalize validates a D/M/Y token (separators '/', '-' or '.', two or
// four digit year) and returns it as DD/MM/YYYY. Impossible calendar dates
// and years outside the window are rejected.
func (w DateWindow) Normalize(token string) (string, bool) {
	m := dateTokenRe.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}

	if !w.Contains(year) {
		return "", false
	}
	if month < 1 || month > 12 || day < 1 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year), true
}

// Contains reports whether year is inside the window
func (w DateWindow) Contains(year int) bool {
	return year >= w.MinYear && year <= w.MaxYear
}
