// Package dateutils normalises the free-form dates found in bank exports to
// the DD.MM.YYYY display form.
package dateutils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fjacquet/ekstre-csv/internal/models"
)

// DisplayLayout is the canonical date rendering.
const DisplayLayout = "02.01.2006"

// ErrUnparseableDate is returned when no layout and no loose pattern match.
var ErrUnparseableDate = errors.New("unparseable date")

// Layouts are tried in order. Day-first layouts precede month-first ones.
var Layouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2006-1-2",
	"2006/1/2",
	"2.1.2006",
	"1/2/2006",
	"2/1/06",
	"20060102",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2-Jan-2006",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

var loosePattern = regexp.MustCompile(`(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})`)

// ParseDate parses s. It tries, in order: the whole string, its first
// whitespace separated field, and the part before the first '-', ' ' or ';'
// with any time suffix removed, against every layout; then a loose
// day/month/year pattern.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrUnparseableDate
	}

	datePart := splitDatePart(s)
	candidates := []string{s}
	if fields := strings.Fields(s); len(fields) > 1 {
		candidates = append(candidates, fields[0])
	}
	if datePart != s {
		candidates = append(candidates, datePart)
	}
	for _, c := range candidates {
		if t, ok := parseLayouts(c); ok {
			return t, nil
		}
	}

	for _, c := range []string{datePart, s} {
		if t, ok := parseLoose(c); ok {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
}

// splitDatePart cuts s at the first of '-', ' ', ';' (checked in that
// order) and drops a trailing time component after ':'.
func splitDatePart(s string) string {
	for _, sep := range []string{"-", " ", ";"} {
		if strings.Contains(s, sep) {
			s = strings.SplitN(s, sep, 2)[0]
			break
		}
	}
	if strings.Contains(s, ":") {
		s = strings.SplitN(s, ":", 2)[0]
	}
	return strings.TrimSpace(s)
}

func parseLayouts(s string) (time.Time, bool) {
	for _, layout := range Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseLoose(s string) (time.Time, bool) {
	m := loosePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	yearStr := m[3]
	if len(yearStr) == 2 {
		yearStr = "20" + yearStr
	}
	year, _ := strconv.Atoi(yearStr)

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// Normalize renders s as DD.MM.YYYY. When s cannot be parsed it is returned
// unchanged with ok=false.
func Normalize(s string) (string, bool) {
	t, err := ParseDate(s)
	if err != nil {
		return s, false
	}
	return t.Format(DisplayLayout), true
}

// NormalizeCell is Normalize for a raw table cell.
func NormalizeCell(c models.Cell) (string, bool) {
	if c.IsEmpty() {
		return "", false
	}
	return Normalize(c.String())
}

// Bucket maps a day of month onto the voucher grouping day: 1-10 → 10,
// 11-20 → 20, anything later → 31.
func Bucket(day int) int {
	switch {
	case day <= 10:
		return 10
	case day <= 20:
		return 20
	default:
		return 31
	}
}

// Group renders s as DD.MM.YYYY with the day replaced by its Bucket. The
// result is not necessarily a calendar date ("31.02.2025"). Unparseable
// input is returned unchanged with ok=false.
func Group(s string) (string, bool) {
	t, err := ParseDate(s)
	if err != nil {
		return s, false
	}
	return fmt.Sprintf("%02d.%02d.%04d", Bucket(t.Day()), int(t.Month()), t.Year()), true
}
