package record

import (
	"strconv"
	"strings"
)

const (
	UnknownAuthor = "Unknown Author"
	UnknownYear   = "N/A"
)

// Record is one bibliographic work as fetched for the session.
type Record struct {
	Title            string
	Authors          []string
	FirstPublishYear *int
	EditionCount     *int
}

// PrimaryAuthor returns the first author or UnknownAuthor.
func (r Record) PrimaryAuthor() string {
	if len(r.Authors) == 0 || r.Authors[0] == "" {
		return UnknownAuthor
	}
	return r.Authors[0]
}

// Year reports the first publication year and whether it is known.
func (r Record) Year() (int, bool) {
	if r.FirstPublishYear == nil {
		return 0, false
	}
	return *r.FirstPublishYear, true
}

// YearLabel returns the year as text or UnknownYear.
func (r Record) YearLabel() string {
	if y, ok := r.Year(); ok {
		return strconv.Itoa(y)
	}
	return UnknownYear
}

// Editions returns the edition count, 1 when absent.
func (r Record) Editions() int {
	if r.EditionCount == nil || *r.EditionCount <= 0 {
		return 1
	}
	return *r.EditionCount
}

// MatchesYear compares the record year with a year label coming from a chart
// or a query string. "2001", " 2001 " and "2001.0" all match 2001.
func (r Record) MatchesYear(label string) bool {
	y, ok := r.Year()
	if !ok {
		return false
	}
	want, ok := ParseYear(label)
	return ok && want == y
}

// ParseYear reads an integral year out of a label.
func ParseYear(label string) (int, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// IntPtr is a convenience for building records by hand.
func IntPtr(v int) *int {
	return &v
}
