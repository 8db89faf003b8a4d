package timeline

import (
	"sort"
	"strconv"

	"subjectview/internal/record"
)

// YearCount is the number of records first published in Year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

func (c YearCount) Label() string {
	return strconv.Itoa(c.Year)
}

// CountsByYear buckets records by first publication year, ascending by year.
// Records without a year fall in no bucket.
func CountsByYear(records []record.Record) []YearCount {
	buckets := make(map[int]int)
	for _, r := range records {
		if y, ok := r.Year(); ok {
			buckets[y]++
		}
	}

	out := make([]YearCount, 0, len(buckets))
	for y, n := range buckets {
		out = append(out, YearCount{Year: y, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Total sums the bucket counts, which is the number of dated records.
func Total(counts []YearCount) int {
	n := 0
	for _, c := range counts {
		n += c.Count
	}
	return n
}

// Series is the labelled input of a chart drawing service.
type Series struct {
	Name       string
	Categories []string
	Values     []int
}

func SeriesOf(name string, counts []YearCount) Series {
	s := Series{
		Name:       name,
		Categories: make([]string, len(counts)),
		Values:     make([]int, len(counts)),
	}
	for i, c := range counts {
		s.Categories[i] = c.Label()
		s.Values[i] = c.Count
	}
	return s
}
