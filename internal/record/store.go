package record

import "slices"

// Store holds the records fetched for one page session. Load replaces the
// whole set; nothing else mutates it.
type Store struct {
	records []Record
}

func NewStore() *Store {
	return &Store{}
}

// Load replaces the stored set. Calling it again simply replaces it.
func (s *Store) Load(records []Record) {
	s.records = cloneAll(records)
}

// All returns the stored records in fetch order. Callers get their own copy,
// author lists included.
func (s *Store) All() []Record {
	return cloneAll(s.records)
}

func (s *Store) Len() int {
	return len(s.records)
}

// ByYear returns the records whose publication year matches the label,
// preserving fetch order.
func (s *Store) ByYear(label string) []Record {
	out := make([]Record, 0)
	for _, r := range s.records {
		if r.MatchesYear(label) {
			out = append(out, r.clone())
		}
	}
	return out
}

func (r Record) clone() Record {
	r.Authors = slices.Clone(r.Authors)
	if r.FirstPublishYear != nil {
		r.FirstPublishYear = IntPtr(*r.FirstPublishYear)
	}
	if r.EditionCount != nil {
		r.EditionCount = IntPtr(*r.EditionCount)
	}
	return r
}

func cloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}
