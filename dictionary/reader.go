package dictionary

import (
	"regexp"
	"strings"
)

// Reader is a read-only, fully-materialized view of a dictionary, as loaded
// from its value file (and optionally its segment-index file). It is
// lock-free and shares no mutable state with any Writer (§5).
type Reader struct {
	entries []Entry
	byValue map[string]int64
}

// NewReader builds a Reader from entries loaded via ReadValues (and
// optionally merged with ReadSegIndex).
func NewReader(entries []Entry) *Reader {
	byValue := make(map[string]int64, len(entries))
	for _, e := range entries {
		byValue[e.Value] = e.ID
	}

	return &Reader{entries: entries, byValue: byValue}
}

// GetValue returns the interned string for id.
func (r *Reader) GetValue(id int64) (string, bool) {
	if id < 0 || int(id) >= len(r.entries) {
		return "", false
	}

	return r.entries[id].Value, true
}

// GetEntry returns the full entry for id.
func (r *Reader) GetEntry(id int64) (Entry, bool) {
	if id < 0 || int(id) >= len(r.entries) {
		return Entry{}, false
	}

	return r.entries[id], true
}

// GetEntryMatchingValue finds the entry whose value equals s, optionally
// ignoring case.
func (r *Reader) GetEntryMatchingValue(s string, ignoreCase bool) (Entry, bool) {
	if !ignoreCase {
		id, ok := r.byValue[s]
		if !ok {
			return Entry{}, false
		}

		return r.entries[id], true
	}

	for _, e := range r.entries {
		if strings.EqualFold(e.Value, s) {
			return e, true
		}
	}

	return Entry{}, false
}

// GetEntriesMatchingWildcard finds every entry whose value matches pattern,
// a glob using '*' (any run of characters) and '?' (any single character).
func (r *Reader) GetEntriesMatchingWildcard(pattern string, ignoreCase bool) []Entry {
	re := wildcardToRegexp(pattern, ignoreCase)

	var matches []Entry
	for _, e := range r.entries {
		if re.MatchString(e.Value) {
			matches = append(matches, e)
		}
	}

	return matches
}

func wildcardToRegexp(pattern string, ignoreCase bool) *regexp.Regexp {
	var b strings.Builder
	if ignoreCase {
		b.WriteString("(?i)")
	}
	b.WriteByte('^')
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')

	return regexp.MustCompile(b.String())
}

// Len returns the number of entries in the reader.
func (r *Reader) Len() int {
	return len(r.entries)
}
