// Package tspattern implements the small timestamp-pattern search library
// referenced throughout MessageParser.cpp's TimestampPattern lookups but
// not retained in the distilled spec. A Cache tries a file's last
// successfully-matched pattern before falling back to the full library, so
// a stream of uniformly-formatted log lines only searches once.
package tspattern

import (
	"strconv"
	"time"
)

// Pattern is one recognized timestamp format: a human-readable name and the
// Go time layout used to parse/format it. The byte range a match occupies
// is reported on Match, not stored here.
type Pattern struct {
	Name   string
	Layout string
}

// Known is the library of recognized timestamp formats, tried in order.
// Longer, more specific layouts are tried before shorter ones that could
// spuriously match a prefix of them.
var Known = []Pattern{
	{"rfc3339nano", time.RFC3339Nano},
	{"rfc3339", time.RFC3339},
	{"syslog", "Jan _2 15:04:05"},
	{"space_sep", "2006-01-02 15:04:05.000"},
	{"space_sep_no_ms", "2006-01-02 15:04:05"},
	{"slash_date", "2006/01/02 15:04:05"},
}

// Match is the result of a successful search: the pattern that matched,
// the parsed time, and the byte range within the source line it occupied.
type Match struct {
	Pattern  Pattern
	Time     time.Time
	BeginPos int
	EndPos   int
}

// SearchKnown tries every pattern in Known against a prefix of line,
// returning the first match. Patterns are anchored at the start of the
// line, matching MessageParser.cpp's convention that the timestamp begins
// a log line.
func SearchKnown(line string) (Match, bool) {
	for _, p := range Known {
		if m, ok := tryMatch(p, line); ok {
			return m, true
		}
	}

	return Match{}, false
}

func tryMatch(p Pattern, line string) (Match, bool) {
	n := len(p.Layout)
	if n > len(line) {
		n = len(line)
	}
	// Grow the candidate prefix until parsing succeeds or we run out of
	// line; timestamp layouts are not fixed-width (e.g. single vs double
	// digit day-of-month), so try a small window around the layout length.
	for extra := 0; extra <= 4 && n+extra <= len(line); extra++ {
		candidate := line[:n+extra]
		if t, err := time.Parse(p.Layout, candidate); err == nil {
			return Match{Pattern: p, Time: t, BeginPos: 0, EndPos: n + extra}, true
		}
	}

	return Match{}, false
}

// Cache remembers the last pattern that matched for a single file, so a
// stream of identically-formatted lines doesn't re-search Known each time.
type Cache struct {
	current *Pattern
}

// Search tries the cached pattern first, then falls back to the full
// library. On a library match, the cache is updated.
func (c *Cache) Search(line string) (Match, bool) {
	if c.current != nil {
		if m, ok := tryMatch(*c.current, line); ok {
			return m, true
		}
	}

	m, ok := SearchKnown(line)
	if ok {
		p := m.Pattern
		c.current = &p
	}

	return m, ok
}

// EpochMillisToTime converts an integer epoch-milliseconds timestamp (the
// representation used by JSON timestamp fields per §4.5) to a time.Time.
func EpochMillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// TimeToEpochMillis is the inverse of EpochMillisToTime.
func TimeToEpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FormatEpochMillis renders ms as a decimal string, used when a JSON
// timestamp leaf must be re-serialized verbatim.
func FormatEpochMillis(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
