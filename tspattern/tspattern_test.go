package tspattern

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchKnown_RFC3339_ExactLine(t *testing.T) {
	m, ok := SearchKnown("2024-01-02T15:04:05Z")
	require.True(t, ok)
	// rfc3339nano is tried first and time.Parse accepts an omitted
	// fractional-second field for its ".999999999" layout.
	assert.Equal(t, "rfc3339nano", m.Pattern.Name)
	assert.Equal(t, 2024, m.Time.Year())
}

func TestSearchKnown_Syslog(t *testing.T) {
	m, ok := SearchKnown("Jan  2 15:04:05 host service[1]: message")
	require.True(t, ok)
	assert.Equal(t, "syslog", m.Pattern.Name)
}

func TestSearchKnown_NoMatch(t *testing.T) {
	_, ok := SearchKnown("no timestamp here at all")
	assert.False(t, ok)
}

func TestCache_RemembersLastPattern(t *testing.T) {
	var c Cache

	m1, ok := c.Search("Jan  1 00:00:01 host a[1]: first")
	require.True(t, ok)
	require.NotNil(t, c.current)
	assert.Equal(t, "syslog", m1.Pattern.Name)

	m2, ok := c.Search("Jan  1 00:00:02 host a[1]: second")
	require.True(t, ok)
	assert.Equal(t, "syslog", m2.Pattern.Name)
	assert.Equal(t, 2, m2.Time.Second())
}

func TestEpochMillisRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ms := TimeToEpochMillis(now)
	back := EpochMillisToTime(ms)
	assert.Equal(t, now.UnixMilli(), back.UnixMilli())
	assert.Equal(t, strconv.FormatInt(ms, 10), FormatEpochMillis(ms))
}
