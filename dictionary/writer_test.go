package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clparchive/clp/compress"
)

func TestWriter_InsertOrGet(t *testing.T) {
	w := NewWriter(1 << 20)

	id1, isNew1, err := w.InsertOrGet("host=server-9", 0)
	require.NoError(t, err)
	assert.True(t, isNew1)

	id2, isNew2, err := w.InsertOrGet("host=server-9", 0)
	require.NoError(t, err)
	assert.False(t, isNew2)
	assert.Equal(t, id1, id2)

	id3, isNew3, err := w.InsertOrGet("host=server-10", 0)
	require.NoError(t, err)
	assert.True(t, isNew3)
	assert.NotEqual(t, id1, id3)
}

func TestWriter_InsertOrGet_EmptyRejected(t *testing.T) {
	w := NewWriter(10)
	_, _, err := w.InsertOrGet("", 0)
	assert.Error(t, err)
}

func TestWriter_Capacity(t *testing.T) {
	w := NewWriter(1)
	_, _, err := w.InsertOrGet("a", 0)
	require.NoError(t, err)

	_, _, err = w.InsertOrGet("b", 0)
	assert.Error(t, err)
}

func TestWriter_IndexSegment(t *testing.T) {
	w := NewWriter(10)
	id, _, err := w.InsertOrGet("a", 0)
	require.NoError(t, err)

	w.IndexSegment(7, []int64{id})
	entry, ok := w.Get(id)
	require.True(t, ok)
	assert.True(t, entry.HasSegment(7))
	assert.False(t, entry.HasSegment(8))
}

func TestValuesRoundTrip(t *testing.T) {
	w := NewWriter(10)
	_, _, err := w.InsertOrGet("alpha", 2)
	require.NoError(t, err)
	_, _, err = w.InsertOrGet("beta", 0)
	require.NoError(t, err)

	codec := compress.NewNoOpCompressor()
	data, err := WriteValues(codec, w.AllEntries())
	require.NoError(t, err)

	entries, err := ReadValues(codec, data)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Value)
	assert.Equal(t, 2, entries[0].NumVars)
	assert.Equal(t, "beta", entries[1].Value)
}

func TestSegIndexRoundTrip(t *testing.T) {
	w := NewWriter(10)
	idA, _, _ := w.InsertOrGet("a", 0)
	idB, _, _ := w.InsertOrGet("b", 0)
	w.IndexSegment(1, []int64{idA})
	w.IndexSegment(2, []int64{idA, idB})

	codec := compress.NewNoOpCompressor()
	entries := w.AllEntries()
	data, err := WriteSegIndex(codec, entries)
	require.NoError(t, err)

	fresh, err := ReadValues(codec, mustWriteValues(t, codec, entries))
	require.NoError(t, err)

	err = ReadSegIndex(codec, data, fresh)
	require.NoError(t, err)

	assert.True(t, fresh[idA].HasSegment(1))
	assert.True(t, fresh[idA].HasSegment(2))
	assert.False(t, fresh[idB].HasSegment(1))
	assert.True(t, fresh[idB].HasSegment(2))
}

func mustWriteValues(t *testing.T, codec compress.Codec, entries []Entry) []byte {
	t.Helper()
	data, err := WriteValues(codec, entries)
	require.NoError(t, err)
	return data
}

func TestReader_Lookups(t *testing.T) {
	entries := []Entry{
		{ID: 0, Value: "host=server-9"},
		{ID: 1, Value: "host=server-10"},
	}
	r := NewReader(entries)

	v, ok := r.GetValue(0)
	require.True(t, ok)
	assert.Equal(t, "host=server-9", v)

	e, ok := r.GetEntryMatchingValue("HOST=SERVER-9", true)
	require.True(t, ok)
	assert.Equal(t, int64(0), e.ID)

	matches := r.GetEntriesMatchingWildcard("host=server-*", false)
	assert.Len(t, matches, 2)
}
