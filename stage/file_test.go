package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clparchive/clp/column"
)

func TestFile_WriteEncodedMsg(t *testing.T) {
	f := New("/var/log/app.log", 1, 0, KindText)

	require.NoError(t, f.WriteEncodedMsg(100, true, 0, []int64{42}, 20))
	require.NoError(t, f.WriteEncodedMsg(200, true, 0, []int64{43}, 20))

	assert.Equal(t, 2, f.NumMessages())
	assert.Equal(t, int64(100), f.BeginTS)
	assert.Equal(t, int64(200), f.EndTS)
	assert.Equal(t, []int64{42, 43}, f.Variables)
}

func TestFile_WriteToClosedFails(t *testing.T) {
	f := New("/var/log/app.log", 1, 0, KindText)
	require.NoError(t, f.Release())

	err := f.WriteEncodedMsg(1, true, 0, nil, 1)
	assert.Error(t, err)
}

func TestFile_LifecycleTransitions(t *testing.T) {
	f := New("/var/log/app.log", 1, 0, KindText)
	require.NoError(t, f.Release())
	require.NoError(t, f.MarkPendingSegment())
	require.NoError(t, f.Attach(SegmentAttachment{SegmentID: 5}))
	assert.Equal(t, StateInUncommittedSegment, f.State)

	f.Commit()
	assert.Equal(t, StateInCommittedSegment, f.State)
	assert.Nil(t, f.Timestamps)
}

func TestFile_WriteEncodedJSONMsg_Columns(t *testing.T) {
	f := New("/var/log/app.json", 1, 0, KindJSON)

	leaves := map[string]ExtractedLeaf{
		"latency_ms": {Kind: column.KindInt64, Int: 42},
		"host":       {Kind: column.KindString, String: "server-9"},
	}
	require.NoError(t, f.WriteEncodedJSONMsg(100, true, 0, nil, 10, leaves))

	w, ok := f.ColumnWriters["latency_ms"]
	require.True(t, ok)
	assert.Equal(t, 1, w.Len())

	w, ok = f.ColumnWriters["host"]
	require.True(t, ok)
	assert.Equal(t, column.KindString, w.Kind())
}
