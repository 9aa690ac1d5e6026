package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextParser_SingleLineMessages(t *testing.T) {
	p := NewTextParser(strings.NewReader("alpha\nbeta\n"))

	msg, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", msg.Text)
	assert.False(t, msg.HasTimestamp)

	msg, ok, err = p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "beta", msg.Text)

	_, ok, err = p.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTextParser_MultiLineBufferedUntilNextTimestamp(t *testing.T) {
	input := "Jan  1 00:00:01 host a[1]: first line\ncontinuation one\ncontinuation two\n" +
		"Jan  1 00:00:02 host a[1]: second message\n"
	p := NewTextParser(strings.NewReader(input))

	msg, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, msg.HasTimestamp)
	assert.Equal(t, "Jan  1 00:00:01 host a[1]: first line\ncontinuation one\ncontinuation two", msg.Text)
	assert.Equal(t, 1, msg.Timestamp.Second())

	msg, ok, err = p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Jan  1 00:00:02 host a[1]: second message", msg.Text)
	assert.Equal(t, 2, msg.Timestamp.Second())

	_, ok, err = p.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTextParser_TrailingBufferFlushedAtEOF(t *testing.T) {
	input := "Jan  1 00:00:01 host a[1]: only message\ntrailing line with no newline"
	p := NewTextParser(strings.NewReader(input))

	msg, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Jan  1 00:00:01 host a[1]: only message\ntrailing line with no newline", msg.Text)

	_, ok, err = p.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONParser_StringTimestampField(t *testing.T) {
	input := `{"time":"2024-01-02T15:04:05Z"}` + "\n"
	p := NewJSONParser(strings.NewReader(input))

	msg, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, msg.HasTimestamp)
	assert.Equal(t, 2024, msg.Timestamp.Year())
	require.NotNil(t, msg.JSON)

	_, ok, err = p.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONParser_IntegerTimestampField(t *testing.T) {
	input := `{"timestamp":1704207845000,"msg":"hello"}` + "\n"
	p := NewJSONParser(strings.NewReader(input))

	msg, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, msg.HasTimestamp)
}

func TestJSONParser_MalformedLineReportsError(t *testing.T) {
	p := NewJSONParser(strings.NewReader("not json\n"))

	_, ok, err := p.Next()
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestJSONParser_NoTimestampField(t *testing.T) {
	input := `{"msg":"hello"}` + "\n"
	p := NewJSONParser(strings.NewReader(input))

	msg, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, msg.HasTimestamp)
}
