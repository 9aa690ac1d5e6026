package jsonenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clparchive/clp/dictionary"
	"github.com/clparchive/clp/variable"
)

func testRange() variable.Range {
	return variable.Range{Begin: 1 << 60, End: 1 << 61}
}

func TestEncodeDecode_S3(t *testing.T) {
	r := testRange()
	varDict := dictionary.NewWriter(1 << 20)
	logtypeDict := dictionary.NewWriter(1 << 20)

	doc, err := Parse([]byte(`{"ts":1700000000,"msg":"hello world","level":"INFO","p":0.5}`))
	require.NoError(t, err)

	encoded, err := Encode(doc, varDict, logtypeDict, r)
	require.NoError(t, err)
	require.NotEmpty(t, encoded.Vars)

	varReader := dictionary.NewReader(varDict.AllEntries())
	logtypeReader := dictionary.NewReader(logtypeDict.AllEntries())

	decoded, err := Decode(encoded.Rewritten, encoded.Vars, r, varReader, logtypeReader)
	require.NoError(t, err)

	out := Serialize(decoded)
	assert.Contains(t, out, `"hello world"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"p":0.500000`)
}

func TestEncodeDecode_NestedObject(t *testing.T) {
	r := testRange()
	varDict := dictionary.NewWriter(1 << 20)
	logtypeDict := dictionary.NewWriter(1 << 20)

	doc, err := Parse([]byte(`{"a":{"b":[1,2,true,null]}}`))
	require.NoError(t, err)

	encoded, err := Encode(doc, varDict, logtypeDict, r)
	require.NoError(t, err)

	varReader := dictionary.NewReader(varDict.AllEntries())
	logtypeReader := dictionary.NewReader(logtypeDict.AllEntries())

	decoded, err := Decode(encoded.Rewritten, encoded.Vars, r, varReader, logtypeReader)
	require.NoError(t, err)

	out := Serialize(decoded)
	assert.Equal(t, `{"a":{"b":[1,2,true,null]}}`, out)
}
