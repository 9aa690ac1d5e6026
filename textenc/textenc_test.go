package textenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clparchive/clp/dictionary"
	"github.com/clparchive/clp/format"
	"github.com/clparchive/clp/variable"
)

func testRange() variable.Range {
	return variable.Range{Begin: 1 << 60, End: 1 << 61}
}

func TestEncodeDecode_S1(t *testing.T) {
	r := testRange()
	varDict := dictionary.NewWriter(1 << 20)

	tmpl, vars, err := Encode("User 42 logged in at 3.14s", varDict, r)
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, int64(42), vars[0])

	// "3.14" has 1 integer digit and 2 fractional digits, so the digit-count
	// byte's high nibble is 1 and low nibble is 2 (§3/§6).
	expectedTmpl := "User " + string(byte(format.NonDouble)) + " logged in at " +
		string(byte(format.Double)) + string(byte(0x12)) + "s"
	assert.Equal(t, expectedTmpl, tmpl)

	reader := dictionary.NewReader(varDict.AllEntries())
	decoded, err := Decode(tmpl, vars, r, reader)
	require.NoError(t, err)
	assert.Equal(t, "User 42 logged in at 3.14s", decoded)
}

func TestEncodeDecode_DictFallback(t *testing.T) {
	r := testRange()
	varDict := dictionary.NewWriter(1 << 20)

	tmpl, vars, err := Encode("host=server-9 ok", varDict, r)
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.True(t, r.IsDictID(vars[0]))

	entry, ok := varDict.Get(0)
	require.True(t, ok)
	assert.Equal(t, "host=server-9", entry.Value)

	reader := dictionary.NewReader(varDict.AllEntries())
	decoded, err := Decode(tmpl, vars, r, reader)
	require.NoError(t, err)
	assert.Equal(t, "host=server-9 ok", decoded)
}

func TestEncode_SameMessageSameTemplateID(t *testing.T) {
	r := testRange()
	varDict := dictionary.NewWriter(1 << 20)

	tmpl1, _, err := Encode("host=server-9 ok", varDict, r)
	require.NoError(t, err)
	tmpl2, _, err := Encode("host=server-9 ok", varDict, r)
	require.NoError(t, err)
	assert.Equal(t, tmpl1, tmpl2)
	assert.Equal(t, 1, varDict.Len())
}
