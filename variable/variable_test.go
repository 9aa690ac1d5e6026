package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clparchive/clp/errs"
)

func testRange() Range {
	return Range{Begin: 1 << 60, End: 1 << 61}
}

func TestTryEncodeInteger(t *testing.T) {
	r := testRange()

	tests := []struct {
		name  string
		value string
		ok    bool
		want  int64
	}{
		{"zero", "0", true, 0},
		{"positive", "1234", true, 1234},
		{"negative", "-1234", true, -1234},
		{"zero padded rejected", "0123", false, 0},
		{"leading plus rejected", "+123", false, 0},
		{"bare minus rejected", "-", false, 0},
		{"minus zero rejected", "-0", false, 0},
		{"empty rejected", "", false, 0},
		{"not a number", "12a", false, 0},
		{"in dict range rejected", "1152921504606846977", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TryEncodeInteger(tt.value, r)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEncodeDecodeDictID(t *testing.T) {
	r := testRange()

	encoded, err := r.EncodeDictID(42)
	require.NoError(t, err)
	assert.True(t, r.IsDictID(encoded))

	decoded, err := r.DecodeDictID(encoded)
	require.NoError(t, err)
	assert.Equal(t, int64(42), decoded)

	_, err = r.DecodeDictID(5)
	assert.ErrorIs(t, err, errs.ErrDictIDOutOfRange)
}

func TestDecimalRoundTrip(t *testing.T) {
	values := []string{
		"0.0",
		"1.5",
		"-1.5",
		"12.340",
		"-123456789012345.6",
		"0.00001",
	}
	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			encoded, ok := TryEncodeDecimal(v)
			require.True(t, ok, "expected %q to encode", v)
			assert.Equal(t, v, DecodeDecimal(encoded))
		})
	}
}

func TestTryEncodeDecimal_Rejects(t *testing.T) {
	tests := []string{
		"",
		"123",        // no decimal point
		"123.",       // nothing after the point
		"1.2.3",      // two decimal points
		"12a.3",      // invalid character
		"12345678901234567.1", // too many digits
		".5",         // no digit before the point
		"-.5",        // no digit before the point
	}
	for _, v := range tests {
		t.Run(v, func(t *testing.T) {
			_, ok := TryEncodeDecimal(v)
			assert.False(t, ok)
		})
	}
}
