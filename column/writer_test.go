package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64Writer(t *testing.T) {
	w := NewInt64Writer()
	w.AddValue(42)
	w.AddValue(-7)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 16, w.Size())

	w.Reset()
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 0, w.Size())
}

func TestFloatWriter(t *testing.T) {
	w := NewFloatWriter()
	w.AddValue(3.14)
	w.AddValue(-0.5)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 16, w.Size())
}

func TestStringWriter(t *testing.T) {
	w := NewStringWriter(1 << 20)

	id1, err := w.AddValue("alpha")
	require.NoError(t, err)
	id2, err := w.AddValue("alpha")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := w.AddValue("beta")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 2, w.Dict().Len())
}
