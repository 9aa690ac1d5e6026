package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clparchive/clp/column"
)

func TestLoadJSONKeyConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.yaml")
	doc := "keys:\n  - path: latency_ms\n    type: int64\n  - path: rate\n    type: float64\n  - path: host\n    type: string\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadJSONKeyConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Len())

	kind, ok := cfg.ColumnKind("latency_ms")
	require.True(t, ok)
	assert.Equal(t, column.KindInt64, kind)

	kind, ok = cfg.ColumnKind("rate")
	require.True(t, ok)
	assert.Equal(t, column.KindFloat64, kind)

	_, ok = cfg.ColumnKind("unknown")
	assert.False(t, ok)
}

func TestLoadJSONKeyConfig_UnknownType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keys:\n  - path: x\n    type: weird\n"), 0o644))

	_, err := LoadJSONKeyConfig(path)
	assert.Error(t, err)
}
