// Package config implements the pre-parsed JSON-key configuration named in
// §6 ("the YAML pre-parsed-keys file"): a YAML document mapping
// dot-separated JSON key paths to the scalar column kind the archive should
// materialize them as, grounded on original_source/'s JsonKeyConfig.cpp/.hpp
// (trimmed from spec.md's distillation, restored per SPEC_FULL.md's
// SUPPLEMENTED FEATURES #1).
//
// The loader itself follows mdzesseis-log_capturer_go's YAML config
// pattern; clparchive uses gopkg.in/yaml.v3 (already present as an indirect
// dependency of the teacher) rather than yaml.v2, since v3 is what's
// actually vendored in this module's dependency graph.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clparchive/clp/column"
)

// KeyHint names the scalar column.Kind a pre-parsed JSON key path should be
// materialized as (§4.8, §4.10's "sizing the per-column writer set").
type KeyHint struct {
	Path string `yaml:"path"`
	Type string `yaml:"type"` // "int64", "float64", or "string"
}

// KeyConfig is the parsed form of the YAML pre-parsed-keys file: an ordered
// list of key hints, plus a lookup index built on Load.
type KeyConfig struct {
	Keys []KeyHint `yaml:"keys"`

	byPath map[string]column.Kind
}

// LoadJSONKeyConfig reads and parses the YAML file at path.
func LoadJSONKeyConfig(path string) (*KeyConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg KeyConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.byPath = make(map[string]column.Kind, len(cfg.Keys))
	for _, k := range cfg.Keys {
		kind, err := parseKind(k.Type)
		if err != nil {
			return nil, fmt.Errorf("config: key %q: %w", k.Path, err)
		}
		cfg.byPath[k.Path] = kind
	}

	return &cfg, nil
}

func parseKind(s string) (column.Kind, error) {
	switch s {
	case "int64":
		return column.KindInt64, nil
	case "float64":
		return column.KindFloat64, nil
	case "string":
		return column.KindString, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

// ColumnKind reports the configured column.Kind for a dot-separated JSON
// key path, if one was declared.
func (c *KeyConfig) ColumnKind(path string) (column.Kind, bool) {
	if c == nil {
		return 0, false
	}
	kind, ok := c.byPath[path]
	return kind, ok
}

// Len reports the number of configured key hints.
func (c *KeyConfig) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Keys)
}
