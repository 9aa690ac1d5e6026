package jsonenc

import (
	"fmt"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"
)

// Parse parses a single JSON document from data into an order-preserving
// Value tree.
//
// This uses goccy/go-json's Decoder.Token stream rather than Unmarshal into
// map[string]any: Decoder.Token yields object keys and values in the order
// they appear on the wire, which a map-based Unmarshal cannot recover. No
// library in the retrieval pack offers an order-preserving JSON map
// directly, so the ordered-Object bookkeeping here (value.go) is hand
// written; only the tokenizer itself is the third-party dependency.
func Parse(data []byte) (*Value, error) {
	dec := gojson.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}

	return v, nil
}

func parseValue(dec *gojson.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	return parseToken(dec, tok)
}

func parseToken(dec *gojson.Decoder, tok gojson.Token) (*Value, error) {
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return nil, fmt.Errorf("jsonenc: unexpected delimiter %q", t)
		}
	case nil:
		return newNull(), nil
	case bool:
		return newBool(t), nil
	case gojson.Number:
		return newNumber(string(t)), nil
	case string:
		return newString(t), nil
	default:
		return nil, fmt.Errorf("jsonenc: unsupported token type %T", tok)
	}
}

func parseObject(dec *gojson.Decoder) (*Value, error) {
	obj := NewObject()

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("jsonenc: object key is not a string: %T", keyTok)
		}

		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}

	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}

	return newObject(obj), nil
}

func parseArray(dec *gojson.Decoder) (*Value, error) {
	var arr []*Value

	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}

	return newArray(arr), nil
}
