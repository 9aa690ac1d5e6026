package jsonenc

import (
	"strconv"
	"strings"
)

// Serialize renders v back to JSON text, preserving object key order.
func Serialize(v *Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v *Value) {
	if v == nil {
		b.WriteString("null")
		return
	}

	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		b.WriteString(v.Number)
	case KindString:
		writeJSONString(b, v.Str)
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.Arr {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, e)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, key := range v.Obj.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONString(b, key)
			b.WriteByte(':')
			val, _ := v.Obj.Get(key)
			writeValue(b, val)
		}
		b.WriteByte('}')
	}
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u`)
				b.WriteString(padHex4(int(r)))
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

func padHex4(n int) string {
	const hex = "0123456789abcdef"
	out := [4]byte{'0', '0', '0', '0'}
	for i := 3; n > 0; i-- {
		out[i] = hex[n&0xF]
		n >>= 4
	}
	return string(out[:])
}

// IsInteger reports whether a KindNumber's literal text has no fractional
// or exponent part.
func IsInteger(literal string) bool {
	return !strings.ContainsAny(literal, ".eE")
}

// AsInt64 parses a KindNumber literal known to be an integer.
func AsInt64(literal string) (int64, error) {
	return strconv.ParseInt(literal, 10, 64)
}
