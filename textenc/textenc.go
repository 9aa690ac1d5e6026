// Package textenc implements the text message encoder/decoder (§4.7):
// tokenizing a log line into constant text and variables, interning the
// template (constant text with variables replaced by delimiter bytes) and
// packing each variable into a slot via the codec in package variable.
//
// Grounded on EncodedVariableInterpreter::encode_and_add_to_dictionary; the
// source's own tokenizer (LogTypeDictionaryEntry::parse_next_var) wasn't
// part of the retrieved original_source, so the token-splitting rule below
// is reconstructed from spec.md §4.7's definition and the worked example
// in §8 S1 (a decimal value directly followed by a non-numeric suffix,
// e.g. "3.14s", must still encode the "3.14" and keep "s" literal).
package textenc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clparchive/clp/dictionary"
	"github.com/clparchive/clp/errs"
	"github.com/clparchive/clp/format"
	"github.com/clparchive/clp/variable"
)

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

// isVariableCandidate reports whether token contains at least one digit or
// punctuation character (§4.7's heuristic for "token is a variable").
// Pure-letter tokens are always left as literal text.
func isVariableCandidate(token string) bool {
	for _, r := range token {
		if r >= '0' && r <= '9' {
			return true
		}
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return true
		}
	}

	return false
}

// trailingNonDigitRun returns the length of the longest suffix of token
// made up entirely of non-digit characters.
func trailingNonDigitRun(token string) int {
	i := len(token)
	for i > 0 {
		c := token[i-1]
		if c >= '0' && c <= '9' {
			break
		}
		i--
	}

	return len(token) - i
}

// writeDigitCounts appends the §3/§6 digit-count byte for a Double delimiter:
// high nibble num_integer_digits, low nibble num_fractional_digits, taken
// from the decimal literal that was just packed by TryEncodeDecimal.
func writeDigitCounts(tmpl *strings.Builder, literal string) {
	s := literal
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	intDigits, fracDigits := byte(dot), byte(len(s)-dot-1)

	tmpl.WriteByte(intDigits<<4 | fracDigits)
}

// Encode tokenizes msg, interning non-representable variables into varDict,
// and returns the logtype template (constant text with each variable
// replaced by its delimiter byte) plus the slot values in order.
func Encode(msg string, varDict *dictionary.Writer, r variable.Range) (template string, vars []int64, err error) {
	var tmpl strings.Builder

	i, n := 0, len(msg)
	for i < n {
		if isSpace(msg[i]) {
			start := i
			for i < n && isSpace(msg[i]) {
				i++
			}
			tmpl.WriteString(msg[start:i])
			continue
		}

		start := i
		for i < n && !isSpace(msg[i]) {
			i++
		}
		token := msg[start:i]

		if !isVariableCandidate(token) {
			tmpl.WriteString(token)
			continue
		}

		if err := encodeToken(token, &tmpl, &vars, varDict, r); err != nil {
			return "", nil, err
		}
	}

	return tmpl.String(), vars, nil
}

func encodeToken(token string, tmpl *strings.Builder, vars *[]int64, varDict *dictionary.Writer, r variable.Range) error {
	if v, ok := variable.TryEncodeInteger(token, r); ok {
		*vars = append(*vars, v)
		tmpl.WriteByte(byte(format.NonDouble))
		return nil
	}
	if v, ok := variable.TryEncodeDecimal(token); ok {
		*vars = append(*vars, v)
		tmpl.WriteByte(byte(format.Double))
		writeDigitCounts(tmpl, token)
		return nil
	}

	if suffixLen := trailingNonDigitRun(token); suffixLen > 0 && suffixLen < len(token) {
		prefix, suffix := token[:len(token)-suffixLen], token[len(token)-suffixLen:]

		if v, ok := variable.TryEncodeInteger(prefix, r); ok {
			*vars = append(*vars, v)
			tmpl.WriteByte(byte(format.NonDouble))
			tmpl.WriteString(suffix)
			return nil
		}
		if v, ok := variable.TryEncodeDecimal(prefix); ok {
			*vars = append(*vars, v)
			tmpl.WriteByte(byte(format.Double))
			writeDigitCounts(tmpl, prefix)
			tmpl.WriteString(suffix)
			return nil
		}
	}

	id, _, err := varDict.InsertOrGet(token, 0)
	if err != nil {
		return fmt.Errorf("textenc: intern variable: %w", err)
	}

	slot, err := r.EncodeDictID(id)
	if err != nil {
		return fmt.Errorf("textenc: encode dictionary id: %w", err)
	}

	*vars = append(*vars, slot)
	tmpl.WriteByte(byte(format.NonDouble))

	return nil
}

// Decode reverses Encode: it walks template, substituting each delimiter
// byte with the corresponding decoded variable from vars.
func Decode(template string, vars []int64, r variable.Range, varDict *dictionary.Reader) (string, error) {
	var out strings.Builder
	idx := 0

	for i := 0; i < len(template); i++ {
		b := format.Delim(template[i])
		switch b {
		case format.NonDouble:
			if idx >= len(vars) {
				return "", fmt.Errorf("%w: text template", errs.ErrVarCountMismatch)
			}
			slot := vars[idx]
			idx++

			if r.IsDictID(slot) {
				id, err := r.DecodeDictID(slot)
				if err != nil {
					return "", err
				}
				value, ok := varDict.GetValue(id)
				if !ok {
					return "", fmt.Errorf("%w: variable dictionary id %d", errs.ErrDictIDOutOfRange, id)
				}
				out.WriteString(value)
			} else {
				out.WriteString(strconv.FormatInt(slot, 10))
			}
		case format.Double:
			if idx >= len(vars) {
				return "", fmt.Errorf("%w: text template", errs.ErrVarCountMismatch)
			}
			out.WriteString(variable.DecodeDecimal(vars[idx]))
			idx++

			// Consume the digit-count byte (§3/§6); the packed-decimal slot
			// already self-describes digit_count/decimal_offset, so the byte
			// itself is not needed to reconstruct the text, only skipped.
			i++
			if i >= len(template) {
				return "", fmt.Errorf("%w: text template missing digit-count byte", errs.ErrVarCountMismatch)
			}
		default:
			out.WriteByte(template[i])
		}
	}

	return out.String(), nil
}
