package jsonenc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clparchive/clp/dictionary"
	"github.com/clparchive/clp/errs"
	"github.com/clparchive/clp/format"
	"github.com/clparchive/clp/textenc"
	"github.com/clparchive/clp/variable"
)

// Encoded is the result of rewriting a JSON document's scalar leaves into
// delimiter sentinels: the rewritten document (ready to Serialize into a
// jsontype dictionary entry's value) and the flat variable slots the walk
// emitted, in document order.
type Encoded struct {
	Rewritten *Value
	Vars      []int64
}

// Encode walks doc depth-first, preserving key order, rewriting every
// scalar leaf per §4.6's table. String leaves containing a space are
// themselves encoded as a text message (§4.7) into a fresh logtype entry;
// the returned variable slice is shared across the whole document, so a
// nested logtype's variables interleave with the outer document's in
// left-to-right leaf order, matching how the decoder consumes them.
func Encode(doc *Value, varDict, logtypeDict *dictionary.Writer, r variable.Range) (Encoded, error) {
	var vars []int64

	rewritten, err := encodeValue(doc, varDict, logtypeDict, r, &vars)
	if err != nil {
		return Encoded{}, err
	}

	return Encoded{Rewritten: rewritten, Vars: vars}, nil
}

func encodeValue(v *Value, varDict, logtypeDict *dictionary.Writer, r variable.Range, vars *[]int64) (*Value, error) {
	if v == nil {
		return newNull(), nil
	}

	switch v.Kind {
	case KindObject:
		out := NewObject()
		for _, key := range v.Obj.Keys() {
			child, _ := v.Obj.Get(key)
			rewrittenChild, err := encodeValue(child, varDict, logtypeDict, r, vars)
			if err != nil {
				return nil, err
			}
			out.Set(key, rewrittenChild)
		}
		return newObject(out), nil

	case KindArray:
		out := make([]*Value, len(v.Arr))
		for i, child := range v.Arr {
			rewrittenChild, err := encodeValue(child, varDict, logtypeDict, r, vars)
			if err != nil {
				return nil, err
			}
			out[i] = rewrittenChild
		}
		return newArray(out), nil

	case KindNull:
		return newNull(), nil

	case KindString:
		return encodeStringLeaf(v.Str, varDict, logtypeDict, r, vars)

	case KindNumber:
		return encodeNumberLeaf(v.Number, varDict, r, vars)

	case KindBool:
		if v.Bool {
			*vars = append(*vars, 1)
		} else {
			*vars = append(*vars, 0)
		}
		return newString(string(byte(format.BooleanVar))), nil

	default:
		return nil, fmt.Errorf("jsonenc: unknown value kind %d", v.Kind)
	}
}

func encodeStringLeaf(s string, varDict, logtypeDict *dictionary.Writer, r variable.Range, vars *[]int64) (*Value, error) {
	if !strings.Contains(s, " ") {
		id, _, err := varDict.InsertOrGet(s, 0)
		if err != nil {
			return nil, fmt.Errorf("jsonenc: intern string leaf: %w", err)
		}
		slot, err := r.EncodeDictID(id)
		if err != nil {
			return nil, err
		}
		*vars = append(*vars, slot)

		return newString(string(byte(format.StringVar))), nil
	}

	template, leafVars, err := textenc.Encode(s, varDict, r)
	if err != nil {
		return nil, fmt.Errorf("jsonenc: encode nested message: %w", err)
	}

	logtypeID, _, err := logtypeDict.InsertOrGet(template, len(leafVars))
	if err != nil {
		return nil, fmt.Errorf("jsonenc: intern logtype: %w", err)
	}
	*vars = append(*vars, leafVars...)

	return newString(string(byte(format.LogType)) + strconv.FormatInt(logtypeID, 10)), nil
}

func encodeNumberLeaf(literal string, varDict *dictionary.Writer, r variable.Range, vars *[]int64) (*Value, error) {
	if IsInteger(literal) {
		n, err := AsInt64(literal)
		if err != nil {
			return nil, fmt.Errorf("jsonenc: integer leaf %q: %w", literal, err)
		}
		*vars = append(*vars, n)

		return newString(string(byte(format.NonDouble))), nil
	}

	rendered := renderFloatLiteral(literal)
	if slot, ok := variable.TryEncodeDecimal(rendered); ok {
		*vars = append(*vars, slot)

		intDigits, fracDigits := digitCounts(rendered)

		return newString(string(byte(format.Double)) + string(byte(intDigits<<4|fracDigits))), nil
	}

	id, _, err := varDict.InsertOrGet(rendered, 0)
	if err != nil {
		return nil, fmt.Errorf("jsonenc: intern float leaf: %w", err)
	}
	slot, err := r.EncodeDictID(id)
	if err != nil {
		return nil, err
	}
	*vars = append(*vars, slot)

	return newString(string(byte(format.StringVar))), nil
}

// renderFloatLiteral normalizes a JSON float literal to the fixed
// six-fractional-digit form the packed-decimal codec expects (matching
// §8 S3's "0.5" -> "0.500000").
func renderFloatLiteral(literal string) string {
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return literal
	}

	return strconv.FormatFloat(f, 'f', 6, 64)
}

// digitCounts splits a rendered decimal literal like "12.340" into its
// integer- and fractional-digit counts, for the jsontype Double leaf's
// digit-count byte (§6).
func digitCounts(rendered string) (intDigits, fracDigits byte) {
	s := rendered
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return byte(len(s)), 0
	}

	return byte(dot), byte(len(s) - dot - 1)
}

// Decode reverses Encode: it walks entryValue (the parsed jsontype
// dictionary value) and, for each leaf whose string begins with a
// delimiter byte, consumes the next slot(s) from vars and substitutes the
// reconstructed value.
func Decode(entryValue *Value, vars []int64, r variable.Range, varDict *dictionary.Reader, logtypeDict *dictionary.Reader) (*Value, error) {
	idx := 0
	return decodeValue(entryValue, vars, &idx, r, varDict, logtypeDict)
}

func decodeValue(v *Value, vars []int64, idx *int, r variable.Range, varDict, logtypeDict *dictionary.Reader) (*Value, error) {
	if v == nil {
		return newNull(), nil
	}

	switch v.Kind {
	case KindObject:
		out := NewObject()
		for _, key := range v.Obj.Keys() {
			child, _ := v.Obj.Get(key)
			decodedChild, err := decodeValue(child, vars, idx, r, varDict, logtypeDict)
			if err != nil {
				return nil, err
			}
			out.Set(key, decodedChild)
		}
		return newObject(out), nil

	case KindArray:
		out := make([]*Value, len(v.Arr))
		for i, child := range v.Arr {
			decodedChild, err := decodeValue(child, vars, idx, r, varDict, logtypeDict)
			if err != nil {
				return nil, err
			}
			out[i] = decodedChild
		}
		return newArray(out), nil

	case KindString:
		return decodeStringLeaf(v.Str, vars, idx, r, varDict, logtypeDict)

	default:
		return v, nil
	}
}

func nextVar(vars []int64, idx *int) (int64, error) {
	if *idx >= len(vars) {
		return 0, fmt.Errorf("%w: jsontype document", errs.ErrVarCountMismatch)
	}
	v := vars[*idx]
	*idx++
	return v, nil
}

func decodeStringLeaf(s string, vars []int64, idx *int, r variable.Range, varDict, logtypeDict *dictionary.Reader) (*Value, error) {
	if len(s) == 0 {
		return newString(s), nil
	}

	delim := format.Delim(s[0])
	if !delim.Valid() {
		// Not a rewritten leaf; a plain (unencoded) string value.
		return newString(s), nil
	}

	switch delim {
	case format.StringVar:
		slot, err := nextVar(vars, idx)
		if err != nil {
			return nil, err
		}
		id, err := r.DecodeDictID(slot)
		if err != nil {
			return nil, err
		}
		value, ok := varDict.GetValue(id)
		if !ok {
			return nil, fmt.Errorf("%w: variable dictionary id %d", errs.ErrDictIDOutOfRange, id)
		}
		return newString(value), nil

	case format.LogType:
		logtypeID, err := strconv.ParseInt(s[1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: logtype leaf id %q", errs.ErrTruncatedRecord, s[1:])
		}
		entry, ok := logtypeDict.GetEntry(logtypeID)
		if !ok {
			return nil, fmt.Errorf("%w: logtype id %d", errs.ErrDictIDOutOfRange, logtypeID)
		}
		if *idx+entry.NumVars > len(vars) {
			return nil, fmt.Errorf("%w: nested logtype %d", errs.ErrVarCountMismatch, logtypeID)
		}
		leafVars := vars[*idx : *idx+entry.NumVars]
		*idx += entry.NumVars

		decoded, err := textenc.Decode(entry.Value, leafVars, r, varDict)
		if err != nil {
			return nil, err
		}
		return newString(decoded), nil

	case format.Double:
		slot, err := nextVar(vars, idx)
		if err != nil {
			return nil, err
		}
		return newNumber(variable.DecodeDecimal(slot)), nil

	case format.NonDouble:
		slot, err := nextVar(vars, idx)
		if err != nil {
			return nil, err
		}
		if r.IsDictID(slot) {
			// §9 open question #1: the source silently drops this case;
			// the corrected behavior (adopted here) is to treat it as a
			// StringVar substitution.
			id, err := r.DecodeDictID(slot)
			if err != nil {
				return nil, err
			}
			value, ok := varDict.GetValue(id)
			if !ok {
				return nil, fmt.Errorf("%w: variable dictionary id %d", errs.ErrDictIDOutOfRange, id)
			}
			return newString(value), nil
		}
		return newNumber(strconv.FormatInt(slot, 10)), nil

	case format.BooleanVar:
		slot, err := nextVar(vars, idx)
		if err != nil {
			return nil, err
		}
		return newBool(slot != 0), nil

	default:
		return newString(s), nil
	}
}
