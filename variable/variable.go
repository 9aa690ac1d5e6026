// Package variable implements the encoded-variable codec described in the
// archive format (§3 "Encoded variable"): the packing of an integer or
// decimal literal into a fixed-width int64 slot, and the reserved
// dictionary-ID range that lets the same slot type carry a reference into
// the variable dictionary (§4.3) instead.
//
// Grounded on EncodedVariableInterpreter.cpp's
// convert_string_to_representable_integer_var,
// convert_string_to_representable_double_var, and
// convert_encoded_double_to_string.
package variable

import (
	"strconv"

	"github.com/clparchive/clp/errs"
)

// Range is the reserved dictionary-ID range [Begin, End) a variable slot's
// int64 value falls into when it denotes a variable-dictionary ID rather
// than a raw encoded integer or decimal.
//
// Per the design note in §9, this is always passed explicitly rather than
// held as global state, so a single process can host multiple archives with
// independently sized dictionaries.
type Range struct {
	Begin int64
	End   int64
}

// Valid reports whether the range is well-formed.
func (r Range) Valid() bool {
	return r.Begin >= 0 && r.End > r.Begin
}

// IsDictID reports whether an encoded slot value denotes a variable
// dictionary ID rather than a raw encoded integer.
func (r Range) IsDictID(encoded int64) bool {
	return encoded >= r.Begin && encoded < r.End
}

// EncodeDictID maps a variable dictionary ID into this range's slot space.
func (r Range) EncodeDictID(id int64) (int64, error) {
	encoded := r.Begin + id
	if encoded < r.Begin || encoded >= r.End {
		return 0, errs.ErrDictIDOutOfRange
	}

	return encoded, nil
}

// DecodeDictID reverses EncodeDictID. Returns errs.ErrDictIDOutOfRange if
// encoded does not fall inside the range.
func (r Range) DecodeDictID(encoded int64) (int64, error) {
	if !r.IsDictID(encoded) {
		return 0, errs.ErrDictIDOutOfRange
	}

	return encoded - r.Begin, nil
}

// TryEncodeInteger attempts to pack value as a raw encoded integer: no
// leading '+', no zero-padding (other than the literal "0"), a '-' must be
// followed by a nonzero digit, and the parsed result must fall outside the
// dictionary-ID range (otherwise it's ambiguous with a dictionary
// reference and must be stored as a dictionary variable instead).
func TryEncodeInteger(value string, r Range) (int64, bool) {
	n := len(value)
	if n == 0 {
		return 0, false
	}

	if value[0] == '-' {
		if n < 2 || value[1] < '1' || value[1] > '9' {
			return 0, false
		}
	} else {
		if value[0] < '0' || value[0] > '9' {
			return 0, false
		}
		if n > 1 && value[0] == '0' {
			return 0, false
		}
	}

	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}

	if r.IsDictID(result) {
		return 0, false
	}

	return result, true
}

const (
	maxDigitsInRepresentableDecimalVar = 16
	digitsMask                         = uint64(0x003FFFFFFFFFFFFF) // low 54 bits
)

// TryEncodeDecimal attempts to pack value (a decimal literal, e.g. "-12.340")
// into the packed-decimal int64 layout:
//
//	bit 63:    sign (1 = negative)
//	bits 62-59: digit_count - 1
//	bits 58-55: decimal_point_pos - 1, where decimal_point_pos is the
//	           distance of the decimal point from the right edge of the
//	           literal (counted from the right so the sign doesn't shift it)
//	bit 54:    reserved, always 0
//	bits 53-0: the literal's digits, sign and decimal point stripped,
//	           as an unsigned integer (MSB..LSB order of the digits)
//
// value must match `-? digit+ '.' digit+`: exactly one decimal point with at
// least one digit on each side, and at most 16 significant digits total;
// otherwise it must be stored as a variable-dictionary entry instead.
func TryEncodeDecimal(value string) (int64, bool) {
	if len(value) == 0 {
		return 0, false
	}

	pos := 0
	maxLen := maxDigitsInRepresentableDecimalVar + 1 // +1 for the decimal point

	negative := false
	if value[pos] == '-' {
		negative = true
		pos++
		maxLen++
	}

	if len(value) > maxLen {
		return 0, false
	}

	var numDigits, digitsBeforePoint int
	decimalPointPos := -1 // distance of the '.' from the right edge, -1 if absent
	var digits uint64

	for ; pos < len(value); pos++ {
		c := value[pos]
		switch {
		case c >= '0' && c <= '9':
			digits = digits*10 + uint64(c-'0')
			numDigits++
			if decimalPointPos == -1 {
				digitsBeforePoint++
			}
		case c == '.' && decimalPointPos == -1:
			decimalPointPos = len(value) - 1 - pos
		default:
			return 0, false
		}
	}

	if decimalPointPos <= 0 || numDigits == 0 || digitsBeforePoint == 0 {
		return 0, false
	}
	if digits > digitsMask {
		return 0, false
	}

	var encoded uint64
	if negative {
		encoded = 1
	}
	encoded <<= 4
	encoded |= uint64(numDigits-1) & 0x0F
	encoded <<= 4
	encoded |= uint64(decimalPointPos-1) & 0x0F
	encoded <<= 55
	encoded |= digits & digitsMask

	return int64(encoded), true
}

// DecodeDecimal reverses TryEncodeDecimal.
func DecodeDecimal(encoded int64) string {
	u := uint64(encoded)

	digits := u & digitsMask
	u >>= 55
	decimalOffset := int(u&0x0F) + 1
	u >>= 4
	numDigits := int(u&0x0F) + 1
	u >>= 4
	negative := u > 0

	length := numDigits + 1 // digits + decimal point
	if negative {
		length++
	}

	buf := make([]byte, length)
	remaining := length

	pos := length - 1
	if negative {
		buf[0] = '-'
		remaining--
	}

	// Fill digits right to left until the decimal point slot is reached.
	for ; pos > length-1-decimalOffset && digits > 0; pos-- {
		buf[pos] = byte('0' + digits%10)
		digits /= 10
		remaining--
	}

	if digits > 0 {
		pos--
		remaining--
		for digits > 0 {
			buf[pos] = byte('0' + digits%10)
			digits /= 10
			pos--
			remaining--
		}
	}

	for ; remaining > 0; remaining-- {
		if pos == length-1-decimalOffset {
			buf[pos] = '.'
		} else {
			buf[pos] = '0'
		}
		pos--
	}
	buf[length-1-decimalOffset] = '.'

	return string(buf)
}
