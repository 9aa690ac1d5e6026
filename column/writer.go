// Package column implements the per-column buffering side channel (§4.8):
// fixed-width accumulators for int64 and float64 leaves, plus a
// dictionary-backed accumulator for string leaves, each sharing the
// capability set the source describes as add_value/bytes/size.
//
// Grounded on mebo's numeric_encoder.go (a ColumnarEncoder per data kind,
// written through an endian.EndianEngine into a growable buffer) and on
// clparchive's own dictionary.Writer for the string variant's id mapping.
package column

import (
	"math"

	"github.com/clparchive/clp/dictionary"
	"github.com/clparchive/clp/endian"
)

// Kind identifies which of the three column variants a Writer holds.
type Kind uint8

const (
	KindInt64 Kind = iota
	KindFloat64
	KindString
)

// Writer is the common capability shared by the three column variants:
// accumulate values, report the accumulated byte size, and return the
// buffer ready for framing into a per-column segment (§4.8, §6
// "column_segments/<key>/<segment_id>").
type Writer interface {
	Kind() Kind
	Bytes() []byte
	Size() int
	Len() int
	Reset()
}

// Int64Writer packs int64 leaves into a growable little-endian buffer, 8
// bytes per value; the buffer is not padded or aligned to a page size.
type Int64Writer struct {
	engine endian.EndianEngine
	buf    []byte
	n      int
}

// NewInt64Writer creates an Int64Writer using the little-endian engine, the
// module-wide default (see endian.GetLittleEndianEngine).
func NewInt64Writer() *Int64Writer {
	return &Int64Writer{engine: endian.GetLittleEndianEngine()}
}

func (w *Int64Writer) Kind() Kind { return KindInt64 }

// AddValue appends v to the column.
func (w *Int64Writer) AddValue(v int64) {
	w.buf = w.engine.AppendUint64(w.buf, uint64(v))
	w.n++
}

func (w *Int64Writer) Bytes() []byte { return w.buf }
func (w *Int64Writer) Size() int     { return len(w.buf) }
func (w *Int64Writer) Len() int      { return w.n }
func (w *Int64Writer) Reset()        { w.buf = w.buf[:0]; w.n = 0 }

// FloatWriter packs float64 leaves into a growable little-endian buffer
// (8 bytes per value, not page-aligned) using the raw IEEE-754 bit pattern: columnar storage is a scan
// surface, not a textual round-trip contract, so (unlike the packed-decimal
// variable slot, §3) bit-reinterpretation is the correct choice here.
type FloatWriter struct {
	engine endian.EndianEngine
	buf    []byte
	n      int
}

// NewFloatWriter creates a FloatWriter using the little-endian engine.
func NewFloatWriter() *FloatWriter {
	return &FloatWriter{engine: endian.GetLittleEndianEngine()}
}

func (w *FloatWriter) Kind() Kind { return KindFloat64 }

// AddValue appends v to the column.
func (w *FloatWriter) AddValue(v float64) {
	w.buf = w.engine.AppendUint64(w.buf, math.Float64bits(v))
	w.n++
}

func (w *FloatWriter) Bytes() []byte { return w.buf }
func (w *FloatWriter) Size() int     { return len(w.buf) }
func (w *FloatWriter) Len() int      { return w.n }
func (w *FloatWriter) Reset()        { w.buf = w.buf[:0]; w.n = 0 }

// StringWriter interns each string into a sibling dictionary-style writer
// and stores the resulting dense id as a fixed-width int64 slot, so a
// string column scans exactly like an Int64Writer of dictionary ids.
type StringWriter struct {
	dict *dictionary.Writer
	ids  *Int64Writer
}

// NewStringWriter creates a StringWriter with its own private interning
// dictionary (distinct from the archive's variable dictionary: column
// values are a denormalized projection, not the canonical variable store).
func NewStringWriter(maxID int64) *StringWriter {
	return &StringWriter{dict: dictionary.NewWriter(maxID), ids: NewInt64Writer()}
}

func (w *StringWriter) Kind() Kind { return KindString }

// AddValue interns v and appends its id to the column.
func (w *StringWriter) AddValue(v string) (id int64, err error) {
	id, _, err = w.dict.InsertOrGet(v, 0)
	if err != nil {
		return 0, err
	}
	w.ids.AddValue(id)

	return id, nil
}

func (w *StringWriter) Bytes() []byte { return w.ids.Bytes() }
func (w *StringWriter) Size() int     { return w.ids.Size() }
func (w *StringWriter) Len() int      { return w.ids.Len() }
func (w *StringWriter) Reset()        { w.ids.Reset() }

// Dict returns the column's private string-interning dictionary, so the
// archive can persist it alongside the column's id buffer.
func (w *StringWriter) Dict() *dictionary.Writer { return w.dict }
