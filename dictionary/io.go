package dictionary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/clparchive/clp/compress"
	"github.com/clparchive/clp/errs"
)

// WriteValues serializes entries (in order) to the zstd-framed "value file"
// format: for each entry, a uint32 length-prefixed value followed by a
// uvarint num_vars. codec compresses the whole buffer (§6, "dictionary
// value and segment-index files ... zstd-framed").
func WriteValues(codec compress.Compressor, entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	var varintBuf [binary.MaxVarintLen64]byte

	for _, e := range entries {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(e.Value)))
		buf.Write(lenBuf[:])
		buf.WriteString(e.Value)

		n := binary.PutUvarint(varintBuf[:], uint64(e.NumVars))
		buf.Write(varintBuf[:n])
	}

	compressed, err := codec.Compress(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compress dictionary values: %w", err)
	}

	return compressed, nil
}

// ReadValues reverses WriteValues, returning entries with IDs assigned by
// position (0-indexed, matching insertion order).
func ReadValues(codec compress.Decompressor, data []byte) ([]Entry, error) {
	raw, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress dictionary values: %w", err)
	}

	var entries []Entry
	pos := 0
	id := int64(0)
	for pos < len(raw) {
		if pos+4 > len(raw) {
			return nil, fmt.Errorf("%w: value file", errs.ErrTruncatedRecord)
		}
		length := int(binary.LittleEndian.Uint32(raw[pos : pos+4]))
		pos += 4

		if pos+length > len(raw) {
			return nil, fmt.Errorf("%w: value file", errs.ErrTruncatedRecord)
		}
		value := string(raw[pos : pos+length])
		pos += length

		numVars, n := binary.Uvarint(raw[pos:])
		if n <= 0 {
			return nil, fmt.Errorf("%w: value file num_vars", errs.ErrTruncatedRecord)
		}
		pos += n

		entries = append(entries, Entry{
			ID:                 id,
			Value:              value,
			NumVars:            int(numVars),
			SegmentsContaining: make(map[int64]struct{}),
		})
		id++
	}

	return entries, nil
}

// WriteSegIndex serializes, for each entry in order, its sorted set of
// segment ids as a uint32 count followed by that many int64 LE segment ids.
func WriteSegIndex(codec compress.Compressor, entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	var countBuf [4]byte
	var idBuf [8]byte

	for _, e := range entries {
		ids := make([]int64, 0, len(e.SegmentsContaining))
		for id := range e.SegmentsContaining {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		binary.LittleEndian.PutUint32(countBuf[:], uint32(len(ids)))
		buf.Write(countBuf[:])
		for _, id := range ids {
			binary.LittleEndian.PutUint64(idBuf[:], uint64(id))
			buf.Write(idBuf[:])
		}
	}

	compressed, err := codec.Compress(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compress dictionary segment index: %w", err)
	}

	return compressed, nil
}

// ReadSegIndex reverses WriteSegIndex, merging the recovered segment sets
// into entries (matched by position/id).
func ReadSegIndex(codec compress.Decompressor, data []byte, entries []Entry) error {
	raw, err := codec.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress dictionary segment index: %w", err)
	}

	pos := 0
	for i := range entries {
		if pos+4 > len(raw) {
			return fmt.Errorf("%w: segment index", errs.ErrTruncatedRecord)
		}
		count := int(binary.LittleEndian.Uint32(raw[pos : pos+4]))
		pos += 4

		if entries[i].SegmentsContaining == nil {
			entries[i].SegmentsContaining = make(map[int64]struct{}, count)
		}
		for j := 0; j < count; j++ {
			if pos+8 > len(raw) {
				return fmt.Errorf("%w: segment index", errs.ErrTruncatedRecord)
			}
			id := int64(binary.LittleEndian.Uint64(raw[pos : pos+8]))
			pos += 8
			entries[i].SegmentsContaining[id] = struct{}{}
		}
	}

	return nil
}
