package archive

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/clparchive/clp/compress"
	"github.com/clparchive/clp/errs"
)

// A region is one independently zstd-framed chunk appended to a segment or
// column-segment file: an 8-byte uncompressed length, a 4-byte compressed
// length, then the compressed bytes themselves. Framing each region on its
// own (rather than one continuous compressor stream) lets a reader seek
// straight to a file's recorded offset and decompress only that region,
// which is what lets §4.10 step 4's "record their uncompressed offsets"
// mean anything on read.
const regionHeaderSize = 8 + 4

// writeRegion compresses data with codec and appends the framed region to w,
// returning the number of bytes written (header + compressed body) and the
// uncompressed length that should be added to a segment's size accounting.
func writeRegion(w io.Writer, codec compress.Compressor, data []byte) (written int64, uncompressedLen int64, err error) {
	compressed, err := codec.Compress(data)
	if err != nil {
		return 0, 0, fmt.Errorf("archive: compress region: %w", err)
	}

	var hdr [regionHeaderSize]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(len(data)))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(compressed)))

	if _, err := w.Write(hdr[:]); err != nil {
		return 0, 0, fmt.Errorf("%w: region header: %v", errs.ErrIOFailure, err)
	}
	if _, err := w.Write(compressed); err != nil {
		return 0, 0, fmt.Errorf("%w: region body: %v", errs.ErrIOFailure, err)
	}

	return int64(regionHeaderSize + len(compressed)), int64(len(data)), nil
}

// readRegionAt decompresses the region whose header begins at byteOffset in
// the file backing r (an io.ReaderAt, e.g. an *os.File opened read-only).
func readRegionAt(r io.ReaderAt, codec compress.Decompressor, byteOffset int64) ([]byte, error) {
	var hdr [regionHeaderSize]byte
	if _, err := r.ReadAt(hdr[:], byteOffset); err != nil {
		return nil, fmt.Errorf("%w: region header: %v", errs.ErrIOFailure, err)
	}

	uncompressedLen := binary.LittleEndian.Uint64(hdr[0:8])
	compressedLen := binary.LittleEndian.Uint32(hdr[8:12])

	compressed := make([]byte, compressedLen)
	if _, err := r.ReadAt(compressed, byteOffset+regionHeaderSize); err != nil {
		return nil, fmt.Errorf("%w: region body: %v", errs.ErrIOFailure, err)
	}

	raw, err := codec.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("archive: decompress region: %w", err)
	}
	if uint64(len(raw)) != uncompressedLen {
		return nil, fmt.Errorf("%w: region length mismatch", errs.ErrTruncatedRecord)
	}

	return raw, nil
}
