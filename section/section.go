// Package section defines the archive metadata header (§6), the fixed-width
// binary header of the archive's top-level "metadata" file. The framing of
// dictionary and segment files is defined in package archive, not here.
//
// Grounded on the teacher's section package (fixed-width headers with
// Bytes()/Parse()/Validate() methods); the layouts themselves are new,
// drawn from the archive directory layout in §6.
package section

import (
	"encoding/binary"
	"fmt"

	"github.com/clparchive/clp/errs"
	"github.com/clparchive/clp/format"
)

// MetadataHeader is the fixed-width header written as the archive's
// top-level "metadata" file (§6): format_version, stable_uncompressed_size,
// stable_size. The archive rewrites the whole file at each segment close
// and at archive close.
type MetadataHeader struct {
	FormatVersion          uint16
	StableUncompressedSize uint64
	StableSize             uint64
}

// MetadataHeaderSize is the header's fixed on-disk width in bytes.
const MetadataHeaderSize = 2 + 8 + 8

// Bytes serializes the header, big-endian, in field order.
func (h MetadataHeader) Bytes() []byte {
	buf := make([]byte, MetadataHeaderSize)
	binary.BigEndian.PutUint16(buf[0:2], h.FormatVersion)
	binary.BigEndian.PutUint64(buf[2:10], h.StableUncompressedSize)
	binary.BigEndian.PutUint64(buf[10:18], h.StableSize)

	return buf
}

// SizesOffset is the byte offset of StableUncompressedSize within the
// serialized header. The archive's header rewrite does not use it; it
// rewrites the whole header.
const SizesOffset = 2

// ParseMetadataHeader parses a MetadataHeader from its serialized form.
func ParseMetadataHeader(buf []byte) (MetadataHeader, error) {
	if len(buf) < MetadataHeaderSize {
		return MetadataHeader{}, fmt.Errorf("%w: metadata header truncated", errs.ErrTruncatedRecord)
	}

	h := MetadataHeader{
		FormatVersion:          binary.BigEndian.Uint16(buf[0:2]),
		StableUncompressedSize: binary.BigEndian.Uint64(buf[2:10]),
		StableSize:             binary.BigEndian.Uint64(buf[10:18]),
	}
	if h.FormatVersion != format.ArchiveFormatVersion {
		return MetadataHeader{}, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, h.FormatVersion)
	}

	return h, nil
}
