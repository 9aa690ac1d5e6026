// Package format holds the wire-level constants shared by every writer and
// reader in clparchive: the variable delimiter bytes, the archive format
// version, and the compression-type enum used to select a
// [compress.Codec].
package format

// CompressionType selects the codec used to frame dictionary files, segment
// files, and column segments on disk.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1
	CompressionZstd CompressionType = 0x2
	CompressionS2   CompressionType = 0x3
	CompressionLZ4  CompressionType = 0x4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Delim is one of the five reserved bytes that, inside a logtype or jsontype
// template value, marks the position of a variable. The values are stable:
// they are persisted on disk and must never change across writer/reader
// versions.
type Delim byte

const (
	NonDouble Delim = 0x11
	Double    Delim = 0x12
	LogType   Delim = 0x13
	StringVar Delim = 0x14
	BooleanVar Delim = 0x15
)

func (d Delim) Valid() bool {
	switch d {
	case NonDouble, Double, LogType, StringVar, BooleanVar:
		return true
	default:
		return false
	}
}

func (d Delim) String() string {
	switch d {
	case NonDouble:
		return "NonDouble"
	case Double:
		return "Double"
	case LogType:
		return "LogType"
	case StringVar:
		return "StringVar"
	case BooleanVar:
		return "BooleanVar"
	default:
		return "Unknown"
	}
}

// ArchiveFormatVersion is written as the first field of an archive's
// metadata file (see archive.Config and the "metadata" entry in the archive
// directory layout).
const ArchiveFormatVersion uint16 = 1

// Default dictionary id capacities: the maximum number of entries a
// logtype/jsontype dictionary can hold before its ID space is exhausted.
// They do not bound the variable codec's dictionary-ID range
// (variable.Range), which is configured separately.
const (
	DefaultLogtypeDictionaryIDMax  = int64(1) << 32
	DefaultJsontypeDictionaryIDMax = int64(1) << 32
)
