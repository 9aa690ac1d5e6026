// Package compress provides the compression codecs clparchive uses to frame
// on-disk archive payloads: dictionary value/segment-index files (§4.2-§4.4),
// segment byte streams (§3 "Segment"), and per-column segments (§4.8).
//
// # Architecture
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported algorithms
//
//   - None (format.CompressionNone): no compression, used for already-compact
//     payloads or during testing.
//   - Zstd (format.CompressionZstd): best ratio, the default for dictionary
//     and segment files. Two implementations are provided behind the same
//     Codec, selected by build tag exactly as the pure-Go and cgo variants
//     are in the rest of the ecosystem: zstd_pure.go (klauspost/compress/zstd,
//     default) and zstd_cgo.go (valyala/gozstd, opt-in via the "nobuild" tag
//     until wired into a build matrix).
//   - S2 (format.CompressionS2): faster, lower ratio, fits the scan-heavy
//     access pattern of per-column segments.
//   - LZ4 (format.CompressionLZ4): fast decompression, available for
//     metadata.db's WAL segments.
//
// # Thread safety
//
// All codec implementations are safe for concurrent use; encoders and
// decoders are pooled internally rather than exposed to callers.
package compress
