// Package archive implements the segment and archive (§4.10): attaching
// staged files to append-only segments, closing a segment when its
// uncompressed size crosses a configured target, and persisting the
// dictionaries, per-file metadata, and archive totals that result.
//
// Grounded on mebo's blob_set.go (a set of blobs sharing index/metadata
// bookkeeping, closed and flushed as a unit) and on clparchive's own
// dictionary package for the flush/index discipline a segment close
// triggers.
package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/clparchive/clp/compress"
	"github.com/clparchive/clp/errs"
	"github.com/clparchive/clp/stage"
)

// Segment is an open, append-only byte stream keyed by ID (§3 "Segment").
// Files are appended to it in attachment order; its UncompressedSize is
// compared against the archive's target to decide when to close.
type Segment struct {
	ID   int64
	path string
	file *os.File
	codec compress.Codec

	UncompressedSize int64

	// Pending per-segment id accumulators (§4.10 step 3), cleared exactly
	// once when the segment closes (§5, §9 open question #4).
	TemplateIDs map[int64]struct{}
	VarIDs      map[int64]struct{}

	// AttachedFiles records, in attachment order, the files appended to
	// this segment, so Close can persist their metadata and hand them off.
	AttachedFiles []*stage.File
}

// openSegment creates segment file segmentID under dir.
func openSegment(dir string, segmentID int64, codec compress.Codec) (*Segment, error) {
	path := filepath.Join(dir, fmt.Sprintf("%d", segmentID))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open segment %d: %v", errs.ErrIOFailure, segmentID, err)
	}

	return &Segment{
		ID:          segmentID,
		path:        path,
		file:        f,
		codec:       codec,
		TemplateIDs: make(map[int64]struct{}),
		VarIDs:      make(map[int64]struct{}),
	}, nil
}

// Append writes a file's three encoded regions (timestamps, template ids,
// variables) to the segment, in that order, and returns the byte offset of
// each region's header within the segment file (§4.10 step 4).
func (s *Segment) Append(timestamps, templateIDs, variables []byte) (tsOff, tmplOff, varOff int64, err error) {
	if s.file == nil {
		return 0, 0, 0, fmt.Errorf("%w: segment %d", errs.ErrSegmentClosed, s.ID)
	}

	info, err := s.file.Stat()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: stat segment %d: %v", errs.ErrIOFailure, s.ID, err)
	}
	offset := info.Size()

	tsOff = offset
	n, uLen, err := writeRegion(s.file, s.codec, timestamps)
	if err != nil {
		return 0, 0, 0, err
	}
	offset += n
	s.UncompressedSize += uLen

	tmplOff = offset
	n, uLen, err = writeRegion(s.file, s.codec, templateIDs)
	if err != nil {
		return 0, 0, 0, err
	}
	offset += n
	s.UncompressedSize += uLen

	varOff = offset
	n, uLen, err = writeRegion(s.file, s.codec, variables)
	if err != nil {
		return 0, 0, 0, err
	}
	s.UncompressedSize += uLen

	return tsOff, tmplOff, varOff, nil
}

// ReadRegion decompresses the region at byteOffset within the closed
// segment file at path, using codec.
func ReadRegion(path string, codec compress.Decompressor, byteOffset int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open segment %s: %v", errs.ErrIOFailure, path, err)
	}
	defer f.Close()

	return readRegionAt(f, codec, byteOffset)
}

// close flushes and closes the underlying segment file. It does not clear
// the pending id accumulators — that is Archive.closeSegment's job, done
// exactly once (§9 open question #4).
func (s *Segment) close() error {
	if s.file == nil {
		return nil
	}

	if err := s.file.Sync(); err != nil {
		s.file.Close()
		s.file = nil
		return fmt.Errorf("%w: sync segment %d: %v", errs.ErrIOFailure, s.ID, err)
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("%w: close segment %d: %v", errs.ErrIOFailure, s.ID, err)
	}

	return nil
}
