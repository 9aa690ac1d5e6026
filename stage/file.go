// Package stage implements the file stager (§4.9 / §3 "Staged file"): the
// in-memory accumulation of one source file's encoded timestamps,
// template ids, and variable slots between the moment the message parser
// emits a record and the moment the archive attaches the file to a
// segment.
//
// Grounded on InMemoryFile.cpp's accumulation vectors and the state machine
// in §4.10 ("Open -> Closed -> PendingSegment -> InUncommittedSegment ->
// InCommittedSegment"); the on-disk OnDiskFile variant named alongside it
// is not reimplemented here (SPEC_FULL.md's SUPPLEMENTED FEATURES #4) since
// nothing in this archive's write path needs incremental on-disk flush of
// an individual staged file ahead of segment attachment.
package stage

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/clparchive/clp/column"
	"github.com/clparchive/clp/errs"
)

// State is a staged file's position in the lifecycle described by §4.10.
type State int

const (
	// StateOpen accepts WriteEncodedMsg/WriteEncodedJSONMsg calls.
	StateOpen State = iota
	// StateClosed has been released by its writer but not yet claimed by
	// the archive for segment attachment.
	StateClosed
	// StatePendingSegment has been handed to Archive.MarkFileReadyForSegment
	// and is being attached.
	StatePendingSegment
	// StateInUncommittedSegment has been attached to a segment that has not
	// yet closed.
	StateInUncommittedSegment
	// StateInCommittedSegment's segment has closed; the file's buffers have
	// been handed off and only its metadata remains live.
	StateInCommittedSegment
)

// Kind distinguishes a text source file (whose TemplateIDs index the
// logtype dictionary) from a JSON source file (whose TemplateIDs index the
// jsontype dictionary) — the archive needs this to know which dictionary's
// per-segment accumulator a file's template ids belong to (§4.10 step 3).
type Kind int

const (
	KindText Kind = iota
	KindJSON
)

// TSPatternMark records that, starting at message index MsgIndex, the file
// switched to a new timestamp pattern (§3 "ts_patterns").
type TSPatternMark struct {
	MsgIndex int
	Pattern  string
}

// SegmentAttachment records where a file's three byte regions landed
// inside the segment it was attached to (§4.10 step 4).
type SegmentAttachment struct {
	SegmentID        int64
	TimestampsOffset int64
	TemplateIDsOffset int64
	VariablesOffset  int64
}

// File is one source file's accumulated encoding state (§3 "Staged file").
//
// Invariants maintained by WriteEncodedMsg/WriteEncodedJSONMsg:
//   - len(Timestamps) == len(TemplateIDs) == number of messages written
//   - for the template at message i, the next template.NumVars slots of
//     Variables belong to that message (the caller supplies exactly that
//     many vars per call)
//   - BeginTS <= EndTS once any timestamped message has been written
type File struct {
	ID           uuid.UUID
	OriginalPath string
	GroupID      int64
	SplitIndex   int
	Kind         Kind

	Timestamps  []int64
	TemplateIDs []int64
	Variables   []int64

	ColumnWriters map[string]column.Writer

	NumUncompressedBytes int64
	BeginTS              int64
	EndTS                int64
	HasAnyTimestamp      bool

	TSPatterns []TSPatternMark

	State             State
	SegmentAttachment *SegmentAttachment
}

// New creates an open staged file for originalPath.
func New(originalPath string, groupID int64, splitIndex int, kind Kind) *File {
	return &File{
		ID:            uuid.New(),
		OriginalPath:  originalPath,
		GroupID:       groupID,
		SplitIndex:    splitIndex,
		Kind:          kind,
		ColumnWriters: make(map[string]column.Writer),
		State:         StateOpen,
	}
}

// WriteEncodedMsg appends one text-encoded message: its timestamp (ignored
// if hasTS is false), logtype/jsontype template id, and the variables the
// encoder emitted for it.
func (f *File) WriteEncodedMsg(ts int64, hasTS bool, templateID int64, vars []int64, nbytes int64) error {
	if f.State != StateOpen {
		return fmt.Errorf("%w: file %s", errs.ErrFileNotOpen, f.ID)
	}

	f.Timestamps = append(f.Timestamps, ts)
	f.TemplateIDs = append(f.TemplateIDs, templateID)
	f.Variables = append(f.Variables, vars...)
	f.NumUncompressedBytes += nbytes

	if hasTS {
		if !f.HasAnyTimestamp {
			f.BeginTS = ts
			f.EndTS = ts
			f.HasAnyTimestamp = true
		} else {
			if ts < f.BeginTS {
				f.BeginTS = ts
			}
			if ts > f.EndTS {
				f.EndTS = ts
			}
		}
	}

	return nil
}

// WriteEncodedJSONMsg appends one JSON-encoded message and additionally
// fans its extracted leaves out to the file's per-column writers (§4.8),
// creating a column lazily the first time a given dotted key path is seen.
func (f *File) WriteEncodedJSONMsg(ts int64, hasTS bool, jsontypeID int64, vars []int64, nbytes int64, extractedLeaves map[string]ExtractedLeaf) error {
	if err := f.WriteEncodedMsg(ts, hasTS, jsontypeID, vars, nbytes); err != nil {
		return err
	}

	for path, leaf := range extractedLeaves {
		w, ok := f.ColumnWriters[path]
		if !ok {
			w = newColumnWriter(leaf.Kind)
			f.ColumnWriters[path] = w
		}

		if err := addLeafToWriter(w, leaf); err != nil {
			return fmt.Errorf("stage: column %q: %w", path, err)
		}
	}

	return nil
}

// ExtractedLeaf is one scalar value lifted out of a JSON document for
// columnar storage alongside the template-encoded representation (§4.8).
type ExtractedLeaf struct {
	Kind   column.Kind
	Int    int64
	Float  float64
	String string
}

func newColumnWriter(kind column.Kind) column.Writer {
	switch kind {
	case column.KindInt64:
		return column.NewInt64Writer()
	case column.KindFloat64:
		return column.NewFloatWriter()
	default:
		return column.NewStringWriter(1 << 32)
	}
}

func addLeafToWriter(w column.Writer, leaf ExtractedLeaf) error {
	switch tw := w.(type) {
	case *column.Int64Writer:
		tw.AddValue(leaf.Int)
	case *column.FloatWriter:
		tw.AddValue(leaf.Float)
	case *column.StringWriter:
		if _, err := tw.AddValue(leaf.String); err != nil {
			return err
		}
	}

	return nil
}

// NumMessages reports how many records have been written so far.
func (f *File) NumMessages() int {
	return len(f.Timestamps)
}

// Release transitions the file from Open to Closed: no further writes are
// accepted, but its buffers are retained until the archive attaches it to
// a segment.
func (f *File) Release() error {
	if f.State != StateOpen {
		return fmt.Errorf("%w: file %s", errs.ErrFileAlreadyClosed, f.ID)
	}
	f.State = StateClosed

	return nil
}

// MarkPendingSegment transitions Closed -> PendingSegment. Called by the
// archive at the start of MarkFileReadyForSegment.
func (f *File) MarkPendingSegment() error {
	if f.State != StateClosed {
		return fmt.Errorf("%w: file %s is not closed", errs.ErrFileNotOpen, f.ID)
	}
	f.State = StatePendingSegment

	return nil
}

// Attach transitions PendingSegment -> InUncommittedSegment, recording
// where the file's regions landed in the segment.
func (f *File) Attach(attachment SegmentAttachment) error {
	if f.State != StatePendingSegment {
		return fmt.Errorf("%w: file %s", errs.ErrFileAlreadyAttached, f.ID)
	}
	f.SegmentAttachment = &attachment
	f.State = StateInUncommittedSegment

	return nil
}

// Commit transitions InUncommittedSegment -> InCommittedSegment and frees
// the file's byte buffers: after this point only metadata (ID, path,
// offsets, timestamps range) remains meaningful.
func (f *File) Commit() {
	f.State = StateInCommittedSegment
	f.Timestamps = nil
	f.TemplateIDs = nil
	f.Variables = nil
	f.ColumnWriters = nil
}
