// Package errs defines the sentinel errors shared across clparchive's packages.
//
// Each sentinel corresponds to one of the error kinds in the archive's error
// taxonomy: BadParam (caller misuse), Corrupt (on-disk invariant violation),
// IOFailure (read/write/seek failure), and Unsupported (state-machine
// violation). EndOfStream is deliberately not a sentinel here: it is a normal
// terminator, represented by io.EOF or a boolean return, never wrapped as an
// error returned to a caller.
package errs

import "errors"

// BadParam: caller passed invalid arguments. ErrBadParam is the category
// sentinel; wrap it (or one of the specific errors below) with %w.
var (
	ErrBadParam           = errors.New("bad parameter")
	ErrEmptyValue         = errors.New("value must not be empty")
	ErrDictPointerReused  = errors.New("dictionary entry builder reused across calls")
	ErrMismatchedDict     = errors.New("encoded variable does not belong to this dictionary")
	ErrInvalidRange       = errors.New("invalid dictionary id range")
	ErrNoTimestampPattern = errors.New("no timestamp pattern available")
)

// Corrupt: on-disk data violates an invariant. ErrCorrupt is the category
// sentinel.
var (
	ErrCorrupt             = errors.New("corrupt archive data")
	ErrUnknownDelimiter    = errors.New("unknown variable delimiter byte")
	ErrVarCountMismatch    = errors.New("template declares more variables than were supplied")
	ErrDictIDOutOfRange    = errors.New("decoded dictionary id is out of range")
	ErrTruncatedRecord     = errors.New("record truncated before its declared end")
	ErrInvalidJSONTemplate = errors.New("jsontype dictionary entry value is not valid JSON")
	ErrUnsupportedVersion  = errors.New("unsupported archive format version")
)

// IOFailure: underlying read/write/seek failed. ErrIOFailure is the
// category sentinel.
var (
	ErrIOFailure      = errors.New("i/o failure")
	ErrSegmentClosed  = errors.New("segment is not open for writing")
	ErrArchiveClosed  = errors.New("archive is not open")
	ErrMetadataDBOpen = errors.New("failed to open metadata database")
)

// Unsupported: state-machine violation. ErrUnsupported is the category
// sentinel.
var (
	ErrUnsupported               = errors.New("unsupported operation")
	ErrFileNotOpen               = errors.New("file is not open for writing")
	ErrFileAlreadyClosed         = errors.New("file is already closed")
	ErrFileNotMutable            = errors.New("file is not a mutable file owned by this archive")
	ErrArchiveHasOpenFiles       = errors.New("archive cannot close while mutable files remain open")
	ErrArchivePathExists         = errors.New("archive path already exists")
	ErrFileAlreadyAttached       = errors.New("file has already been attached to a segment")
	ErrReopenWrittenInMemoryFile = errors.New("cannot reopen an in-memory file that has already been written")
)
