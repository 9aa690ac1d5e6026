package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/clparchive/clp/column"
	"github.com/clparchive/clp/compress"
	"github.com/clparchive/clp/dictionary"
	"github.com/clparchive/clp/endian"
	"github.com/clparchive/clp/errs"
	"github.com/clparchive/clp/format"
	"github.com/clparchive/clp/internal/options"
	"github.com/clparchive/clp/section"
	"github.com/clparchive/clp/stage"
	"github.com/clparchive/clp/variable"
)

// File names within an archive directory (§6).
const (
	metadataFileName  = "metadata"
	metadataDBName    = "metadata.db"
	logsDirName       = "logs"
	segmentsDirName   = "segments"
	columnSegmentsDir = "column_segments"

	varDictFile       = "var.dict"
	varSegIndexFile   = "var.segindex"
	logtypeDictFile   = "logtype.dict"
	logtypeSegIndex   = "logtype.segindex"
	jsontypeDictFile  = "jsontype.dict"
	jsontypeSegIndex  = "jsontype.segindex"
)

// Archive is a single output directory produced by one writer session (§3
// "Archive"). It owns all three dictionaries and both segments (one for
// files with a recognized timestamp pattern, one for files without,
// SPEC_FULL.md SUPPLEMENTED FEATURES #3) and is mutated only by the single
// writer goroutine that opened it (§5).
type Archive struct {
	UUID          uuid.UUID
	CreatorUUID   uuid.UUID
	CreationNum   int64
	Path          string
	LogsDir       string
	SegmentsDir   string
	ColumnSegDir  string

	VarDict      *dictionary.Writer
	LogtypeDict  *dictionary.Writer
	JsontypeDict *dictionary.Writer
	VarRange     variable.Range

	Codec           compress.Codec
	CompressionType format.CompressionType

	NextSegmentID                 int64
	TargetSegmentUncompressedSize int64

	StableUncompressedSize int64
	StableSize             int64

	MutableFiles map[uuid.UUID]*stage.File

	segmentWithTS    *Segment
	segmentWithoutTS *Segment

	metaDB   *sql.DB
	globalDB GlobalMetadataDB
	cfg      *Config

	mu sync.Mutex
}

// Open creates a fresh archive directory at path (§4.10 "Open").
func Open(path string, opts ...Option) (*Archive, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrArchivePathExists, path)
	}

	cfg := NewConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if !cfg.VarRange.Valid() {
		return nil, fmt.Errorf("%w: variable dictionary id range", errs.ErrInvalidRange)
	}

	logsDir := filepath.Join(path, logsDirName)
	segmentsDir := filepath.Join(path, segmentsDirName)
	columnSegDir := filepath.Join(path, columnSegmentsDir)

	for _, dir := range []string{path, logsDir, segmentsDir, columnSegDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir %s: %v", errs.ErrIOFailure, dir, err)
		}
	}

	codec, err := compress.CreateCodec(cfg.CompressionType, "archive")
	if err != nil {
		return nil, err
	}

	metaDB, err := openMetadataDB(filepath.Join(path, metadataDBName))
	if err != nil {
		return nil, err
	}

	a := &Archive{
		UUID:                           uuid.New(),
		CreatorUUID:                    cfg.CreatorUUID,
		Path:                           path,
		LogsDir:                        logsDir,
		SegmentsDir:                    segmentsDir,
		ColumnSegDir:                   columnSegDir,
		VarDict:                        dictionary.NewWriter(cfg.VarRange.End - cfg.VarRange.Begin),
		LogtypeDict:                    dictionary.NewWriter(format.DefaultLogtypeDictionaryIDMax),
		JsontypeDict:                   dictionary.NewWriter(format.DefaultJsontypeDictionaryIDMax),
		VarRange:                       cfg.VarRange,
		Codec:                          codec,
		CompressionType:                cfg.CompressionType,
		TargetSegmentUncompressedSize: cfg.TargetSegmentUncompressedSize,
		MutableFiles:                   make(map[uuid.UUID]*stage.File),
		metaDB:                         metaDB,
		globalDB:                       cfg.GlobalMetadataDB,
		cfg:                            cfg,
	}

	if err := a.writeMetadataHeader(); err != nil {
		metaDB.Close()
		return nil, err
	}

	if err := a.globalDB.AddArchive(a.UUID, a.CreatorUUID, a.Path); err != nil {
		cfg.Logger.WithError(err).Warn("archive: global metadata db registration failed")
	}

	return a, nil
}

func (a *Archive) writeMetadataHeader() error {
	hdr := section.MetadataHeader{FormatVersion: format.ArchiveFormatVersion}

	return os.WriteFile(filepath.Join(a.Path, metadataFileName), hdr.Bytes(), 0o644)
}

// NewFile creates a new open staged file owned by this archive (§3 "a file
// is exclusively owned by the archive while staging").
func (a *Archive) NewFile(originalPath string, kind stage.Kind, groupID int64, splitIndex int) *stage.File {
	a.mu.Lock()
	defer a.mu.Unlock()

	f := stage.New(originalPath, groupID, splitIndex, kind)
	a.MutableFiles[f.ID] = f

	return f
}

// ReleaseFile transitions f from Open to Closed (§4.10 "release moves to
// Closed").
func (a *Archive) ReleaseFile(f *stage.File) error {
	return f.Release()
}

// MarkFileReadyForSegment implements §4.10's per-file attachment steps:
// selecting the target segment, opening it if needed, unioning the file's
// dictionary ids into the segment's pending accumulators, appending the
// file's three byte regions, appending its column data, and closing the
// segment if it has crossed the configured size target.
func (a *Archive) MarkFileReadyForSegment(f *stage.File) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := f.MarkPendingSegment(); err != nil {
		return err
	}

	seg, err := a.targetSegment(f.HasAnyTimestamp)
	if err != nil {
		return err
	}

	a.unionFileIDs(seg, f)

	tsBytes := int64SliceBytes(f.Timestamps)
	tmplBytes := int64SliceBytes(f.TemplateIDs)
	varBytes := int64SliceBytes(f.Variables)

	tsOff, tmplOff, varOff, err := seg.Append(tsBytes, tmplBytes, varBytes)
	if err != nil {
		return err
	}

	if err := f.Attach(stage.SegmentAttachment{
		SegmentID:         seg.ID,
		TimestampsOffset:  tsOff,
		TemplateIDsOffset: tmplOff,
		VariablesOffset:   varOff,
	}); err != nil {
		return err
	}

	if err := a.appendColumnWriters(seg.ID, f); err != nil {
		return err
	}

	seg.AttachedFiles = append(seg.AttachedFiles, f)

	if seg.UncompressedSize >= a.TargetSegmentUncompressedSize {
		return a.closeSegment(seg, f.HasAnyTimestamp)
	}

	return nil
}

// targetSegment selects (and lazily opens) the segment for files with vs.
// without a recognized timestamp pattern (SPEC_FULL.md SUPPLEMENTED
// FEATURES #3).
func (a *Archive) targetSegment(hasTS bool) (*Segment, error) {
	slot := &a.segmentWithoutTS
	if hasTS {
		slot = &a.segmentWithTS
	}

	if *slot != nil {
		return *slot, nil
	}

	seg, err := openSegment(a.SegmentsDir, a.NextSegmentID, a.Codec)
	if err != nil {
		return nil, err
	}
	a.NextSegmentID++
	*slot = seg

	return seg, nil
}

// unionFileIDs implements §4.10 step 3: merge the file's template ids into
// the appropriate dictionary's accumulator on seg, and decode every
// dictionary-ID variable slot into the variable accumulator.
func (a *Archive) unionFileIDs(seg *Segment, f *stage.File) {
	for _, id := range f.TemplateIDs {
		seg.TemplateIDs[id] = struct{}{}
	}

	for _, slot := range f.Variables {
		if a.VarRange.IsDictID(slot) {
			id, err := a.VarRange.DecodeDictID(slot)
			if err == nil {
				seg.VarIDs[id] = struct{}{}
			}
		}
	}
}

// appendColumnWriters appends a file's per-column buffers to the matching
// per-column segment file under column_segments/<key>/<segment_id> (§4.8,
// §4.10 step 5).
func (a *Archive) appendColumnWriters(segmentID int64, f *stage.File) error {
	for key, w := range f.ColumnWriters {
		dir := filepath.Join(a.ColumnSegDir, sanitizeColumnKey(key))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %v", errs.ErrIOFailure, dir, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%d", segmentID))
		cf, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", errs.ErrIOFailure, path, err)
		}

		_, _, err = writeRegion(cf, a.Codec, w.Bytes())
		cf.Close()
		if err != nil {
			return err
		}

		if sw, ok := w.(*column.StringWriter); ok {
			dictPath := filepath.Join(dir, fmt.Sprintf("%d.dict", segmentID))
			blob, err := dictionary.WriteValues(a.Codec, sw.Dict().AllEntries())
			if err != nil {
				return err
			}
			if err := writeSnapshot(dictPath, blob); err != nil {
				return err
			}
		}
	}

	return nil
}

// int64SliceBytes packs vals into a little-endian byte buffer, the layout
// every region (timestamps, template ids, variables) shares on disk (§3).
func int64SliceBytes(vals []int64) []byte {
	engine := endian.GetLittleEndianEngine()
	buf := make([]byte, 0, len(vals)*8)
	for _, v := range vals {
		buf = engine.AppendUint64(buf, uint64(v))
	}

	return buf
}

func sanitizeColumnKey(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '/' || c == '\\' || c == '.' || c == ' ' {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}

	return string(out)
}

// closeSegment implements §4.10 "Close segment": index each dictionary
// with the accumulated ID sets, flush pending dictionary entries to disk,
// close the segment stream, persist per-file metadata, update archive
// totals, and clear the accumulators exactly once (§9 open question #4).
func (a *Archive) closeSegment(seg *Segment, hasTS bool) error {
	logtypeIDs, jsontypeIDs := splitTemplateIDsByFileKind(seg)

	if len(logtypeIDs) > 0 {
		a.LogtypeDict.IndexSegment(seg.ID, logtypeIDs)
	}
	if len(jsontypeIDs) > 0 {
		a.JsontypeDict.IndexSegment(seg.ID, jsontypeIDs)
	}

	varIDs := make([]int64, 0, len(seg.VarIDs))
	for id := range seg.VarIDs {
		varIDs = append(varIDs, id)
	}
	a.VarDict.IndexSegment(seg.ID, varIDs)

	if err := flushDictionary(a.VarDict, a.Codec, filepath.Join(a.Path, varDictFile), filepath.Join(a.Path, varSegIndexFile)); err != nil {
		return err
	}
	if err := flushDictionary(a.LogtypeDict, a.Codec, filepath.Join(a.Path, logtypeDictFile), filepath.Join(a.Path, logtypeSegIndex)); err != nil {
		return err
	}
	if err := flushDictionary(a.JsontypeDict, a.Codec, filepath.Join(a.Path, jsontypeDictFile), filepath.Join(a.Path, jsontypeSegIndex)); err != nil {
		return err
	}

	if err := seg.close(); err != nil {
		return err
	}

	if err := persistFileMetadata(a.metaDB, seg.AttachedFiles); err != nil {
		return err
	}

	fileIDs := make([]uuid.UUID, len(seg.AttachedFiles))
	for i, f := range seg.AttachedFiles {
		fileIDs[i] = f.ID
		f.Commit()
		delete(a.MutableFiles, f.ID)
	}
	if err := a.globalDB.UpdateMetadataForFiles(a.UUID, fileIDs); err != nil {
		a.cfg.Logger.WithError(err).Warn("archive: global metadata db file update failed")
	}

	a.StableUncompressedSize += seg.UncompressedSize
	if info, err := os.Stat(seg.path); err == nil {
		a.StableSize += info.Size()
	}

	if err := a.rewriteMetadataHeader(); err != nil {
		return err
	}
	if err := a.globalDB.UpdateArchiveSize(a.UUID, a.StableUncompressedSize, a.StableSize); err != nil {
		a.cfg.Logger.WithError(err).Warn("archive: global metadata db size update failed")
	}

	a.reportProgress(seg)

	seg.TemplateIDs = make(map[int64]struct{})
	seg.VarIDs = make(map[int64]struct{})
	seg.AttachedFiles = nil

	if hasTS {
		a.segmentWithTS = nil
	} else {
		a.segmentWithoutTS = nil
	}

	return nil
}

// splitTemplateIDsByFileKind partitions seg's unioned template ids between
// the logtype and jsontype dictionaries, based on which kind of file each
// attached file was (stage.KindText vs stage.KindJSON).
func splitTemplateIDsByFileKind(seg *Segment) (logtypeIDs, jsontypeIDs []int64) {
	seen := make(map[int64]bool, len(seg.TemplateIDs))
	for _, f := range seg.AttachedFiles {
		for _, id := range f.TemplateIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if f.Kind == stage.KindJSON {
				jsontypeIDs = append(jsontypeIDs, id)
			} else {
				logtypeIDs = append(logtypeIDs, id)
			}
		}
	}

	return logtypeIDs, jsontypeIDs
}

func (a *Archive) rewriteMetadataHeader() error {
	hdr := section.MetadataHeader{
		FormatVersion:          format.ArchiveFormatVersion,
		StableUncompressedSize: uint64(a.StableUncompressedSize),
		StableSize:             uint64(a.StableSize),
	}

	return os.WriteFile(filepath.Join(a.Path, metadataFileName), hdr.Bytes(), 0o644)
}

func (a *Archive) reportProgress(seg *Segment) {
	if a.cfg.ProgressWriter == nil {
		return
	}

	fmt.Fprintf(a.cfg.ProgressWriter,
		`{"segment_id":%d,"num_files":%d,"uncompressed_size":%d,"stable_size":%d}`+"\n",
		seg.ID, len(seg.AttachedFiles), seg.UncompressedSize, a.StableSize)
}

// Close closes both open segments, flushes dictionaries a final time, and
// closes the metadata DB (§4.10 "Close archive"). It refuses to close
// while any mutable file has not yet been attached to a segment (whether
// or not it was released), matching §5's resource discipline.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, f := range a.MutableFiles {
		if f.State < stage.StateInUncommittedSegment {
			return fmt.Errorf("%w: file %s", errs.ErrArchiveHasOpenFiles, f.ID)
		}
	}

	if a.segmentWithTS != nil {
		if err := a.closeSegment(a.segmentWithTS, true); err != nil {
			return err
		}
	}
	if a.segmentWithoutTS != nil {
		if err := a.closeSegment(a.segmentWithoutTS, false); err != nil {
			return err
		}
	}

	if err := flushDictionary(a.VarDict, a.Codec, filepath.Join(a.Path, varDictFile), filepath.Join(a.Path, varSegIndexFile)); err != nil {
		return err
	}
	if err := flushDictionary(a.LogtypeDict, a.Codec, filepath.Join(a.Path, logtypeDictFile), filepath.Join(a.Path, logtypeSegIndex)); err != nil {
		return err
	}
	if err := flushDictionary(a.JsontypeDict, a.Codec, filepath.Join(a.Path, jsontypeDictFile), filepath.Join(a.Path, jsontypeSegIndex)); err != nil {
		return err
	}

	if err := a.metaDB.Close(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrMetadataDBOpen, err)
	}

	return a.rewriteMetadataHeader()
}
