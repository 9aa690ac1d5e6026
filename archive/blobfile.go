package archive

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/clparchive/clp/compress"
	"github.com/clparchive/clp/dictionary"
	"github.com/clparchive/clp/errs"
)

// appendBlob appends a single 4-byte-length-prefixed blob to path, creating
// the file if absent. Used for a dictionary's value file, which is
// append-only: each segment close contributes exactly the entries interned
// since the last flush (§3 "Lifecycles", "a dictionary entry ... is written
// to disk ... its value is flushed once").
func appendBlob(path string, blob []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", errs.ErrIOFailure, path, err)
	}
	defer f.Close()

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(blob)))
	if _, err := f.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("%w: write %s length: %v", errs.ErrIOFailure, path, err)
	}
	if _, err := f.Write(blob); err != nil {
		return fmt.Errorf("%w: write %s body: %v", errs.ErrIOFailure, path, err)
	}

	return nil
}

// readAllBlobs reads every length-prefixed blob written by appendBlob, in
// order. A missing file is treated as zero blobs (a fresh archive).
func readAllBlobs(path string) ([][]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", errs.ErrIOFailure, path, err)
	}

	var blobs [][]byte
	pos := 0
	for pos < len(raw) {
		if pos+4 > len(raw) {
			return nil, fmt.Errorf("%w: %s", errs.ErrTruncatedRecord, path)
		}
		n := int(binary.LittleEndian.Uint32(raw[pos : pos+4]))
		pos += 4
		if pos+n > len(raw) {
			return nil, fmt.Errorf("%w: %s", errs.ErrTruncatedRecord, path)
		}
		blobs = append(blobs, raw[pos:pos+n])
		pos += n
	}

	return blobs, nil
}

// writeSnapshot overwrites path with a single blob: used for a dictionary's
// segment-index file, whose per-entry membership set keeps growing for
// entries already on disk, so an append-only log of deltas would require a
// reader to replay every close; a single current snapshot is simpler and
// is rewritten at each close (documented in DESIGN.md).
func writeSnapshot(path string, blob []byte) error {
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", errs.ErrIOFailure, path, err)
	}

	return nil
}

// flushDictionary appends newly-interned values to valuePath and rewrites
// segIndexPath's full snapshot, then marks w's pending entries flushed.
// Called at each segment close and at archive close (§4.10).
func flushDictionary(w *dictionary.Writer, codec compress.Codec, valuePath, segIndexPath string) error {
	pending := w.PendingEntries()
	if len(pending) > 0 {
		blob, err := dictionary.WriteValues(codec, pending)
		if err != nil {
			return err
		}
		if err := appendBlob(valuePath, blob); err != nil {
			return err
		}
		w.MarkFlushed()
	}

	all := w.AllEntries()
	if len(all) == 0 {
		return nil
	}
	segBlob, err := dictionary.WriteSegIndex(codec, all)
	if err != nil {
		return err
	}

	return writeSnapshot(segIndexPath, segBlob)
}

// loadDictionaryValues reconstructs a dictionary's full entry set (ids
// assigned densely in append order) from its on-disk value file.
func loadDictionaryValues(path string, codec compress.Codec) ([]dictionary.Entry, error) {
	blobs, err := readAllBlobs(path)
	if err != nil {
		return nil, err
	}

	var all []dictionary.Entry
	base := int64(0)
	for _, blob := range blobs {
		entries, err := dictionary.ReadValues(codec, blob)
		if err != nil {
			return nil, err
		}
		for i := range entries {
			entries[i].ID += base
		}
		all = append(all, entries...)
		base += int64(len(entries))
	}

	return all, nil
}

// loadDictionarySegIndex merges a dictionary's on-disk segment-index
// snapshot into entries (matched by position/id). A missing file means no
// segment has closed yet.
func loadDictionarySegIndex(path string, codec compress.Codec, entries []dictionary.Entry) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: read %s: %v", errs.ErrIOFailure, path, err)
	}

	return dictionary.ReadSegIndex(codec, raw, entries)
}
