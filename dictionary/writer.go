package dictionary

import (
	"fmt"
	"sync"

	"github.com/clparchive/clp/errs"
	"github.com/clparchive/clp/internal/hash"
)

// Writer interns values into dense ids. Safe only for the single archive
// writer goroutine that owns it (§5, "single-threaded cooperative").
type Writer struct {
	mu sync.Mutex

	entries   []Entry
	byValue   map[uint64][]int64 // hash(value) -> indices into entries, for collision handling
	nextID    int64
	maxID     int64
	pendingID int // index into entries of first not-yet-flushed entry
}

// NewWriter creates an empty dictionary writer. maxID bounds the number of
// distinct entries the dictionary can hold before InsertOrGet starts
// returning errs.ErrDictIDOutOfRange (see format.DefaultLogtypeDictionaryIDMax
// / format.DefaultJsontypeDictionaryIDMax for the defaults used by the
// logtype/jsontype dictionaries).
func NewWriter(maxID int64) *Writer {
	return &Writer{
		byValue: make(map[uint64][]int64),
		maxID:   maxID,
	}
}

// InsertOrGet interns value, returning its id and whether this call created
// a new entry. numVars is recorded on new entries only (see Entry.NumVars);
// it is ignored for values that already exist, since a template's variable
// count depends only on its text.
//
// This is the re-architected form of the source's add_occurrence: no
// pointer or builder crosses the call boundary, so the caller never needs
// to construct a throwaway replacement after each insert (§9).
func (w *Writer) InsertOrGet(value string, numVars int) (id int64, isNew bool, err error) {
	if value == "" {
		return 0, false, fmt.Errorf("%w: dictionary entry", errs.ErrEmptyValue)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	h := hash.ID(value)
	for _, idx := range w.byValue[h] {
		if w.entries[idx].Value == value {
			return w.entries[idx].ID, false, nil
		}
	}

	if w.nextID >= w.maxID {
		return 0, false, fmt.Errorf("%w: dictionary is at capacity (%d entries)", errs.ErrDictIDOutOfRange, w.maxID)
	}

	id = w.nextID
	w.nextID++

	idx := len(w.entries)
	w.entries = append(w.entries, Entry{
		ID:                 id,
		Value:              value,
		NumVars:            numVars,
		SegmentsContaining: make(map[int64]struct{}),
	})
	w.byValue[h] = append(w.byValue[h], idx)

	return id, true, nil
}

// IndexSegment unions segmentID into every named entry's segment set.
// ids that do not correspond to a known entry are ignored: a reader that
// decoded a stale slot should not be able to corrupt the writer's state.
func (w *Writer) IndexSegment(segmentID int64, ids []int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range ids {
		idx := w.indexOfID(id)
		if idx < 0 {
			continue
		}
		w.entries[idx].SegmentsContaining[segmentID] = struct{}{}
	}
}

// indexOfID maps id straight to its index without scanning: ids are dense
// and assigned in entries' append order, so entries[id] is a valid index
// whenever id < len(entries).
func (w *Writer) indexOfID(id int64) int {
	if id < 0 || int(id) >= len(w.entries) {
		return -1
	}

	return int(id)
}

// Get returns a copy of the entry with the given id.
func (w *Writer) Get(id int64) (Entry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.indexOfID(id)
	if idx < 0 {
		return Entry{}, false
	}

	return w.entries[idx], true
}

// Len returns the number of interned entries.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.entries)
}

// PendingEntries returns the entries inserted since the last call to
// MarkFlushed, in id order. The archive writer calls this at segment close
// to append newly-interned entries to the on-disk value file without
// rewriting entries already on disk (the segment-index file is rewritten
// from AllEntries instead).
func (w *Writer) PendingEntries() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Entry, len(w.entries)-w.pendingID)
	copy(out, w.entries[w.pendingID:])

	return out
}

// MarkFlushed records that every entry up through the current length has
// been durably written.
func (w *Writer) MarkFlushed() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pendingID = len(w.entries)
}

// AllEntries returns every entry currently held, in id order. Used when
// writing a full (non-incremental) snapshot of the dictionary.
func (w *Writer) AllEntries() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Entry, len(w.entries))
	copy(out, w.entries)

	return out
}
