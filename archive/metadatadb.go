package archive

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/clparchive/clp/errs"
	"github.com/clparchive/clp/stage"
)

// metadataSchema creates the local per-archive file-metadata store (§6
// "metadata.db — local SQLite-style file-metadata store"). One row per
// staged file, written once at segment close (§4.10 "Close segment").
const metadataSchema = `
CREATE TABLE IF NOT EXISTS files (
	id                     TEXT PRIMARY KEY,
	original_path          TEXT NOT NULL,
	group_id               INTEGER NOT NULL,
	split_index            INTEGER NOT NULL,
	kind                   INTEGER NOT NULL,
	segment_id             INTEGER NOT NULL,
	begin_ts               INTEGER NOT NULL,
	end_ts                 INTEGER NOT NULL,
	num_messages           INTEGER NOT NULL,
	num_uncompressed_bytes INTEGER NOT NULL,
	ts_offset              INTEGER NOT NULL,
	template_offset        INTEGER NOT NULL,
	var_offset             INTEGER NOT NULL
);
`

// openMetadataDB opens (creating if absent) the archive's local metadata.db.
func openMetadataDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMetadataDBOpen, err)
	}

	if _, err := db.Exec(metadataSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", errs.ErrMetadataDBOpen, err)
	}

	return db, nil
}

// persistFileMetadata writes one row per file attached to a just-closed
// segment (§4.10 "persist per-file metadata rows (local + global)").
func persistFileMetadata(db *sql.DB, files []*stage.File) error {
	if len(files) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin metadata tx: %v", errs.ErrIOFailure, err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO files
			(id, original_path, group_id, split_index, kind, segment_id,
			 begin_ts, end_ts, num_messages, num_uncompressed_bytes,
			 ts_offset, template_offset, var_offset)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: prepare metadata insert: %v", errs.ErrIOFailure, err)
	}
	defer stmt.Close()

	for _, f := range files {
		att := f.SegmentAttachment
		if att == nil {
			tx.Rollback()
			return fmt.Errorf("%w: file %s has no segment attachment", errs.ErrCorrupt, f.ID)
		}

		_, err := stmt.Exec(
			f.ID.String(), f.OriginalPath, f.GroupID, f.SplitIndex, int(f.Kind), att.SegmentID,
			f.BeginTS, f.EndTS, f.NumMessages(), f.NumUncompressedBytes,
			att.TimestampsOffset, att.TemplateIDsOffset, att.VariablesOffset,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: insert metadata for file %s: %v", errs.ErrIOFailure, f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit metadata tx: %v", errs.ErrIOFailure, err)
	}

	return nil
}

// FileRecord is one row read back from metadata.db, used by a reader to
// locate a file's regions within its segment without re-scanning every
// staged file's original in-memory state.
type FileRecord struct {
	ID                   string
	OriginalPath         string
	GroupID              int64
	SplitIndex           int
	Kind                 stage.Kind
	SegmentID            int64
	BeginTS              int64
	EndTS                int64
	NumMessages          int
	NumUncompressedBytes int64
	TimestampsOffset     int64
	TemplateIDsOffset    int64
	VariablesOffset      int64
}

// ListFiles returns every file recorded in metadata.db, ordered by segment
// then by insertion order within the segment.
func ListFiles(db *sql.DB) ([]FileRecord, error) {
	rows, err := db.Query(`
		SELECT id, original_path, group_id, split_index, kind, segment_id,
		       begin_ts, end_ts, num_messages, num_uncompressed_bytes,
		       ts_offset, template_offset, var_offset
		FROM files ORDER BY segment_id, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query metadata: %v", errs.ErrIOFailure, err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var r FileRecord
		var kind int
		if err := rows.Scan(&r.ID, &r.OriginalPath, &r.GroupID, &r.SplitIndex, &kind, &r.SegmentID,
			&r.BeginTS, &r.EndTS, &r.NumMessages, &r.NumUncompressedBytes,
			&r.TimestampsOffset, &r.TemplateIDsOffset, &r.VariablesOffset); err != nil {
			return nil, fmt.Errorf("%w: scan metadata row: %v", errs.ErrIOFailure, err)
		}
		r.Kind = stage.Kind(kind)
		out = append(out, r)
	}

	return out, rows.Err()
}
