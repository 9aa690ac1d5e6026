package archive

import "github.com/google/uuid"

// GlobalMetadataDB is the narrow interface an archive reports to at open,
// segment close, and close (§3 "register the archive with the global
// metadata DB"; SPEC_FULL.md SUPPLEMENTED FEATURES #5). It models the
// source's cross-archive MongoDB-backed store without building a second
// one: the out-of-scope "MongoDB result caching" collaborator named in
// spec.md §1 is the real implementation a deployment would plug in here.
type GlobalMetadataDB interface {
	// AddArchive registers a newly opened archive.
	AddArchive(archiveID uuid.UUID, creatorID uuid.UUID, path string) error
	// UpdateMetadataForFiles reports the files committed to a just-closed
	// segment.
	UpdateMetadataForFiles(archiveID uuid.UUID, fileIDs []uuid.UUID) error
	// UpdateArchiveSize reports the archive's running totals.
	UpdateArchiveSize(archiveID uuid.UUID, uncompressedSize, size int64) error
}

// NoopGlobalMetadataDB is the default GlobalMetadataDB: an archive used
// standalone (no cross-archive store configured) reports to it and the
// reports are simply discarded.
type NoopGlobalMetadataDB struct{}

var _ GlobalMetadataDB = NoopGlobalMetadataDB{}

func (NoopGlobalMetadataDB) AddArchive(uuid.UUID, uuid.UUID, string) error { return nil }
func (NoopGlobalMetadataDB) UpdateMetadataForFiles(uuid.UUID, []uuid.UUID) error { return nil }
func (NoopGlobalMetadataDB) UpdateArchiveSize(uuid.UUID, int64, int64) error { return nil }
