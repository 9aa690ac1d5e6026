package archive

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/clparchive/clp/format"
	"github.com/clparchive/clp/internal/options"
	"github.com/clparchive/clp/variable"
)

// DefaultTargetSegmentUncompressedSize is used when no
// WithTargetSegmentUncompressedSize option is given (64MiB of uncompressed timestamp/template-id/variable
// bytes per segment before a close is triggered, §3 "Segment").
const DefaultTargetSegmentUncompressedSize = int64(64) << 20

// Config holds an archive's open-time configuration (§3 "Archive").
type Config struct {
	CreatorUUID                   uuid.UUID
	TargetSegmentUncompressedSize int64
	CompressionType                format.CompressionType
	VarRange                       variable.Range
	GlobalMetadataDB               GlobalMetadataDB
	ProgressWriter                 io.Writer
	Logger                         *logrus.Logger
}

// NewConfig returns a Config with the defaults every archive starts from.
func NewConfig() *Config {
	return &Config{
		CreatorUUID:                    uuid.New(),
		TargetSegmentUncompressedSize: DefaultTargetSegmentUncompressedSize,
		CompressionType:                format.CompressionZstd,
		VarRange:                       variable.Range{Begin: int64(1) << 60, End: int64(1) << 61},
		GlobalMetadataDB:               NoopGlobalMetadataDB{},
		Logger:                         logrus.New(),
	}
}

// Option configures an archive at Open time.
type Option = options.Option[*Config]

// WithCreatorUUID sets the UUID recorded as having created the archive.
func WithCreatorUUID(id uuid.UUID) Option {
	return options.NoError(func(c *Config) { c.CreatorUUID = id })
}

// WithTargetSegmentUncompressedSize overrides the segment-close threshold.
func WithTargetSegmentUncompressedSize(n int64) Option {
	return options.NoError(func(c *Config) { c.TargetSegmentUncompressedSize = n })
}

// WithCompressionType selects the codec used to frame segments, dictionary
// files, and column segments.
func WithCompressionType(t format.CompressionType) Option {
	return options.NoError(func(c *Config) { c.CompressionType = t })
}

// WithVarRange overrides the reserved dictionary-ID range (§9: "pass
// explicitly rather than held as global state").
func WithVarRange(r variable.Range) Option {
	return options.NoError(func(c *Config) { c.VarRange = r })
}

// WithGlobalMetadataDB registers the cross-archive metadata store the
// archive reports to at open/segment-close/close (SPEC_FULL.md
// SUPPLEMENTED FEATURES #5).
func WithGlobalMetadataDB(db GlobalMetadataDB) Option {
	return options.NoError(func(c *Config) { c.GlobalMetadataDB = db })
}

// WithProgressWriter enables the archive-stats progress line printed at
// each segment close (SPEC_FULL.md SUPPLEMENTED FEATURES #6).
func WithProgressWriter(w io.Writer) Option {
	return options.NoError(func(c *Config) { c.ProgressWriter = w })
}

// WithLogger overrides the default logrus logger.
func WithLogger(l *logrus.Logger) Option {
	return options.NoError(func(c *Config) { c.Logger = l })
}
