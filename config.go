package zindex

import (
	"github.com/oarkflow/zindex/internal/catalog"
	"github.com/oarkflow/zindex/internal/checkpoint"
)

// LineIndexer is implemented by anything that can pull keys out of a line's
// bytes and report them to a sink: extract.FieldIndexer,
// extract.ExternalIndexer, or a caller-supplied type.
type LineIndexer = catalog.LineIndexer

// IndexSpec describes one named index a Builder should populate: what
// extractor produces its keys, and how those keys should be interpreted and
// enforced.
type IndexSpec struct {
	Name           string
	CreationString string
	Numeric        bool
	Unique         bool
	Indexer        LineIndexer
}

// Config controls one Builder run. Zero values fall back to the defaults
// DefaultConfig documents. A Reader's own force-open policy is a separate,
// per-call argument to Open, not part of this struct: Build always replaces
// an existing index file, so there is nothing here for it to control.
type Config struct {
	IndexEvery int64
	SkipFirst  int64
	Indexes    []IndexSpec
	LogEvery   int64
}

// DefaultConfig returns the configuration a Builder uses when the caller
// supplies none: a checkpoint every 32 MiB of uncompressed output, no lines
// skipped.
func DefaultConfig() *Config {
	return &Config{
		IndexEvery: checkpoint.DefaultIndexEvery,
	}
}

// MergeConfig layers each of overrides onto a copy of base, in order: any
// non-zero field on an override replaces the accumulated value, and Indexes
// slices are concatenated rather than replaced.
func MergeConfig(base *Config, overrides ...*Config) *Config {
	merged := &Config{}
	if base != nil {
		*merged = *base
	}
	for _, cfg := range overrides {
		if cfg == nil {
			continue
		}
		if cfg.IndexEvery != 0 {
			merged.IndexEvery = cfg.IndexEvery
		}
		if cfg.SkipFirst != 0 {
			merged.SkipFirst = cfg.SkipFirst
		}
		if len(cfg.Indexes) > 0 {
			merged.Indexes = append(merged.Indexes, cfg.Indexes...)
		}
		if cfg.LogEvery != 0 {
			merged.LogEvery = cfg.LogEvery
		}
	}
	return merged
}
