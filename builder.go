package zindex

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/oarkflow/log"
	"github.com/oarkflow/xid"

	"github.com/oarkflow/zindex/internal/catalog"
	"github.com/oarkflow/zindex/internal/checkpoint"
	"github.com/oarkflow/zindex/internal/deflate"
	"github.com/oarkflow/zindex/internal/humanize"
	"github.com/oarkflow/zindex/internal/lines"
	"github.com/oarkflow/zindex/store"
	"github.com/oarkflow/zindex/zerrors"
)

// progressInterval is how often a build logs its throughput, the way the
// reference builder reports progress on long-running indexing jobs.
const progressInterval = 20 * time.Second

// Build scans sourcePath (gzip or zlib framed) and writes a new index to
// indexPath, removing any file already there before starting. A failed
// build leaves no committed index behind: Build removes the stale file up
// front and only ever commits once, at the very end.
func Build(sourcePath, indexPath string, cfg *Config) error {
	cfg = MergeConfig(DefaultConfig(), cfg)
	defer func() {
		for _, spec := range cfg.Indexes {
			if c, ok := spec.Indexer.(io.Closer); ok {
				c.Close()
			}
		}
	}()

	src, err := os.Open(sourcePath)
	if err != nil {
		return &zerrors.IOError{Op: "open source", Err: err}
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return &zerrors.IOError{Op: "stat source", Err: err}
	}

	os.Remove(indexPath)
	st, err := store.Open(indexPath)
	if err != nil {
		return err
	}
	defer st.Close()

	dec, _, err := deflate.NewScanDecoder(src)
	if err != nil {
		return &zerrors.CorruptStream{Offset: 0, Err: err}
	}

	defs := make([]catalog.Definition, 0, len(cfg.Indexes))
	for _, spec := range cfg.Indexes {
		defs = append(defs, catalog.Definition{
			Name:    spec.Name,
			Indexer: spec.Indexer,
			Numeric: spec.Numeric,
			Unique:  spec.Unique,
		})
	}
	cat := catalog.New(defs)

	batch, err := st.Begin()
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			batch.Rollback()
		}
	}()

	for _, spec := range cfg.Indexes {
		if err := batch.DeclareIndex(spec.Name, spec.CreationString, spec.Numeric, spec.Unique); err != nil {
			return err
		}
	}

	sink := &buildSink{batch: batch, catalog: cat, skipFirst: cfg.SkipFirst}
	lf := lines.New(sink)
	cm := checkpoint.New(cfg.IndexEvery)

	// Seed an access point at uncompressed offset 0, right after the framing
	// header: the decoder only reports EndOfBlock at real block boundaries,
	// never at this header boundary, so nothing else would ever cover the
	// start of the stream.
	seedWindow, err := checkpoint.CompressWindow(dec.Window())
	if err != nil {
		return &zerrors.IOError{Op: "compress window", Err: err}
	}
	if err := batch.PutAccessPoint(dec.BytesConsumed(), 0, dec.TotalOut(), seedWindow); err != nil {
		return err
	}
	cm.Mark(dec.TotalOut())

	log.Info().Str("source", sourcePath).Str("index", indexPath).Msg("starting build")

	start := time.Now()
	lastLog := start
	buf := make([]byte, 64*1024)
	for {
		n, ev, stepErr := dec.Step(buf)
		if n > 0 {
			if err := lf.Write(buf[:n]); err != nil {
				return err
			}
		}
		if ev.EndOfBlock {
			if cm.Due(ev, dec.TotalOut()) {
				window := dec.Window()
				compressed, err := checkpoint.CompressWindow(window)
				if err != nil {
					return &zerrors.IOError{Op: "compress window", Err: err}
				}
				if err := batch.PutAccessPoint(dec.BytesConsumed(), ev.BitOffset, dec.TotalOut(), compressed); err != nil {
					return err
				}
				cm.Mark(dec.TotalOut())
			}
		}
		if time.Since(lastLog) >= progressInterval {
			log.Info().
				Str("uncompressed", humanize.Bytes(dec.TotalOut())).
				Str("compressed", humanize.Bytes(dec.BytesConsumed())).
				Str("compressedSize", humanize.Bytes(info.Size())).
				Msg("build in progress")
			lastLog = time.Now()
		}
		if stepErr == io.EOF {
			break
		}
		if stepErr != nil {
			return &zerrors.CorruptStream{Offset: dec.BytesConsumed(), Err: stepErr}
		}
	}
	if err := lf.Finish(); err != nil {
		return err
	}
	if err := batch.CloseAccessPoints(dec.TotalOut()); err != nil {
		return err
	}

	buildID := xid.New().String()
	metaPairs := map[string]string{
		metaSourcePath:    sourcePath,
		metaSourceSize:    strconv.FormatInt(info.Size(), 10),
		metaSourceModTime: strconv.FormatInt(info.ModTime().Unix(), 10),
		metaIndexEvery:    strconv.FormatInt(cfg.IndexEvery, 10),
		metaBuildID:       buildID,
	}
	for k, v := range metaPairs {
		if err := batch.PutMetadata(k, v); err != nil {
			return err
		}
	}

	if err := batch.Commit(); err != nil {
		return err
	}
	committed = true

	log.Info().
		Str("latency", time.Since(start).String()).
		Str("uncompressed", humanize.Bytes(dec.TotalOut())).
		Int64("lines", lf.LineCount()).
		Msg("build complete")
	return nil
}

// buildSink adapts a decoded line to both the LineOffsets table and the
// index catalog, skipping catalog fan-out for the file's first SkipFirst
// lines while still recording their offsets.
type buildSink struct {
	batch     *store.Batch
	catalog   *catalog.Catalog
	skipFirst int64
}

func (s *buildSink) Line(l lines.Line) error {
	length := int64(len(l.Data))
	if l.Terminated {
		length++
	}
	if err := s.batch.PutLine(l.Number, l.Offset, length); err != nil {
		return err
	}
	if l.Number <= s.skipFirst {
		return nil
	}
	return s.catalog.IndexLine(l.Number, l.Data, s.batch)
}
