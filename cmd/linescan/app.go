package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/linescan"
	"github.com/hupe1980/linescan/checkpoint"
	"github.com/hupe1980/linescan/internal/fs"
	"github.com/hupe1980/linescan/lineindex"
	"github.com/hupe1980/linescan/resource"
)

// app is one run over all inputs.
type app struct {
	cfg   Config
	set   settings
	runID string
	now   func() time.Time
	stdin io.Reader

	logger      *linescan.Logger
	metrics     *linescan.BasicMetricsCollector
	rc          *resource.Controller
	stores      *resolver
	checkpoints checkpoint.Store
	filter      map[string]any
	out         *output
	closeOut    func() error
	fsys        fs.FileSystem
}

func newApp(ctx context.Context, cfg Config, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	set, err := cfg.parse()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		set:     set,
		runID:   uuid.NewString(),
		now:     func() time.Time { return time.Now().UTC() },
		stdin:   stdin,
		logger:  linescan.NewLogger(newLogHandler(stderr, set.logLevel)),
		metrics: &linescan.BasicMetricsCollector{},
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes: set.memoryLimit,
			MaxStreams:       int64(cfg.Workers),
			ReadBytesPerSec:  set.rate,
		}),
		stores:   newResolver(cfg),
		closeOut: func() error { return nil },
		fsys:     fs.Default,
	}
	a.logger = &linescan.Logger{Logger: a.logger.With("run_id", a.runID)}

	if cfg.Mode == modeFilter {
		if err := set.codec.Unmarshal([]byte(cfg.Filter), &a.filter); err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
	}

	if a.checkpoints, err = openCheckpoints(ctx, cfg.Checkpoints, a.stores, set.codec); err != nil {
		return nil, err
	}

	w := stdout
	if cfg.Output != "" && cfg.Mode != modeIndex {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, err
		}
		w, a.closeOut = f, f.Close
	}
	a.out = newOutput(w, len(set.inputs) > 1)
	return a, nil
}

// run scans every input, at most cfg.Workers at a time. The first failing
// stream cancels the others.
func (a *app) run(ctx context.Context) (*runReport, error) {
	report := &runReport{
		RunID:   a.runID,
		Mode:    a.cfg.Mode,
		Started: a.now(),
		Streams: make([]streamReport, len(a.set.inputs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, in := range a.set.inputs {
		g.Go(func() error {
			if err := a.rc.AcquireStream(gctx); err != nil {
				report.Streams[i] = streamReport{Stream: in, Error: err.Error()}
				return err
			}
			defer a.rc.ReleaseStream()

			rep, err := a.scanStream(gctx, in)
			if err != nil {
				rep.Error = err.Error()
				a.logger.ErrorContext(gctx, "stream failed", "stream", in, "error", err)
			}
			report.Streams[i] = rep
			return err
		})
	}
	err := g.Wait()

	if ferr := a.out.flush(); err == nil {
		err = ferr
	}
	if cerr := a.closeOut(); err == nil {
		err = cerr
	}

	report.finish(a.now(), a.metrics.GetStats())
	if mem, ok := a.checkpoints.(*checkpoint.MemoryStore); ok {
		cps, lerr := mem.List(ctx, "")
		if err == nil {
			err = lerr
		}
		report.Checkpoints = cps
	}
	return report, err
}

// scanStream processes one input from its checkpoint to its end.
func (a *app) scanStream(ctx context.Context, in string) (streamReport, error) {
	started := time.Now()
	rep := streamReport{Stream: in}

	cp, err := a.resumePoint(ctx, in)
	if err != nil {
		return rep, err
	}

	if a.cfg.Mode == modeIndex {
		// Indexes always cover the whole stream.
		cp.Offset = 0
	}
	src, err := a.openInput(ctx, in, cp.Offset)
	if err != nil {
		return rep, err
	}
	defer src.close()

	if src.restarted {
		a.logger.WarnContext(ctx, "checkpoint beyond end of stream, rescanning", "stream", in, "offset", cp.Offset)
		if err := a.rewindCheckpoint(ctx, in); err != nil {
			return rep, err
		}
		cp = checkpoint.Checkpoint{Stream: in}
		rep.Restarted = true
	}
	rep.Compression = src.typ.String()
	rep.Resumed = cp.Offset

	if a.cfg.Mode == modeIndex {
		return a.indexStream(ctx, in, src, rep, started)
	}

	h := a.newHandler(in)
	var sinceSave int64
	fn := func(rec []byte, end int64) error {
		herr := h.handle(rec)
		if herr != nil && !errors.Is(herr, linescan.ErrStop) {
			return herr
		}
		rep.Records++
		rep.Offset = end
		if herr != nil {
			return herr
		}
		sinceSave++
		if a.cfg.CheckpointEvery > 0 && sinceSave >= a.cfg.CheckpointEvery {
			sinceSave = 0
			return a.saveCheckpoint(ctx, checkpoint.Checkpoint{Stream: in, Offset: end, Records: cp.Records + rep.Records})
		}
		return nil
	}

	opts := []linescan.Option{
		linescan.WithTerminator(rune(a.set.terminator)),
		linescan.WithChunkSize(a.cfg.ChunkSize),
		linescan.WithLogger(a.logger.WithStream(in)),
		linescan.WithMetricsCollector(a.metrics),
		linescan.WithResourceController(a.rc),
		linescan.WithBaseOffset(cp.Offset),
	}

	rep.Offset = cp.Offset
	if src.blob != nil {
		stats, err := linescan.ScanBlob(ctx, src.blob, fn, opts...)
		rep.Mapped = stats.Mapped
		if err != nil {
			return rep, err
		}
	} else if err := a.scanReader(ctx, src.r, fn, opts); err != nil {
		return rep, err
	}

	rep.Matched = h.matched()
	if f, ok := h.(*filterHandler); ok {
		rep.Skipped = f.invalid
	}
	rep.Bytes = rep.Offset - cp.Offset
	rep.ElapsedSec = time.Since(started).Seconds()

	err = a.saveCheckpoint(ctx, checkpoint.Checkpoint{Stream: in, Offset: rep.Offset, Records: cp.Records + rep.Records})
	return rep, err
}

func (a *app) scanReader(ctx context.Context, r io.Reader, fn linescan.RecordFunc, opts []linescan.Option) error {
	lr, err := linescan.NewReader(r, opts...)
	if err != nil {
		return err
	}
	defer lr.Close()

	for {
		rec, err := lr.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec, lr.Offset()); err != nil {
			if errors.Is(err, linescan.ErrStop) {
				return nil
			}
			return err
		}
	}
}

// indexStream writes a line index of the whole stream to the output
// directory or bucket.
func (a *app) indexStream(ctx context.Context, in string, src *input, rep streamReport, started time.Time) (streamReport, error) {
	r := src.r
	if src.blob != nil {
		body, err := a.readAll(ctx, src.blob)
		if err != nil {
			return rep, err
		}
		defer body.Close()
		r = body
	}

	idx, err := lineindex.Build(ctx, r,
		lineindex.WithTerminator(a.set.terminator),
		lineindex.WithChunkSize(a.cfg.ChunkSize),
	)
	if err != nil {
		return rep, err
	}

	name := indexName(in)
	store, prefix, remote, err := a.stores.remote(ctx, a.cfg.Output)
	switch {
	case err != nil:
		return rep, err
	case remote:
		name = prefix + name
		err = putBlob(ctx, store, name, func(w io.Writer) error {
			_, err := idx.WriteTo(w)
			return err
		})
	default:
		dir := localPath(a.cfg.Output)
		if dir == "" {
			dir = "."
		}
		err = lineindex.WriteFile(a.fsys, filepath.Join(dir, name), idx)
	}
	if err != nil {
		return rep, err
	}

	rep.Records = idx.Lines()
	rep.Matched = idx.Lines()
	rep.Offset = idx.Size()
	rep.Bytes = idx.Size()
	rep.Index = name
	rep.ElapsedSec = time.Since(started).Seconds()
	return rep, nil
}

func indexName(stream string) string {
	return url.PathEscape(stream) + lineindex.Extension
}
