package worker

import (
	"context"
	"time"

	"sjsage522/xbdealworker/internal/aggregator"
	"sjsage522/xbdealworker/internal/crawler"
	"sjsage522/xbdealworker/logger"
	crawlerrors "sjsage522/xbdealworker/pkg/errors"
	"sjsage522/xbdealworker/services/sink"
)

const (
	// MetaTimestampCell holds the completion time of the last run
	MetaTimestampCell = "B2"
	// MetaCountCell holds the item count, or 0 in reset mode
	MetaCountCell = "B3"
)

// Crawler runs one extraction over the given categories
type Crawler interface {
	Run(ctx context.Context, categories []string) crawler.RunResult
}

// Options configures a worker
type Options struct {
	Categories    []string
	Worksheet     string
	MetaWorksheet string
	// CountMeta writes the item count to B3 instead of the reset marker
	CountMeta bool
	Aggregate aggregator.Options
}

// Result is the outcome of one run. Records and Table stay available
// when publishing fails.
type Result struct {
	Records    []crawler.DealRecord
	Table      aggregator.Table
	Categories []crawler.CategoryReport
	Elapsed    time.Duration
}

// Worker handles the crawling and publishing process
type Worker struct {
	crawler Crawler
	sink    sink.Sink
	opts    Options
	now     func() time.Time
	log     *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(c Crawler, s sink.Sink, opts Options) *Worker {
	return &Worker{
		crawler: c,
		sink:    s,
		opts:    opts,
		now:     time.Now,
		log:     logger.ForWorker(),
	}
}

// Run crawls, aggregates and publishes once
func (w *Worker) Run(ctx context.Context) (*Result, error) {
	start := w.now()
	run := w.crawler.Run(ctx, w.opts.Categories)

	result := &Result{
		Records:    run.Records,
		Table:      aggregator.Finalize(run.Records, w.opts.Aggregate),
		Categories: run.Categories,
	}
	for _, report := range run.Categories {
		if report.Err != nil {
			w.log.Warn().Err(report.Err).Str("category", report.Category).Int("added", report.Added).Msg("Category ended early")
		}
	}

	err := w.publish(ctx, result)
	result.Elapsed = w.now().Sub(start)
	w.log.Info().
		Int("unique", len(result.Records)).
		Dur("elapsed", result.Elapsed).
		Msg("Run complete")
	return result, err
}

// Start runs the worker repeatedly until the context is cancelled
func (w *Worker) Start(ctx context.Context, interval time.Duration) {
	for {
		if _, err := w.Run(ctx); err != nil {
			logger.LogError("worker", err, "Publishing failed")
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (w *Worker) publish(ctx context.Context, result *Result) error {
	if err := w.sink.ReplaceAll(ctx, w.opts.Worksheet, result.Table.Values()); err != nil {
		return crawlerrors.NewSink(w.opts.Worksheet, "replace worksheet", err)
	}

	completed := w.now().UTC().Format(time.RFC3339)
	if err := w.sink.WriteMeta(ctx, MetaTimestampCell, completed); err != nil {
		return crawlerrors.NewSink(w.opts.MetaWorksheet, "write "+MetaTimestampCell, err)
	}

	count := 0
	if w.opts.CountMeta {
		count = len(result.Records)
	}
	if err := w.sink.WriteMeta(ctx, MetaCountCell, count); err != nil {
		return crawlerrors.NewSink(w.opts.MetaWorksheet, "write "+MetaCountCell, err)
	}

	w.log.Info().Str("worksheet", w.opts.Worksheet).Int("rows", len(result.Table.Rows)).Msg("Worksheet updated")
	return nil
}
