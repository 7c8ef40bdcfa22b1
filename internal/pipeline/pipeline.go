// Package pipeline sequences one run: collect from every source, dedupe
// across sources, score and analyze survivors, deliver relevant items.
// Per-source and per-item failures are isolated here; only configuration
// errors abort a run before it starts.
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/raven/internal/collector"
	"github.com/linnemanlabs/raven/internal/delivery"
	"github.com/linnemanlabs/raven/internal/news"
)

// Deduper reduces a batch to one survivor per story.
type Deduper interface {
	Deduplicate(ctx context.Context, items []*news.Item) []*news.Item
}

// Processor scores an item and fills in its analysis in place.
type Processor interface {
	Process(ctx context.Context, item *news.Item) (*news.Item, error)
}

// Options select the run mode.
type Options struct {
	// SkipDedup bypasses the dedup engine; every collected item becomes
	// a processing candidate.
	SkipDedup bool
	// Preview stops after dedup: no oracle scoring, no delivery.
	Preview bool
	// Threshold gates delivery: items scoring strictly above it are
	// delivered.
	Threshold float64
}

// Stats are the run-level statistics.
type Stats struct {
	PerSource    map[string]int
	Collected    int
	Deduplicated int
	Processed    int
	Relevant     int
	Filtered     int
	Failures     int
	Duration     time.Duration
}

// Report is the outcome of one run.
type Report struct {
	Stats Stats
	// Survivors is the deduplicated item list. In preview mode it is the
	// final output; otherwise the processed items within it carry scores
	// and analyses.
	Survivors []*news.Item
}

// Hooks receives pipeline events for instrumentation. Nil funcs are skipped.
type Hooks struct {
	OnCollect       func(source string, count int, failed bool)
	OnItemProcessed func(outcome string)
	OnRunComplete   func(duration float64)
}

// Pipeline is the run orchestrator.
type Pipeline struct {
	collectors []collector.Collector
	deduper    Deduper
	processor  Processor
	sink       delivery.Sink
	logger     log.Logger
	hooks      Hooks
}

// New creates a pipeline over the given stages.
func New(collectors []collector.Collector, deduper Deduper, processor Processor, sink delivery.Sink, logger log.Logger, hooks Hooks) *Pipeline {
	if logger == nil {
		logger = log.Nop()
	}
	return &Pipeline{
		collectors: collectors,
		deduper:    deduper,
		processor:  processor,
		sink:       sink,
		logger:     logger,
		hooks:      hooks,
	}
}

// Run executes one batch. It only returns an error for failures that
// invalidate the whole run; collector and item failures are logged,
// counted, and skipped.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	ctx, span := otel.Tracer("raven/pipeline").Start(ctx, "pipeline.run")
	defer span.End()

	report := &Report{Stats: Stats{PerSource: make(map[string]int)}}
	stats := &report.Stats

	var all []*news.Item
	for _, c := range p.collectors {
		items, err := c.Collect(ctx)
		if err != nil {
			// A failing collector contributes zero items, never aborts.
			p.logger.Error(ctx, err, "collector failed", "source", c.Name())
			stats.PerSource[c.Name()] = 0
			if p.hooks.OnCollect != nil {
				p.hooks.OnCollect(c.Name(), 0, true)
			}
			continue
		}
		stats.PerSource[c.Name()] = len(items)
		if p.hooks.OnCollect != nil {
			p.hooks.OnCollect(c.Name(), len(items), false)
		}
		all = append(all, items...)
	}
	stats.Collected = len(all)
	span.SetAttributes(attribute.Int("pipeline.collected", stats.Collected))

	if len(all) == 0 {
		p.logger.Info(ctx, "no items collected from any source")
		p.finish(ctx, stats, start)
		return report, nil
	}

	survivors := all
	if opts.SkipDedup {
		p.logger.Info(ctx, "deduplication bypassed", "items", len(all))
	} else {
		survivors = p.deduper.Deduplicate(ctx, all)
	}
	stats.Deduplicated = len(survivors)
	report.Survivors = survivors
	span.SetAttributes(attribute.Int("pipeline.deduplicated", stats.Deduplicated))

	if opts.Preview {
		p.logger.Info(ctx, "preview mode, skipping scoring", "items", len(survivors))
		p.finish(ctx, stats, start)
		return report, nil
	}

	for _, item := range survivors {
		processed, err := p.processor.Process(ctx, item)
		if err != nil {
			// The item keeps any score already recorded but is excluded
			// from delivery; the run moves on.
			p.logger.Error(ctx, err, "item processing failed",
				"source", item.Source, "title", item.Title)
			stats.Failures++
			if p.hooks.OnItemProcessed != nil {
				p.hooks.OnItemProcessed("error")
			}
			continue
		}

		stats.Processed++
		outcome := "filtered"
		if processed.Scored() && *processed.RelevanceScore > opts.Threshold && processed.Analysis != "" {
			outcome = "relevant"
			stats.Relevant++
			if err := p.sink.Deliver(ctx, processed); err != nil {
				p.logger.Error(ctx, err, "delivery failed",
					"source", processed.Source, "title", processed.Title)
			}
		} else {
			stats.Filtered++
		}
		if p.hooks.OnItemProcessed != nil {
			p.hooks.OnItemProcessed(outcome)
		}
	}

	p.finish(ctx, stats, start)
	return report, nil
}

func (p *Pipeline) finish(ctx context.Context, stats *Stats, start time.Time) {
	stats.Duration = time.Since(start)
	if p.hooks.OnRunComplete != nil {
		p.hooks.OnRunComplete(stats.Duration.Seconds())
	}
	p.logger.Info(ctx, "run complete",
		"collected", stats.Collected,
		"deduplicated", stats.Deduplicated,
		"processed", stats.Processed,
		"relevant", stats.Relevant,
		"filtered", stats.Filtered,
		"failures", stats.Failures,
		"duration", stats.Duration.Seconds(),
	)
}
