// Package dedupe removes cross-source duplicate stories from a batch of
// collected news items. Items from the same source are never compared;
// a single collector is assumed not to duplicate itself.
package dedupe

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/raven/internal/news"
)

// Hooks receives engine events for instrumentation. Nil funcs are skipped.
type Hooks struct {
	OnCompare   func(duration float64, failed bool)
	OnDuplicate func()
}

// Engine partitions a batch by source and compares items across source
// pairs through the similarity oracle, keeping one survivor per story.
// The duplicate-marking set is scoped to a single Deduplicate call; the
// engine holds no mutable state and must not be invoked concurrently on
// overlapping batches.
type Engine struct {
	oracle Oracle
	logger log.Logger
	hooks  Hooks
}

// NewEngine creates a dedup engine with the given oracle.
func NewEngine(oracle Oracle, logger log.Logger, hooks Hooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		oracle: oracle,
		logger: logger,
		hooks:  hooks,
	}
}

// Deduplicate returns the subset of items that survive cross-source
// deduplication, in their original relative order. It is idempotent:
// applying it to its own output returns the same set.
//
// Comparison order is fixed so a chain of mutual duplicates resolves
// deterministically: sources enumerate in first-seen input order, source
// pairs nest (i, j) with i before j, and items within a group run
// newest-first. On a SAME verdict the older item is marked duplicate
// (ties mark the second-compared item) and drops out of all further
// comparisons; the pairing then moves on to the next item.
func (e *Engine) Deduplicate(ctx context.Context, items []*news.Item) []*news.Item {
	if len(items) == 0 {
		return items
	}

	ctx, span := otel.Tracer("raven/dedupe").Start(ctx, "dedupe.run")
	defer span.End()
	span.SetAttributes(attribute.Int("dedupe.items_in", len(items)))

	groups := map[string][]*news.Item{}
	var sources []string
	for _, it := range items {
		if _, ok := groups[it.Source]; !ok {
			sources = append(sources, it.Source)
		}
		groups[it.Source] = append(groups[it.Source], it)
	}

	e.logger.Info(ctx, "grouped items by source", "sources", len(sources), "items", len(items))

	// Same-source items are never compared, so a single source is a no-op.
	if len(sources) < 2 {
		span.SetAttributes(attribute.Int("dedupe.items_out", len(items)))
		return items
	}

	for _, src := range sources {
		g := groups[src]
		sort.SliceStable(g, func(a, b int) bool {
			return g[a].PublishedDate.After(g[b].PublishedDate)
		})
	}

	duplicates := map[*news.Item]bool{}
	comparisons := 0

	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			for _, a := range groups[sources[i]] {
				if duplicates[a] {
					continue
				}
				for _, b := range groups[sources[j]] {
					if duplicates[b] {
						continue
					}

					comparisons++
					start := time.Now()
					same, err := e.oracle.SameStory(ctx, a, b)
					if e.hooks.OnCompare != nil {
						e.hooks.OnCompare(time.Since(start).Seconds(), err != nil)
					}
					if err != nil {
						// One failed comparison never aborts the pass;
						// the pair is treated as distinct.
						e.logger.Error(ctx, err, "similarity check failed",
							"source_a", a.Source, "title_a", a.Title,
							"source_b", b.Source, "title_b", b.Title,
						)
						continue
					}
					if !same {
						continue
					}

					keep, drop := a, b
					if b.PublishedDate.After(a.PublishedDate) {
						keep, drop = b, a
					}
					duplicates[drop] = true
					if e.hooks.OnDuplicate != nil {
						e.hooks.OnDuplicate()
					}
					e.logger.Info(ctx, "duplicate detected",
						"keeping_source", keep.Source, "keeping_title", keep.Title,
						"dropping_source", drop.Source, "dropping_title", drop.Title,
					)
					// One story, already resolved for this pairing.
					break
				}
			}
		}
	}

	unique := make([]*news.Item, 0, len(items))
	for _, it := range items {
		if !duplicates[it] {
			unique = append(unique, it)
		}
	}

	span.SetAttributes(
		attribute.Int("dedupe.items_out", len(unique)),
		attribute.Int("dedupe.comparisons", comparisons),
	)
	e.logger.Info(ctx, "deduplication complete",
		"items_in", len(items),
		"items_out", len(unique),
		"removed", len(items)-len(unique),
		"comparisons", comparisons,
	)

	return unique
}
