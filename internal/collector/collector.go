// Package collector gathers news items from external sources. Every
// implementation returns an empty list for "no results" and reserves
// errors for unrecoverable fetch failures, which the pipeline isolates
// per source.
package collector

import (
	"context"

	"github.com/linnemanlabs/raven/internal/news"
)

// Collector produces a bounded list of items for one source.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]*news.Item, error)
}
