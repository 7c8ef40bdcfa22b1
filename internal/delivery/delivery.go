// Package delivery renders fully processed items for the consumer. The
// console sink is the default; Slack delivery is enabled by configuring
// a webhook URL.
package delivery

import (
	"context"
	"errors"

	"github.com/linnemanlabs/raven/internal/news"
)

// Sink consumes a scored, analyzed item. The pipeline never delivers an
// item whose analysis is unset.
type Sink interface {
	Deliver(ctx context.Context, item *news.Item) error
}

// Fanout delivers to every sink, joining the failures. A failing sink
// never blocks delivery to the others.
type Fanout []Sink

// Deliver sends the item to each sink in order.
func (f Fanout) Deliver(ctx context.Context, item *news.Item) error {
	var errs []error
	for _, s := range f {
		if err := s.Deliver(ctx, item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
