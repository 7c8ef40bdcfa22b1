package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/linnemanlabs/raven/internal/news"
)

const ruleWidth = 80

// Console renders items to a terminal.
type Console struct {
	out io.Writer

	title *color.Color
	label *color.Color
	score *color.Color
}

// NewConsole creates a console sink writing to out (os.Stdout when nil).
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:   out,
		title: color.New(color.FgBlue, color.Bold),
		label: color.New(color.FgYellow),
		score: color.New(color.FgGreen, color.Bold),
	}
}

// Deliver prints one processed item.
func (c *Console) Deliver(_ context.Context, item *news.Item) error {
	fmt.Fprintln(c.out, strings.Repeat("─", ruleWidth))
	c.title.Fprintln(c.out, item.Title)
	fmt.Fprintln(c.out)

	c.label.Fprint(c.out, "Source:    ")
	fmt.Fprintln(c.out, item.Source)
	c.label.Fprint(c.out, "Published: ")
	fmt.Fprintln(c.out, item.PublishedDate.Format(time.RFC1123))
	if item.URL != "" {
		c.label.Fprint(c.out, "URL:       ")
		fmt.Fprintln(c.out, item.URL)
	}
	if len(item.Categories) > 0 {
		c.label.Fprint(c.out, "Categories: ")
		fmt.Fprintln(c.out, strings.Join(item.Categories, ", "))
	}
	if item.Scored() {
		c.label.Fprint(c.out, "Relevance: ")
		c.score.Fprintf(c.out, "%.2f\n", *item.RelevanceScore)
	}

	if item.Analysis != "" {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, item.Analysis)
	}
	fmt.Fprintln(c.out, strings.Repeat("─", ruleWidth))
	return nil
}
