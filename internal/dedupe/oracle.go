package dedupe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/raven/internal/llm"
	"github.com/linnemanlabs/raven/internal/news"
)

// verdictTokens bounds the oracle response; the prompt asks for a single word.
const verdictTokens = 50

// Oracle decides whether two items describe the same real-world story.
type Oracle interface {
	SameStory(ctx context.Context, a, b *news.Item) (bool, error)
}

// LLMOracle is the reference similarity oracle: a natural-language
// comparison over source, title, date, and a bounded content excerpt
// for both items.
type LLMOracle struct {
	provider llm.Provider
}

// NewLLMOracle creates the LLM-backed similarity oracle.
func NewLLMOracle(provider llm.Provider) *LLMOracle {
	return &LLMOracle{provider: provider}
}

// SameStory asks the model for a SAME/DIFFERENT verdict on the pair.
func (o *LLMOracle) SameStory(ctx context.Context, a, b *news.Item) (bool, error) {
	resp, err := o.provider.Complete(ctx, &llm.Request{
		Prompt:    buildComparePrompt(a, b),
		MaxTokens: verdictTokens,
	})
	if err != nil {
		return false, fmt.Errorf("similarity oracle: %w", err)
	}
	return parseVerdict(resp.Text), nil
}

func buildComparePrompt(a, b *news.Item) string {
	return fmt.Sprintf(`Compare these two news items and determine if they cover the same story.
Respond with ONLY 'SAME' or 'DIFFERENT'.

Item 1 (%s):
Title: %s
Date: %s
Summary: %s

Item 2 (%s):
Title: %s
Date: %s
Summary: %s
`,
		a.Source, a.Title, a.PublishedDate.Format(time.RFC3339), a.Excerpt(news.ExcerptLen),
		b.Source, b.Title, b.PublishedDate.Format(time.RFC3339), b.Excerpt(news.ExcerptLen),
	)
}

// parseVerdict reads the first word of the response, stripped of
// punctuation and quoting. Anything other than SAME means different;
// there is no error case because an unparseable verdict is the safe one.
func parseVerdict(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	word := strings.Trim(strings.ToUpper(fields[0]), ".,!:;*_`'\"")
	return word == "SAME"
}
