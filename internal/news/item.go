// Package news defines the canonical representation of a collected
// security-news article and the helpers shared by every pipeline stage.
package news

import "time"

// ExcerptLen is the bounded content length used when an item is embedded
// in an oracle prompt. Full content is only sent for narrative analysis.
const ExcerptLen = 500

// Item is one collected news article moving through the pipeline.
// Collectors create it with Analysis and RelevanceScore unset; the
// relevance engine fills both in place. An item with Analysis set always
// has RelevanceScore set, never the reverse.
type Item struct {
	Source         string    `json:"source"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	URL            string    `json:"url,omitempty"`
	PublishedDate  time.Time `json:"published_date"`
	Categories     []string  `json:"categories,omitempty"`
	Analysis       string    `json:"analysis,omitempty"`
	RelevanceScore *float64  `json:"relevance_score,omitempty"`
}

// Normalize converts the published date to UTC. Collectors feed dates
// from heterogeneous zone handling; the dedup engine compares them
// directly, so every item is normalized before entering the pipeline.
func (it *Item) Normalize() {
	it.PublishedDate = it.PublishedDate.UTC()
}

// Scored reports whether the relevance engine has run on this item.
func (it *Item) Scored() bool {
	return it.RelevanceScore != nil
}

// SetScore records the relevance score. Callers must pass a value in [0,1].
func (it *Item) SetScore(score float64) {
	it.RelevanceScore = &score
}

// Excerpt returns at most n runes of content, with an ellipsis when
// truncated, for bounded oracle prompts.
func (it *Item) Excerpt(n int) string {
	r := []rune(it.Content)
	if len(r) <= n {
		return it.Content
	}
	return string(r[:n]) + "..."
}
