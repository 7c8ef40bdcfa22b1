package dedupe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/raven/internal/llm"
	"github.com/linnemanlabs/raven/internal/news"
)

type scriptedProvider struct {
	responses []string
	err       error
	prompts   []string
}

func (p *scriptedProvider) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	p.prompts = append(p.prompts, req.Prompt)
	if p.err != nil {
		return nil, p.err
	}
	text := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	return &llm.Response{Text: text}, nil
}

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"SAME", true},
		{"same", true},
		{"SAME.", true},
		{"  SAME\n", true},
		{"**SAME**", true},
		{"'SAME'", true},
		{"SAME, both cover the acme breach", true},
		{"DIFFERENT", false},
		{"different stories entirely", false},
		{"These cover the SAME story", false},
		{"", false},
		{"   \n\t ", false},
	}

	for _, tt := range tests {
		if got := parseVerdict(tt.in); got != tt.want {
			t.Errorf("parseVerdict(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLLMOracle_SameStory(t *testing.T) {
	t.Parallel()

	a := item("risky.biz", "Acme breach disclosed", baseTime)
	b := item("The Record Media", "Acme confirms intrusion", baseTime.Add(time.Hour))

	provider := &scriptedProvider{responses: []string{"SAME"}}
	oracle := NewLLMOracle(provider)

	same, err := oracle.SameStory(context.Background(), a, b)
	if err != nil {
		t.Fatalf("SameStory: %v", err)
	}
	if !same {
		t.Error("same = false, want true")
	}

	if len(provider.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(provider.prompts))
	}
	prompt := provider.prompts[0]
	for _, want := range []string{a.Title, b.Title, a.Source, b.Source, "'SAME' or 'DIFFERENT'"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestLLMOracle_ProviderError(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{err: errors.New("rate limited")}
	oracle := NewLLMOracle(provider)

	same, err := oracle.SameStory(context.Background(), item("a", "x", baseTime), item("b", "y", baseTime))
	if err == nil {
		t.Fatal("err = nil, want provider error")
	}
	if same {
		t.Error("same = true on error, want false")
	}
}

func TestBuildComparePrompt_BoundsExcerpt(t *testing.T) {
	t.Parallel()

	long := &news.Item{
		Source:        "risky.biz",
		Title:         "long one",
		Content:       strings.Repeat("x", 2000),
		PublishedDate: baseTime,
	}
	other := item("The Record Media", "short one", baseTime)

	prompt := buildComparePrompt(long, other)
	if strings.Contains(prompt, strings.Repeat("x", news.ExcerptLen+1)) {
		t.Error("prompt contains untruncated content")
	}
	if !strings.Contains(prompt, strings.Repeat("x", news.ExcerptLen)) {
		t.Error("prompt missing 500-char excerpt")
	}
}
