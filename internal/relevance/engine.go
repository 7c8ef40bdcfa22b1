// Package relevance scores collected items against the organizational
// context and produces a narrative risk analysis for relevant ones.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/raven/internal/llm"
	"github.com/linnemanlabs/raven/internal/news"
	"github.com/linnemanlabs/raven/internal/profile"
)

// NotRelevantAnalysis marks items that failed the relevance gate. The
// narrative oracle is never called for them.
const NotRelevantAnalysis = "Item deemed not relevant to company context"

// Hooks receives engine events for instrumentation. A nil func is skipped.
// kind is "assess" or "analyze".
type Hooks struct {
	OnOracleCall func(kind string, duration float64, failed bool, usage llm.Usage)
}

// Engine is the relevance and analysis engine. The company context is
// rendered once at construction and shared read-only across all calls.
type Engine struct {
	provider  llm.Provider
	company   string
	context   string
	maxTokens int
	logger    log.Logger
	hooks     Hooks
}

// NewEngine creates a relevance engine for the given company profile.
func NewEngine(provider llm.Provider, company *profile.Company, maxTokens int, logger log.Logger, hooks Hooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		provider:  provider,
		company:   company.Name,
		context:   company.Context(),
		maxTokens: maxTokens,
		logger:    logger,
		hooks:     hooks,
	}
}

// Assess asks the relevance oracle for a score/decision pair on one item.
// It never mutates the item and never fails: any oracle error or
// unparseable output logs the raw response and yields (false, 0.0), so a
// malformed score can never propagate downstream.
func (e *Engine) Assess(ctx context.Context, item *news.Item) (relevant bool, score float64) {
	raw, err := e.complete(ctx, "assess", buildRelevancePrompt(e.context, item))
	if err != nil {
		e.logger.Error(ctx, err, "relevance check failed",
			"source", item.Source, "title", item.Title)
		return false, 0
	}

	score, relevant, ok := parseAssessment(raw)
	if !ok {
		e.logger.Warn(ctx, "unparseable relevance verdict",
			"source", item.Source, "title", item.Title, "raw_output", raw)
		return false, 0
	}

	e.logger.Info(ctx, "relevance assessed",
		"source", item.Source, "title", item.Title,
		"score", score, "relevant", relevant)
	return relevant, score
}

// Process assesses the item and, when relevant, runs the narrative
// analysis. The item is mutated in place and returned; callers must not
// rely on the pre-call value staying unscored.
//
// A narrative failure keeps the score already recorded on the item and
// surfaces as a recoverable error: the caller logs it and moves on, and
// the item must not be delivered with Analysis unset.
func (e *Engine) Process(ctx context.Context, item *news.Item) (*news.Item, error) {
	ctx, span := otel.Tracer("raven/relevance").Start(ctx, "relevance.process")
	defer span.End()
	span.SetAttributes(attribute.String("news.source", item.Source))

	relevant, score := e.Assess(ctx, item)
	item.SetScore(score)
	span.SetAttributes(
		attribute.Float64("relevance.score", score),
		attribute.Bool("relevance.relevant", relevant),
	)

	if !relevant {
		item.Analysis = NotRelevantAnalysis
		return item, nil
	}

	raw, err := e.complete(ctx, "analyze", buildAnalysisPrompt(e.company, e.context, item))
	if err != nil {
		return item, fmt.Errorf("analysis for %q: %w", item.Title, err)
	}
	if strings.TrimSpace(raw) == "" {
		return item, fmt.Errorf("analysis for %q: %w", item.Title, errEmptyResponse)
	}

	item.Analysis = raw
	return item, nil
}

var errEmptyResponse = errors.New("empty oracle response")

func (e *Engine) complete(ctx context.Context, kind, prompt string) (string, error) {
	start := time.Now()
	resp, err := e.provider.Complete(ctx, &llm.Request{
		Prompt:    prompt,
		MaxTokens: e.maxTokens,
	})

	var usage llm.Usage
	if resp != nil {
		usage = resp.Usage
	}
	if e.hooks.OnOracleCall != nil {
		e.hooks.OnOracleCall(kind, time.Since(start).Seconds(), err != nil, usage)
	}
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func buildRelevancePrompt(context string, item *news.Item) string {
	return fmt.Sprintf(`You must respond ONLY with two values: a number between 0 and 1, and either RELEVANT or SKIP.
Example correct response: "0.8 RELEVANT" or "0.2 SKIP"

Based on this context:
%s

Analyze this news item:
Title: %s
Summary: %s

Consider:
1. Direct impact on our tech stack or infrastructure
2. Vulnerabilities in our critical 3rd party providers
3. Compliance and regulatory implications
4. Industry-wide threats relevant to our sector
5. Supply chain security concerns

Respond with ONLY two values: score (0-1) and decision (RELEVANT/SKIP).
`, context, item.Title, item.Excerpt(news.ExcerptLen))
}

func buildAnalysisPrompt(company, context string, item *news.Item) string {
	return fmt.Sprintf(`Analyze this security news item for %s:

%s

News Item:
Title: %s
Content: %s

Provide analysis in the following format:

IMPACT SUMMARY:
[Brief summary of direct impact to our organization]

AFFECTED AREAS:
- Third Party Risk: [Any impact on our critical providers]
- Technical Stack: [Affected components]
- Compliance: [Regulatory implications]

RISK ASSESSMENT:
- Severity: [Low/Medium/High]
- Urgency: [Low/Medium/High]
- Exposure: [Direct/Indirect/Potential]

RECOMMENDED ACTIONS:
[Bullet points of specific actions needed]
`, company, context, item.Title, item.Content)
}
