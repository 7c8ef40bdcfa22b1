// Package cfg holds raven's runtime configuration, registered as flags
// and filled from RAVEN_-prefixed environment variables in main.
package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config is the runtime (non-profile) configuration for a run.
type Config struct {
	ProfilePath  string
	ClaudeAPIKey string
	ClaudeModel  string
	SlackWebhook string
	MaxAgeDays   int
	NoDedup      bool
	DryRun       bool
	CheckConfig  bool
	EnableOps    bool
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ProfilePath, "config", "config/raven.yaml", "path to the profile file (collectors, LLM settings, company context)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude oracle provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "", "Claude model override (empty = llm.model from the profile)")
	fs.StringVar(&c.SlackWebhook, "slack-webhook", "", "Slack incoming-webhook URL for delivery (empty = console only)")
	fs.IntVar(&c.MaxAgeDays, "max-age", 0, "override maximum item age in days for all collectors (0 = use profile, 1..90)")
	fs.BoolVar(&c.NoDedup, "no-dedup", false, "bypass cross-source deduplication")
	fs.BoolVar(&c.DryRun, "dry-run", false, "collect and dedupe only, print survivors without oracle scoring")
	fs.BoolVar(&c.CheckConfig, "check-config", false, "validate the profile file and exit")
	fs.BoolVar(&c.EnableOps, "enable-ops", false, "serve metrics/health/pprof on the admin listener during the run")
}

// Validate checks all configuration fields for correctness.
// It returns an error joining every invalid field, or nil.
func (c *Config) Validate() error {
	var errs []error

	if c.ProfilePath == "" {
		errs = append(errs, errors.New("CONFIG path is required"))
	}

	if c.MaxAgeDays != 0 && (c.MaxAgeDays < 1 || c.MaxAgeDays > 90) {
		errs = append(errs, fmt.Errorf("invalid MAX_AGE %d (must be 1..90)", c.MaxAgeDays))
	}

	// Every mode except check-config reaches the oracle provider: even a
	// dry run issues similarity comparisons unless dedup is bypassed too.
	if !c.CheckConfig && !(c.DryRun && c.NoDedup) && c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLAUDE_API_KEY is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
