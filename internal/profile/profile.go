// Package profile loads and validates the raven profile file: per-source
// collector settings, LLM settings, and the organizational context used
// to bias relevance judgments. The profile is read once at startup and is
// read-only for the rest of the run.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMaxAgeDays is the global item-age cutoff when the profile does
// not set one.
const DefaultMaxAgeDays = 7

// Profile is the fully parsed profile file.
type Profile struct {
	Global     Global               `yaml:"global"`
	Collectors map[string]Collector `yaml:"collectors"`
	LLM        LLM                  `yaml:"llm"`
	Company    Company              `yaml:"company"`
}

// Global holds settings shared by all collectors.
type Global struct {
	MaxAgeDays int `yaml:"max_age_days"`
}

// Collector holds per-source collector settings.
type Collector struct {
	Enabled    bool   `yaml:"enabled"`
	FeedURL    string `yaml:"feed_url"`
	DataDir    string `yaml:"data_dir"`
	MaxAgeDays int    `yaml:"max_age_days"` // 0 = fall back to global
}

// LLM holds oracle settings.
type LLM struct {
	Model              string  `yaml:"model"`
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	MaxTokens          int     `yaml:"max_tokens"`
}

// Company is the organizational context profile.
type Company struct {
	Name             string           `yaml:"name"`
	Industry         string           `yaml:"industry"`
	Size             string           `yaml:"size"`
	Region           string           `yaml:"region"`
	TechStack        TechStack        `yaml:"tech_stack"`
	SecurityConcerns SecurityConcerns `yaml:"security_concerns"`
	Assets           Assets           `yaml:"assets"`
}

// TechStack describes the technical environment.
type TechStack struct {
	Cloud          []string `yaml:"cloud"`
	Languages      []string `yaml:"languages"`
	Frameworks     []string `yaml:"frameworks"`
	Infrastructure []string `yaml:"infrastructure"`
}

// SecurityConcerns describes the security and compliance surface.
type SecurityConcerns struct {
	HighPriority        []string `yaml:"high_priority"`
	Compliance          []string `yaml:"compliance"`
	ThirdPartyProviders []string `yaml:"3rd_party_providers"`
}

// Assets lists systems whose compromise would be critical.
type Assets struct {
	CriticalSystems []string `yaml:"critical_systems"`
}

// Load reads and parses the profile file at path, applies defaults, and
// validates it. It returns either a fully valid profile or an error
// joining every validation failure, never a partially valid one.
func Load(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	if p.Global.MaxAgeDays == 0 {
		p.Global.MaxAgeDays = DefaultMaxAgeDays
	}
	if p.Collectors == nil {
		p.Collectors = map[string]Collector{}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks every field and returns all failures joined, or nil.
func (p *Profile) Validate() error {
	var errs []error

	if p.Global.MaxAgeDays < 1 || p.Global.MaxAgeDays > 90 {
		errs = append(errs, fmt.Errorf("global.max_age_days %d must be 1..90", p.Global.MaxAgeDays))
	}
	for name, c := range p.Collectors {
		if c.MaxAgeDays != 0 && (c.MaxAgeDays < 1 || c.MaxAgeDays > 90) {
			errs = append(errs, fmt.Errorf("collectors.%s.max_age_days %d must be 1..90", name, c.MaxAgeDays))
		}
	}

	if p.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if p.LLM.RelevanceThreshold < 0 || p.LLM.RelevanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("llm.relevance_threshold %v must be in [0,1]", p.LLM.RelevanceThreshold))
	}
	if p.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens %d must be positive", p.LLM.MaxTokens))
	}

	if p.Company.Name == "" {
		errs = append(errs, errors.New("company.name is required"))
	}
	if p.Company.Industry == "" {
		errs = append(errs, errors.New("company.industry is required"))
	}
	if len(p.Company.Assets.CriticalSystems) == 0 {
		errs = append(errs, errors.New("company.assets.critical_systems is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// MaxAgeDays resolves the item-age cutoff for a collector: the per-source
// override when set, otherwise the global value.
func (p *Profile) MaxAgeDays(collector string) int {
	if c, ok := p.Collectors[collector]; ok && c.MaxAgeDays != 0 {
		return c.MaxAgeDays
	}
	return p.Global.MaxAgeDays
}

// OverrideMaxAge forces a single age cutoff for every collector. Used by
// the -max-age flag.
func (p *Profile) OverrideMaxAge(days int) {
	p.Global.MaxAgeDays = days
	for name, c := range p.Collectors {
		c.MaxAgeDays = 0
		p.Collectors[name] = c
	}
}

// Context renders the organizational context block injected into every
// relevance and analysis prompt. It is built once and reused for the run.
func (c *Company) Context() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Company Profile:\n")
	fmt.Fprintf(&b, "- %s is a %s %s company in %s\n\n", c.Name, c.Size, c.Industry, c.Region)

	fmt.Fprintf(&b, "Technical Environment:\n")
	fmt.Fprintf(&b, "- Cloud Platforms: %s\n", strings.Join(c.TechStack.Cloud, ", "))
	fmt.Fprintf(&b, "- Development: %s with %s\n",
		strings.Join(c.TechStack.Languages, ", "),
		strings.Join(c.TechStack.Frameworks, ", "))
	fmt.Fprintf(&b, "- Infrastructure: %s\n\n", strings.Join(c.TechStack.Infrastructure, ", "))

	fmt.Fprintf(&b, "Security & Compliance:\n")
	fmt.Fprintf(&b, "- Key Security Focus: %s\n", strings.Join(c.SecurityConcerns.HighPriority, ", "))
	fmt.Fprintf(&b, "- Compliance Requirements: %s\n\n", strings.Join(c.SecurityConcerns.Compliance, ", "))

	fmt.Fprintf(&b, "Critical Dependencies:\n")
	fmt.Fprintf(&b, "- Core Systems: %s\n", strings.Join(c.Assets.CriticalSystems, ", "))
	fmt.Fprintf(&b, "- Critical 3rd Party Providers: %s\n", strings.Join(c.SecurityConcerns.ThirdPartyProviders, ", "))

	return b.String()
}
