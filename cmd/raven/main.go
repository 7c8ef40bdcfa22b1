// Raven is a security news aggregation and risk triage tool: it collects
// articles from multiple sources, removes cross-source duplicates, scores
// each survivor against a company profile with an LLM oracle, and prints
// a risk analysis for the relevant ones.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/oklog/ulid/v2"
	"github.com/olekukonko/tablewriter"

	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/health"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/metrics"
	"github.com/linnemanlabs/go-core/opshttp"
	"github.com/linnemanlabs/go-core/otelx"
	"github.com/linnemanlabs/go-core/prof"
	v "github.com/linnemanlabs/go-core/version"

	rc "github.com/linnemanlabs/raven/internal/cfg"
	"github.com/linnemanlabs/raven/internal/collector"
	"github.com/linnemanlabs/raven/internal/dedupe"
	"github.com/linnemanlabs/raven/internal/delivery"
	"github.com/linnemanlabs/raven/internal/llm/claude"
	"github.com/linnemanlabs/raven/internal/news"
	"github.com/linnemanlabs/raven/internal/pipeline"
	"github.com/linnemanlabs/raven/internal/profile"
	"github.com/linnemanlabs/raven/internal/relevance"
)

const appName = "raven"
const component = "cli"

const (
	defaultRiskyBizFeed  = "https://risky.biz/feeds/risky-business/"
	defaultTheRecordBase = "https://therecord.media"
	defaultFixtureDir    = "data/mock_news"
)

const banner = `
██████╗  █████╗ ██╗   ██╗███████╗███╗   ██╗
██╔══██╗██╔══██╗██║   ██║██╔════╝████╗  ██║
██████╔╝███████║██║   ██║█████╗  ██╔██╗ ██║
██╔══██╗██╔══██║╚██╗ ██╔╝██╔══╝  ██║╚██╗██║
██║  ██║██║  ██║ ╚████╔╝ ███████╗██║ ╚████║
╚═╝  ╚═╝╚═╝  ╚═╝  ╚═══╝  ╚══════╝╚═╝  ╚═══╝`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set app name and component
	v.AppName = appName
	v.Component = component

	// Get build/version info
	vi := v.Get()

	// each package registers its own flags and options struct
	var (
		appCfg   rc.Config
		logCfg   log.Config
		opsCfg   opshttp.Config
		profCfg  prof.Config
		traceCfg otelx.Config
	)

	appCfg.RegisterFlags(flag.CommandLine)
	logCfg.RegisterFlags(flag.CommandLine)
	opsCfg.RegisterFlags(flag.CommandLine)
	profCfg.RegisterFlags(flag.CommandLine)
	traceCfg.RegisterFlags(flag.CommandLine)
	var showVersion bool
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")

	// parse flags to get config values from cmdline, we check env vars next which do not override cmdline flags
	flag.Parse()
	if showVersion {
		fmt.Printf(
			"%s (%s) %s (commit=%s, commit_date=%s, build_id=%s, build_date=%s, go=%s, dirty=%v)\n",
			vi.AppName, vi.Component, vi.Version, vi.Commit, vi.CommitDate, vi.BuildId, vi.BuildDate, vi.GoVersion,
			vi.VCSDirty != nil && *vi.VCSDirty,
		)
		return nil
	}

	// Fill in config values from environment variables with prefix RAVEN_,
	// these do not override cmdline flags
	cfg.FillFromEnv(flag.CommandLine, "RAVEN_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := errors.Join(
		appCfg.Validate(),
		logCfg.Validate(),
		opsCfg.Validate(),
		profCfg.Validate(),
		traceCfg.Validate(),
	); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// initialize logger early
	lg, err := log.New(logCfg.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	// every log line of a run carries the same run id
	runID := ulid.Make().String()
	L := lg.With("component", vi.Component, "run_id", runID)
	ctx = log.WithContext(ctx, L)

	// check-config validates the profile and exits without collecting
	if appCfg.CheckConfig {
		return checkProfile(appCfg.ProfilePath)
	}

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"build_id", vi.BuildId,
		"go_version", vi.GoVersion,
		"profile", appCfg.ProfilePath,
		"no_dedup", appCfg.NoDedup,
		"dry_run", appCfg.DryRun,
		"enable_ops", appCfg.EnableOps,
	)

	// Setup pyroscope profiling early so we get profiles from the entire run
	profOpts := profCfg.ToOptions()
	profOpts.AppName = v.AppName
	profOpts.Tags = map[string]string{
		"app":       v.AppName,
		"component": v.Component,
		"version":   vi.Version,
		"commit":    vi.Commit,
		"build_id":  vi.BuildId,
	}
	stopProf, profErr := prof.Start(ctx, profOpts)
	if profErr != nil {
		L.Error(ctx, profErr, "pyroscope start failed", "pyro_server", profCfg.PyroServer)
	}
	if stopProf != nil {
		defer stopProf()
	}

	// Setup otel for tracing
	traceOpts := traceCfg.ToOptions()
	traceOpts.Service = v.AppName
	traceOpts.Component = v.Component
	traceOpts.Version = vi.Version

	shutdownOtelx, err := otelx.Init(ctx, traceOpts)
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	if shutdownOtelx != nil {
		defer func() { _ = shutdownOtelx(context.Background()) }()
	}

	// Setup metrics for internal instrumentation
	var m = metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, component, &vi)

	// Load and validate the profile; a bad profile is fatal before any
	// collection begins.
	pf, err := profile.Load(appCfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if appCfg.MaxAgeDays != 0 {
		pf.OverrideMaxAge(appCfg.MaxAgeDays)
		L.Info(ctx, "max age overridden", "max_age_days", appCfg.MaxAgeDays)
	}

	model := pf.LLM.Model
	if appCfg.ClaudeModel != "" {
		model = appCfg.ClaudeModel
	}

	provider := claude.New(appCfg.ClaudeAPIKey, model)
	L.Info(ctx, "initialized LLM provider", "provider", "claude", "model", model)

	pipeMetrics := pipeline.NewMetrics(m.Registry())

	dedupeEngine := dedupe.NewEngine(dedupe.NewLLMOracle(provider), L, pipeMetrics.DedupeHooks())
	relevanceEngine := relevance.NewEngine(provider, &pf.Company, pf.LLM.MaxTokens, L, pipeMetrics.RelevanceHooks())

	collectors := buildCollectors(pf, L)
	if len(collectors) == 0 {
		L.Warn(ctx, "no collectors enabled in profile")
	}
	for _, c := range collectors {
		L.Info(ctx, "collector enabled", "source", c.Name())
	}

	sinks := delivery.Fanout{delivery.NewConsole(os.Stdout)}
	if appCfg.SlackWebhook != "" {
		L.Info(ctx, "slack delivery enabled")
		sinks = append(sinks, delivery.NewSlack(appCfg.SlackWebhook))
	}

	pipe := pipeline.New(collectors, dedupeEngine, relevanceEngine, sinks, L, pipeMetrics.PipelineHooks())

	// Admin/ops listener for metrics, health and pprof. Off by default:
	// most runs are short-lived one-shots.
	if appCfg.EnableOps {
		opsOpts := opsCfg.ToOptions()
		opsOpts.Metrics = m.Handler()
		opsOpts.Health = health.Fixed(true, "")
		opsOpts.Readiness = health.Fixed(true, "")
		opsOpts.UseRecoverMW = true
		opsOpts.OnPanic = m.IncHttpPanic

		opsHTTPStop, err := opshttp.Start(ctx, L, opsOpts)
		if err != nil {
			L.Error(ctx, err, "failed to start ops http listener")
			return err
		}
		defer func() {
			if err := opsHTTPStop(context.Background()); err != nil {
				L.Error(context.Background(), err, "failed to stop ops http listener")
			}
		}()
	}

	printBanner(appCfg.DryRun)

	report, err := pipe.Run(ctx, pipeline.Options{
		SkipDedup: appCfg.NoDedup,
		Preview:   appCfg.DryRun,
		Threshold: pf.LLM.RelevanceThreshold,
	})
	if err != nil {
		return err
	}

	if appCfg.DryRun {
		printPreview(report.Survivors)
	}
	printSummary(report)

	return nil
}

// buildCollectors instantiates every collector the profile enables.
func buildCollectors(pf *profile.Profile, logger log.Logger) []collector.Collector {
	var cs []collector.Collector

	if c, ok := pf.Collectors["riskybiz"]; ok && c.Enabled {
		feed := c.FeedURL
		if feed == "" {
			feed = defaultRiskyBizFeed
		}
		cs = append(cs, collector.NewRSS("risky.biz", feed, pf.MaxAgeDays("riskybiz"), logger))
	}

	if c, ok := pf.Collectors["therecord"]; ok && c.Enabled {
		base := c.FeedURL
		if base == "" {
			base = defaultTheRecordBase
		}
		cs = append(cs, collector.NewTheRecord(base, pf.MaxAgeDays("therecord"), logger))
	}

	if c, ok := pf.Collectors["mock"]; ok && c.Enabled {
		dir := c.DataDir
		if dir == "" {
			dir = defaultFixtureDir
		}
		cs = append(cs, collector.NewFile("Mock News", dir, pf.MaxAgeDays("mock"), logger))
	}

	return cs
}

// checkProfile validates the profile file and prints a short summary.
func checkProfile(path string) error {
	pf, err := profile.Load(path)
	if err != nil {
		return fmt.Errorf("profile check failed: %w", err)
	}

	fmt.Println("Profile is valid.")
	fmt.Printf("- Company: %s\n", pf.Company.Name)
	fmt.Printf("- Industry: %s\n", pf.Company.Industry)
	enabled := make([]string, 0, len(pf.Collectors))
	for name, c := range pf.Collectors {
		if c.Enabled {
			enabled = append(enabled, name)
		}
	}
	fmt.Printf("- Enabled collectors: %d\n", len(enabled))
	fmt.Printf("- LLM model: %s\n", pf.LLM.Model)
	fmt.Printf("- Relevance threshold: %.2f\n", pf.LLM.RelevanceThreshold)
	return nil
}

func printBanner(dryRun bool) {
	color.New(color.FgBlue, color.Bold).Println(banner)
	color.New(color.FgYellow, color.Bold).Println("Risk Analysis & Vulnerability Executive News")
	if dryRun {
		color.New(color.FgYellow, color.Bold).Println("=== DRY RUN MODE ===")
	}
	fmt.Println()
}

// printPreview lists the items a full run would score.
func printPreview(items []*news.Item) {
	fmt.Println("Would process these items:")
	for _, it := range items {
		fmt.Println()
		color.New(color.FgYellow).Printf("Source:  ")
		fmt.Println(it.Source)
		color.New(color.FgYellow).Printf("Title:   ")
		fmt.Println(it.Title)
		color.New(color.FgYellow).Printf("Date:    ")
		fmt.Println(it.PublishedDate.Format(time.RFC1123))
		if it.URL != "" {
			color.New(color.FgYellow).Printf("URL:     ")
			fmt.Println(it.URL)
		}
		preview := it.Excerpt(200)
		fmt.Println(preview)
	}
	fmt.Printf("\nTotal items: %d\n", len(items))
	fmt.Println("=== DRY RUN COMPLETE ===")
}

// printSummary renders the run statistics tables.
func printSummary(report *pipeline.Report) {
	stats := report.Stats

	color.New(color.FgGreen, color.Bold).Println("\nCollection Summary:")
	srcTable := tablewriter.NewTable(os.Stdout)
	srcTable.Header([]string{"Source", "Items"})
	for source, count := range stats.PerSource {
		srcTable.Append([]string{source, fmt.Sprintf("%d", count)})
	}
	srcTable.Render()

	color.New(color.FgGreen, color.Bold).Println("\nProcessing Summary:")
	sumTable := tablewriter.NewTable(os.Stdout)
	sumTable.Header([]string{"Stage", "Count"})
	sumTable.Append([]string{"Collected", fmt.Sprintf("%d", stats.Collected)})
	sumTable.Append([]string{"After dedup", fmt.Sprintf("%d", stats.Deduplicated)})
	sumTable.Append([]string{"Processed", fmt.Sprintf("%d", stats.Processed)})
	sumTable.Append([]string{"Relevant", fmt.Sprintf("%d", stats.Relevant)})
	sumTable.Append([]string{"Filtered out", fmt.Sprintf("%d", stats.Filtered)})
	sumTable.Append([]string{"Failures", fmt.Sprintf("%d", stats.Failures)})
	sumTable.Render()
}
