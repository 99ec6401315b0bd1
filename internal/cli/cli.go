package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/citycast-digest/internal/config"
	"github.com/pfrederiksen/citycast-digest/internal/digest"
	"github.com/pfrederiksen/citycast-digest/internal/logger"
	"github.com/pfrederiksen/citycast-digest/internal/metrics"
	"github.com/pfrederiksen/citycast-digest/internal/notifier"
	"github.com/pfrederiksen/citycast-digest/internal/pipeline"
	"github.com/pfrederiksen/citycast-digest/internal/scraper"
	"github.com/pfrederiksen/citycast-digest/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// globalFlags are shared by every command
type globalFlags struct {
	configPath  string
	sourceFile  string
	url         string
	dataDir     string
	metricsFile string
	timezone    string
	verbose     bool
}

type runFlags struct {
	format string
	dryRun bool
	noSend bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "citycast-digest",
		Short: "Text a daily digest of City Cast DC events",
		Long: `Fetches the City Cast DC events page, saves the parsed events and
texts a compact today/tomorrow digest to an email-to-SMS gateway.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, g, f)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&g.sourceFile, "source-file", "", "Read the events page from a local file instead of fetching it")
	pf.StringVar(&g.url, "url", "", "Events page URL (default "+config.DefaultEventsURL+")")
	pf.StringVar(&g.dataDir, "data-dir", "", "Data directory for events.json (default "+config.DefaultDataDir+")")
	pf.StringVar(&g.metricsFile, "metrics-file", "", "Write run metrics to this node-exporter textfile")
	pf.StringVar(&g.timezone, "timezone", "", "Time zone that decides today and tomorrow (default "+config.DefaultTimezone+")")
	pf.BoolVar(&g.verbose, "verbose", false, "Enable verbose logging")

	cmd.Flags().StringVar(&f.format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the SMS messages instead of sending them")
	cmd.Flags().BoolVar(&f.noSend, "no-send", false, "Parse and save only, skip the digest delivery")

	cmd.AddCommand(newParseCmd(g))
	cmd.AddCommand(newDigestCmd(g))

	return cmd
}

// setup loads and validates the configuration with flag overrides applied,
// and installs the default logger
func setup(cmd *cobra.Command, g *globalFlags, requireDelivery bool) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if g.sourceFile != "" {
		cfg.Source.File = g.sourceFile
	}
	if g.url != "" {
		cfg.Source.URL = g.url
	}
	if g.dataDir != "" {
		cfg.Storage.DataDir = g.dataDir
	}
	if g.metricsFile != "" {
		cfg.MetricsFile = g.metricsFile
	}
	if g.timezone != "" {
		cfg.Timezone = g.timezone
	}
	if g.verbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}

	if err := cfg.Validate(requireDelivery); err != nil {
		return nil, nil, err
	}

	log := logger.New(cfg.Level(), cmd.ErrOrStderr())
	logger.SetDefault(log)

	return cfg, log, nil
}

func parseFormat(value string, allowed ...OutputFormat) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	names := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if format == a {
			return format, nil
		}
		names = append(names, "'"+string(a)+"'")
	}
	return "", fmt.Errorf("invalid format: %s (must be %s)", value, strings.Join(names, " or "))
}

func newScraper(cfg *config.Config, opts ...scraper.Option) *scraper.Scraper {
	base := []scraper.Option{
		scraper.WithURL(cfg.Source.URL),
		scraper.WithHTTPClient(&http.Client{Timeout: cfg.Source.Timeout}),
	}
	return scraper.New(append(base, opts...)...)
}

func digestOptions(cfg *config.Config) (digest.Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return digest.Options{}, err
	}
	return digest.Options{
		ChunkSize:     cfg.Digest.ChunkSize,
		SubjectPrefix: cfg.SMS.SubjectPrefix,
		Location:      loc,
	}, nil
}

// newNotifier picks the delivery channel, nil when nothing should be sent
func newNotifier(cfg *config.Config, out io.Writer, log *logger.Logger, m *metrics.Metrics, dryRun, noSend bool) (notifier.Notifier, error) {
	switch {
	case noSend:
		return nil, nil
	case dryRun:
		return notifier.NewDryRunNotifier(out), nil
	}

	sms, err := notifier.NewSMSNotifier(cfg,
		notifier.WithSMSLogger(log),
		notifier.WithSMSMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	return sms, nil
}

// runDigest is the main command logic
func runDigest(cmd *cobra.Command, g *globalFlags, f *runFlags) error {
	format, err := parseFormat(f.format, FormatText, FormatJSON)
	if err != nil {
		return err
	}

	cfg, log, err := setup(cmd, g, !f.dryRun && !f.noSend)
	if err != nil {
		return err
	}

	opts, err := digestOptions(cfg)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	m := metrics.New()
	runID := uuid.NewString()
	runLog := log.With(logger.Fields{"run_id": runID})

	n, err := newNotifier(cfg, cmd.OutOrStdout(), runLog, m, f.dryRun, f.noSend)
	if err != nil {
		return fmt.Errorf("initializing notifier: %w", err)
	}

	result, err := pipeline.Run(cmd.Context(), pipeline.Deps{
		Fetcher:  newScraper(cfg),
		Store:    store,
		Notifier: n,
		Metrics:  m,
		Logger:   log,
	}, pipeline.Options{
		RunID:       runID,
		SourceFile:  cfg.Source.File,
		Digest:      opts,
		MetricsFile: cfg.MetricsFile,
	})
	if err != nil {
		return err
	}

	source := cfg.Source.URL
	if cfg.Source.File != "" {
		source = cfg.Source.File
	}

	out := &OutputResult{
		CheckedAt:  time.Now().UTC(),
		RunID:      result.RunID,
		Source:     source,
		DayCount:   len(result.Days),
		EventCount: result.Events,
		Messages:   result.Messages,
		Sent:       n != nil && !f.dryRun && len(result.Messages) > 0,
	}
	if format == FormatJSON {
		out.Days = result.Days
	}

	// The dry-run notifier already printed the messages
	if f.dryRun && format == FormatText {
		out.Messages = nil
	}

	if err := WriteOutput(cmd.OutOrStdout(), out, format, g.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
