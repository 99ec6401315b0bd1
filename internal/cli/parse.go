package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/citycast-digest/internal/calendar"
	"github.com/pfrederiksen/citycast-digest/internal/event"
	"github.com/pfrederiksen/citycast-digest/internal/logger"
	"github.com/pfrederiksen/citycast-digest/internal/metrics"
	"github.com/pfrederiksen/citycast-digest/internal/scraper"
	"github.com/pfrederiksen/citycast-digest/internal/storage"
)

type parseFlags struct {
	format string
	sort   string
	save   bool
}

func newParseCmd(g *globalFlags) *cobra.Command {
	f := &parseFlags{}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract events from the page and print them without sending anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, g, f)
		},
	}

	cmd.Flags().StringVar(&f.format, "format", "text", "Output format: text, json or ics")
	cmd.Flags().StringVar(&f.sort, "sort", "page", "Sort order: page, date or title")
	cmd.Flags().BoolVar(&f.save, "save", false, "Also save the parsed events to the data directory")

	return cmd
}

func runParse(cmd *cobra.Command, g *globalFlags, f *parseFlags) error {
	format, err := parseFormat(f.format, FormatText, FormatJSON, FormatICS)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(f.sort)
	if err != nil {
		return err
	}

	cfg, log, err := setup(cmd, g, false)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	m := metrics.New()
	parser := scraper.NewParser(
		scraper.WithClock(func() time.Time { return time.Now().In(loc) }),
		scraper.WithLogger(log),
		scraper.WithMetrics(m),
	)

	var (
		days   []event.DayGroup
		source string
	)
	if cfg.Source.File != "" {
		source = cfg.Source.File
		markup, err := scraper.FetchFile(cfg.Source.File)
		if err != nil {
			return fmt.Errorf("fetching events: %w", err)
		}
		days, err = parser.ParseString(markup)
		if err != nil {
			return fmt.Errorf("extracting events: %w", err)
		}
	} else {
		sc := newScraper(cfg, scraper.WithParser(parser))
		source = sc.URL()
		log.Debug("Fetching events page", logger.Fields{"url": source})
		days, err = sc.FetchEvents(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching events: %w", err)
		}
	}

	if f.save {
		store, err := storage.New(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		if err := store.SaveDays(days); err != nil {
			return fmt.Errorf("saving events: %w", err)
		}
		log.Info("Saved events", logger.Fields{"path": store.Path()})
	}

	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn("Failed to write metrics textfile", logger.Fields{"error": err.Error()})
	}

	sortDays(days, order)

	if format == FormatICS {
		ics := calendar.GenerateICS(days, cfg.SMS.SubjectPrefix, time.Now(), loc)
		if ics == "" {
			log.Info("No dated events to export", nil)
			return nil
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), ics)
		return err
	}

	result := &OutputResult{
		CheckedAt:  time.Now().UTC(),
		Source:     source,
		DayCount:   len(days),
		EventCount: event.CountEvents(days),
		Days:       days,
	}
	if err := WriteOutput(cmd.OutOrStdout(), result, format, g.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
