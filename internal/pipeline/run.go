package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/citycast-digest/internal/digest"
	"github.com/pfrederiksen/citycast-digest/internal/event"
	"github.com/pfrederiksen/citycast-digest/internal/logger"
	"github.com/pfrederiksen/citycast-digest/internal/metrics"
	"github.com/pfrederiksen/citycast-digest/internal/notifier"
	"github.com/pfrederiksen/citycast-digest/internal/scraper"
)

// Fetcher downloads the events page markup
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Store persists the extracted day groups
type Store interface {
	SaveDays(days []event.DayGroup) error
}

// Deps are the collaborators of a run. Store and Notifier are optional.
type Deps struct {
	Fetcher  Fetcher
	Store    Store
	Notifier notifier.Notifier
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// Options control a single run
type Options struct {
	RunID       string // generated when empty
	SourceFile  string // read markup from this file instead of fetching
	Digest      digest.Options
	MetricsFile string // node-exporter textfile, skipped when empty
}

// Result summarises a finished run
type Result struct {
	RunID    string
	Days     []event.DayGroup
	Events   int
	Digest   *digest.Digest
	Messages []digest.Message
}

// Run executes fetch, extract, save, digest and deliver in order.
// An empty extraction ends the run early without saving or sending.
func Run(ctx context.Context, deps Deps, opts Options) (result *Result, err error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}

	started := time.Now()
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := deps.Logger.With(logger.Fields{"run_id": runID})

	defer func() {
		deps.Metrics.RunFinished(started, err)
		if werr := deps.Metrics.WriteTextfile(opts.MetricsFile); werr != nil {
			log.Warn("Failed to write metrics textfile", logger.Fields{"path": opts.MetricsFile, "error": werr.Error()})
		}
		if err != nil {
			log.Error("Run failed", nil, err)
		}
	}()

	markup, err := obtainMarkup(ctx, deps.Fetcher, opts.SourceFile, log)
	if err != nil {
		return nil, err
	}

	// Headings carry no year; read it in the zone that decides "today"
	clock := deps.Now
	if loc := opts.Digest.Location; loc != nil {
		clock = func() time.Time { return deps.Now().In(loc) }
	}

	parser := scraper.NewParser(
		scraper.WithClock(clock),
		scraper.WithLogger(log),
		scraper.WithMetrics(deps.Metrics),
	)
	days, err := parser.ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("extracting events: %w", err)
	}

	result = &Result{
		RunID:  runID,
		Days:   days,
		Events: event.CountEvents(days),
	}

	if len(days) == 0 {
		log.Info("No events found", nil)
		return result, nil
	}

	log.Info("Extracted events", logger.Fields{"days": len(days), "events": result.Events})

	if deps.Store != nil {
		if err := deps.Store.SaveDays(days); err != nil {
			return nil, fmt.Errorf("saving events: %w", err)
		}
		log.Debug("Saved events", nil)
	}

	result.Digest = digest.Build(days, deps.Now(), opts.Digest)
	result.Messages = result.Digest.Messages()

	if result.Digest.Empty() {
		log.Info("No events today or tomorrow, nothing to send", nil)
		return result, nil
	}

	if deps.Notifier != nil {
		if err := deps.Notifier.Notify(ctx, result.Messages); err != nil {
			return nil, fmt.Errorf("delivering digest: %w", err)
		}
		log.Info("Digest delivered", logger.Fields{"messages": len(result.Messages)})
	}

	return result, nil
}

func obtainMarkup(ctx context.Context, fetcher Fetcher, sourceFile string, log *logger.Logger) (string, error) {
	if sourceFile != "" {
		log.Info("Reading events page from file", logger.Fields{"path": sourceFile})
		return scraper.FetchFile(sourceFile)
	}

	if fetcher == nil {
		return "", fmt.Errorf("no source file and no fetcher configured")
	}

	log.Info("Fetching events page", nil)
	markup, err := fetcher.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching events page: %w", err)
	}
	return markup, nil
}
