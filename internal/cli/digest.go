package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/citycast-digest/internal/digest"
	"github.com/pfrederiksen/citycast-digest/internal/event"
	"github.com/pfrederiksen/citycast-digest/internal/logger"
	"github.com/pfrederiksen/citycast-digest/internal/metrics"
	"github.com/pfrederiksen/citycast-digest/internal/storage"
)

type digestFlags struct {
	format string
	dryRun bool
}

func newDigestCmd(g *globalFlags) *cobra.Command {
	f := &digestFlags{}

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Rebuild the digest from the last saved events and deliver it",
		Long: `Loads events.json from the data directory, builds the today/tomorrow
digest for the current date and sends it. Useful to resend without fetching.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavedDigest(cmd, g, f)
		},
	}

	cmd.Flags().StringVar(&f.format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the SMS messages instead of sending them")

	return cmd
}

func runSavedDigest(cmd *cobra.Command, g *globalFlags, f *digestFlags) error {
	format, err := parseFormat(f.format, FormatText, FormatJSON)
	if err != nil {
		return err
	}

	cfg, log, err := setup(cmd, g, !f.dryRun)
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

	days, err := store.LoadDays()
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}
	log.Debug("Loaded saved events", logger.Fields{"path": store.Path(), "days": len(days)})

	d := digest.Build(days, time.Now(), opts)
	messages := d.Messages()

	m := metrics.New()
	sent := false
	if d.Empty() {
		log.Info("No events today or tomorrow, nothing to send", nil)
	} else {
		n, err := newNotifier(cfg, cmd.OutOrStdout(), log, m, f.dryRun, false)
		if err != nil {
			return fmt.Errorf("initializing notifier: %w", err)
		}
		if err := n.Notify(cmd.Context(), messages); err != nil {
			return fmt.Errorf("delivering digest: %w", err)
		}
		sent = !f.dryRun
	}

	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn("Failed to write metrics textfile", logger.Fields{"error": err.Error()})
	}

	result := &OutputResult{
		CheckedAt:  time.Now().UTC(),
		Source:     store.Path(),
		DayCount:   len(days),
		EventCount: event.CountEvents(days),
		Messages:   messages,
		Sent:       sent,
	}
	if f.dryRun && format == FormatText {
		result.Messages = nil
	}

	if err := WriteOutput(cmd.OutOrStdout(), result, format, g.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
