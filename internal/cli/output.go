package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/citycast-digest/internal/digest"
	"github.com/pfrederiksen/citycast-digest/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt  time.Time        `json:"checked_at"`
	RunID      string           `json:"run_id,omitempty"`
	Source     string           `json:"source"`
	DayCount   int              `json:"day_count"`
	EventCount int              `json:"event_count"`
	Days       []event.DayGroup `json:"days,omitempty"`
	Messages   []digest.Message `json:"messages,omitempty"`
	Sent       bool             `json:"sent"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, day := range result.Days {
		date := day.DateISO.OrElse("undated")
		fmt.Fprintf(w, "\n%s (%s, %d events):\n", day.DateLabel, date, len(day.Events))
		for _, evt := range day.Events {
			writeEventLine(w, evt, verbose)
		}
	}

	if len(result.Days) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total: %d events across %d days\n", result.EventCount, result.DayCount)

	if result.Sent {
		fmt.Fprintf(w, "Sent %d SMS messages\n", len(result.Messages))
		return nil
	}

	for _, msg := range result.Messages {
		fmt.Fprintf(w, "\n--- %s ---\n%s", msg.Subject, msg.Body)
	}

	return nil
}

func writeEventLine(w io.Writer, evt event.Event, verbose bool) {
	if evt.Malformed {
		fmt.Fprintln(w, "  [unreadable item]")
		if link, ok := evt.Link.Get(); ok && verbose {
			fmt.Fprintf(w, "       Link: %s\n", link)
		}
		return
	}

	title := evt.Title
	if emoji, ok := evt.Emoji.Get(); ok && emoji != "" {
		title = emoji + " " + title
	}
	fmt.Fprintf(w, "  %s | %s | %s | %s\n", title, evt.Time, evt.Price, evt.Location)

	if verbose {
		if link, ok := evt.Link.Get(); ok {
			fmt.Fprintf(w, "       Link: %s\n", link)
		}
	}
}
