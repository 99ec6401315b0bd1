package cli

import (
	"strings"
	"testing"

	"github.com/pfrederiksen/citycast-digest/internal/event"
)

func sortFixture() []event.DayGroup {
	return []event.DayGroup{
		{DateLabel: "Ongoing", Events: []event.Event{{Title: "b"}, {Title: "A"}}},
		{DateISO: event.Some("2025-01-13"), DateLabel: "Mon", Events: []event.Event{{Title: "zoo"}, {Title: "Art"}}},
		{DateISO: event.Some("2025-01-11"), DateLabel: "Sat"},
		{DateLabel: "Unknown Date"},
	}
}

func labels(days []event.DayGroup) string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.DateLabel)
	}
	return strings.Join(out, ",")
}

func TestSortDays(t *testing.T) {
	tests := []struct {
		order SortOrder
		want  string
	}{
		{SortByPage, "Ongoing,Mon,Sat,Unknown Date"},
		{SortByDate, "Sat,Mon,Ongoing,Unknown Date"},
		{SortByTitle, "Ongoing,Mon,Sat,Unknown Date"},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			days := sortFixture()
			sortDays(days, tt.order)
			if got := labels(days); got != tt.want {
				t.Errorf("sortDays(%s) = %s, want %s", tt.order, got, tt.want)
			}
		})
	}
}

func TestSortDays_TitleSortsWithinDay(t *testing.T) {
	days := sortFixture()
	sortDays(days, SortByTitle)

	if days[0].Events[0].Title != "A" || days[1].Events[0].Title != "Art" {
		t.Errorf("events not sorted by title: %+v", days)
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    SortOrder
		wantErr bool
	}{
		{"", SortByPage, false},
		{"DATE", SortByDate, false},
		{" title ", SortByTitle, false},
		{"state", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSortOrder(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSortOrder(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSortOrder(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
