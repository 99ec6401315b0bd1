package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/citycast-digest/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByPage  SortOrder = "page"
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
)

func parseSortOrder(value string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(value)))
	switch order {
	case "":
		return SortByPage, nil
	case SortByPage, SortByDate, SortByTitle:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'page', 'date' or 'title')", value)
	}
}

// sortDays reorders day groups in place. SortByPage keeps document order,
// SortByDate orders days by date with undated days last, and SortByTitle
// orders the events inside each day.
func sortDays(days []event.DayGroup, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(days, func(i, j int) bool {
			return compareByDate(days[i], days[j])
		})
	case SortByTitle:
		for _, day := range days {
			events := day.Events
			sort.SliceStable(events, func(i, j int) bool {
				return strings.ToLower(events[i].Title) < strings.ToLower(events[j].Title)
			})
		}
	}
}

// compareByDate compares two days by their date
// Returns true if day i should come before day j
func compareByDate(i, j event.DayGroup) bool {
	dateI, okI := i.Date()
	dateJ, okJ := j.Date()

	// If both dates are valid, compare them
	if okI && okJ {
		return dateI.Before(dateJ)
	}

	// If only one date is valid, put the valid one first
	if okI {
		return true
	}
	return false
}
