package event

import (
	"strings"
	"time"
)

// Defaults used when the markup does not carry a field
const (
	UnknownDate     = "Unknown Date"
	UnknownEvent    = "Unknown Event"
	UnknownTime     = "Unknown Time"
	UnknownPrice    = "Unknown Price"
	UnknownLocation = "Unknown Location"

	// FreePrice replaces an empty or "free" price
	FreePrice = "$0"
)

// Event represents a single listing under a day heading
type Event struct {
	Emoji     Optional[string] `json:"emoji"`
	Title     string           `json:"title"`
	Link      Optional[string] `json:"link"`
	Time      string           `json:"time"`
	Price     string           `json:"price"`
	Location  string           `json:"location"`
	Malformed bool             `json:"malformed,omitempty"` // Placeholder for an item that could not be split
}

// DayGroup represents one day section of the events page
type DayGroup struct {
	DateISO   Optional[string] `json:"date_iso"`
	DateLabel string           `json:"date_label"` // Heading text as shown on the page, e.g. "FRIDAY, Feb. 7"
	Events    []Event          `json:"events"`
}

// NewEvent returns an Event with every field set to its default
func NewEvent() Event {
	return Event{
		Title:    UnknownEvent,
		Time:     UnknownTime,
		Price:    UnknownPrice,
		Location: UnknownLocation,
	}
}

// Date returns the normalized date of the group.
// The second return value is false when the heading could not be normalized.
func (d DayGroup) Date() (time.Time, bool) {
	iso, ok := d.DateISO.Get()
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(ISODateLayout, iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizePrice trims a price and maps empty or "free" to FreePrice
func NormalizePrice(price string) string {
	price = strings.TrimSpace(price)
	if price == "" || strings.EqualFold(price, "free") {
		return FreePrice
	}
	return price
}

// CountEvents returns the total number of events across all groups
func CountEvents(days []DayGroup) int {
	n := 0
	for _, d := range days {
		n += len(d.Events)
	}
	return n
}
