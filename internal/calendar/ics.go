package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/citycast-digest/internal/event"
)

// DefaultDuration is the length given to events with a start time
const DefaultDuration = 2 * time.Hour

var clockLayouts = []string{"3:04PM", "3PM", "15:04"}

// GenerateICS renders every dated event as a VEVENT in a single calendar.
// It returns an empty string when there is nothing to export.
func GenerateICS(days []event.DayGroup, calendarName string, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	var events strings.Builder
	count := 0
	for _, day := range days {
		date, ok := day.Date()
		if !ok {
			continue
		}
		for _, evt := range day.Events {
			if evt.Malformed {
				continue
			}
			writeEvent(&events, day, date, evt, now, loc)
			count++
		}
	}

	if count == 0 {
		return ""
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//City Cast DC//citycast-digest//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if calendarName != "" {
		ics.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICS(calendarName)))
	}
	ics.WriteString(events.String())
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeEvent(ics *strings.Builder, day event.DayGroup, date time.Time, evt event.Event, now time.Time, loc *time.Location) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s@citycast.fm\r\n", EventUID(day, evt)))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(now)))

	if hour, minute, ok := ParseStartClock(evt.Time); ok {
		start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
		ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(start)))
		ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(start.Add(DefaultDuration))))
	} else {
		ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", formatICSDate(date)))
		ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", formatICSDate(date.AddDate(0, 0, 1))))
	}

	summary := evt.Title
	if emoji, ok := evt.Emoji.Get(); ok && emoji != "" {
		summary = emoji + " " + summary
	}
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(summary)))

	description := fmt.Sprintf("%s\nTime: %s\nPrice: %s", day.DateLabel, evt.Time, evt.Price)
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description)))

	if evt.Location != event.UnknownLocation {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(evt.Location)))
	}
	if link, ok := evt.Link.Get(); ok && link != "" {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", link))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// EventUID returns a stable identifier for an event on a given day
func EventUID(day event.DayGroup, evt event.Event) string {
	key := strings.Join([]string{day.DateISO.OrElse(""), evt.Title, evt.Link.OrElse("")}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// ParseStartClock reads the start of free-form time text such as "7:00 PM",
// "7-9pm" or "11 a.m. - 2 p.m.". A start without AM/PM borrows the
// meridiem of the end time.
func ParseStartClock(text string) (hour, minute int, ok bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(text, ".", ""))
	normalized = strings.ReplaceAll(normalized, "–", "-")

	start := normalized
	if i := strings.Index(start, "-"); i >= 0 {
		start = start[:i]
	}
	if i := strings.Index(start, " TO "); i >= 0 {
		start = start[:i]
	}
	start = strings.Join(strings.Fields(start), "")

	if start != "" && !strings.HasSuffix(start, "AM") && !strings.HasSuffix(start, "PM") {
		switch {
		case strings.Contains(normalized, "PM"):
			start += "PM"
		case strings.Contains(normalized, "AM"):
			start += "AM"
		}
	}

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, start); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
