package event

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"Free", "$0"},
		{"FREE", "$0"},
		{"free", "$0"},
		{"", "$0"},
		{"  ", "$0"},
		{" Free ", "$0"},
		{"$10", "$10"},
		{" $15-$20 ", "$15-$20"},
		{"Free with RSVP", "Free with RSVP"},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			if got := NormalizePrice(tt.price); got != tt.want {
				t.Errorf("NormalizePrice(%q) = %q, want %q", tt.price, got, tt.want)
			}
		})
	}
}

func TestNewEvent_Defaults(t *testing.T) {
	evt := NewEvent()

	if evt.Title != UnknownEvent {
		t.Errorf("Title = %q, want %q", evt.Title, UnknownEvent)
	}
	if evt.Time != UnknownTime {
		t.Errorf("Time = %q, want %q", evt.Time, UnknownTime)
	}
	if evt.Price != UnknownPrice {
		t.Errorf("Price = %q, want %q", evt.Price, UnknownPrice)
	}
	if evt.Location != UnknownLocation {
		t.Errorf("Location = %q, want %q", evt.Location, UnknownLocation)
	}
	if evt.Emoji.IsPresent() || evt.Link.IsPresent() {
		t.Error("Emoji and Link should be absent by default")
	}
}

func TestDayGroup_Date(t *testing.T) {
	day := DayGroup{DateISO: Some("2025-02-07"), DateLabel: "FRIDAY, Feb. 7"}
	got, ok := day.Date()
	if !ok {
		t.Fatal("Date() ok = false, want true")
	}
	if want := time.Date(2025, time.February, 7, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Date() = %v, want %v", got, want)
	}

	unknown := DayGroup{DateLabel: UnknownDate}
	if _, ok := unknown.Date(); ok {
		t.Error("Date() ok = true for absent DateISO")
	}
}

func TestDayGroup_JSONKeepsAbsentDistinctFromEmpty(t *testing.T) {
	days := []DayGroup{
		{
			DateLabel: "garbled",
			Events: []Event{
				{Emoji: Some(""), Title: "Open Mic", Time: "", Price: FreePrice, Location: "Songbyrd"},
			},
		},
	}

	data, err := json.Marshal(days)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	encoded := string(data)
	for _, want := range []string{`"date_iso":null`, `"emoji":""`, `"link":null`, `"time":""`} {
		if !strings.Contains(encoded, want) {
			t.Errorf("encoded JSON missing %s: %s", want, encoded)
		}
	}

	var decoded []DayGroup
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if decoded[0].DateISO.IsPresent() {
		t.Error("decoded DateISO should be absent")
	}
	if emoji, ok := decoded[0].Events[0].Emoji.Get(); !ok || emoji != "" {
		t.Errorf("decoded Emoji = (%q, %v), want present empty string", emoji, ok)
	}
	if decoded[0].Events[0].Link.IsPresent() {
		t.Error("decoded Link should be absent")
	}
}

func TestCountEvents(t *testing.T) {
	days := []DayGroup{
		{Events: []Event{NewEvent(), NewEvent()}},
		{},
		{Events: []Event{NewEvent()}},
	}
	if got := CountEvents(days); got != 3 {
		t.Errorf("CountEvents() = %d, want 3", got)
	}
}

func TestOptional_MarshalKeepsHTMLCharacters(t *testing.T) {
	evt := Event{Link: Some("https://example.org/tickets?a=1&b=<2>")}

	data, err := json.Marshal(evt.Link)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if got, want := string(data), `"https://example.org/tickets?a=1&b=<2>"`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}

	var back Optional[string]
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if back.OrElse("") != "https://example.org/tickets?a=1&b=<2>" {
		t.Errorf("round trip = %q", back.OrElse(""))
	}
}
