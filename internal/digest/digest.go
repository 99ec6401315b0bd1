package digest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/citycast-digest/internal/event"
)

const (
	DefaultChunkSize     = 160
	DefaultSubjectPrefix = "DC Events"

	MarkerToday    = "today"
	MarkerTomorrow = "tomorrow"
)

var (
	nonWordPattern  = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	digitsPattern   = regexp.MustCompile(`\p{Nd}+`)
	spacePattern    = regexp.MustCompile(`[\s\p{Z}]+`)
	nonPricePattern = regexp.MustCompile(`[^\p{Nd}$]+`)
)

// Options controls how a digest is built
type Options struct {
	ChunkSize     int            // Characters per message, DefaultChunkSize when zero
	SubjectPrefix string         // Subject before the "(i/N)" counter
	Location      *time.Location // Zone that decides what "today" is, time.Local when nil
}

// Section is one day of the digest
type Section struct {
	Marker string // MarkerToday or MarkerTomorrow
	Date   time.Time
	Day    event.DayGroup
}

// Message is one chunk of the digest ready for delivery
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Index   int    `json:"index"` // 1-based
	Total   int    `json:"total"`
}

// Digest is the rendered summary of today's and tomorrow's events
type Digest struct {
	Sections []Section
	Text     string
	Chunks   []string

	subjectPrefix string
}

// Build filters days to today and tomorrow, renders them and splits the text
// into chunks. Days whose date could not be normalized are never included.
func Build(days []event.DayGroup, now time.Time, opts Options) *Digest {
	opts = opts.withDefaults()

	local := now.In(opts.Location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	sections := make([]Section, 0, 2)
	for _, day := range days {
		date, ok := day.Date()
		if !ok {
			continue
		}
		switch {
		case event.IsSameDay(date, today):
			sections = append(sections, Section{Marker: MarkerToday, Date: date, Day: day})
		case event.IsSameDay(date, tomorrow):
			sections = append(sections, Section{Marker: MarkerTomorrow, Date: date, Day: day})
		}
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Date.Before(sections[j].Date)
	})

	text := Render(sections)

	return &Digest{
		Sections:      sections,
		Text:          text,
		Chunks:        Chunk(text, opts.ChunkSize),
		subjectPrefix: opts.SubjectPrefix,
	}
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.SubjectPrefix == "" {
		o.SubjectPrefix = DefaultSubjectPrefix
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// Empty reports whether there is nothing to send
func (d *Digest) Empty() bool {
	return len(d.Chunks) == 0
}

// EventCount returns the number of event lines in the digest
func (d *Digest) EventCount() int {
	n := 0
	for _, s := range d.Sections {
		for _, evt := range s.Day.Events {
			if !evt.Malformed {
				n++
			}
		}
	}
	return n
}

// Messages labels every chunk with a "(i/N)" subject
func (d *Digest) Messages() []Message {
	if d.Empty() {
		return nil
	}

	total := len(d.Chunks)
	messages := make([]Message, 0, total)
	for i, chunk := range d.Chunks {
		messages = append(messages, Message{
			Subject: fmt.Sprintf("%s (%d/%d)", d.subjectPrefix, i+1, total),
			Body:    chunk,
			Index:   i + 1,
			Total:   total,
		})
	}
	return messages
}

// Render writes a marker line per section followed by one line per event.
// Placeholder events for malformed items are left out.
func Render(sections []Section) string {
	var msg strings.Builder

	for _, s := range sections {
		msg.WriteString(s.Marker)
		msg.WriteString("\n")
		for _, evt := range s.Day.Events {
			if evt.Malformed {
				continue
			}
			msg.WriteString(FormatEventLine(evt))
			msg.WriteString("\n")
		}
	}

	return msg.String()
}

// FormatEventLine compresses an event into "<title> <time> <location> <price>".
//
// The title keeps only letters, digits and underscores, the time becomes its digit
// runs joined by "-", the location loses all whitespace and the price keeps only
// digits and "$".
func FormatEventLine(evt event.Event) string {
	title := nonWordPattern.ReplaceAllString(evt.Title, "")
	when := strings.Join(digitsPattern.FindAllString(evt.Time, -1), "-")
	location := spacePattern.ReplaceAllString(evt.Location, "")
	price := nonPricePattern.ReplaceAllString(evt.Price, "")

	return fmt.Sprintf("%s %s %s %s", title, when, location, price)
}

// Chunk splits text into pieces of at most size characters.
// It counts runes so a multi-byte character is never cut in half.
func Chunk(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
