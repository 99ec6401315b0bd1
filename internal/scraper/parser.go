package scraper

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/citycast-digest/internal/event"
	"github.com/pfrederiksen/citycast-digest/internal/logger"
	"github.com/pfrederiksen/citycast-digest/internal/metrics"
)

// Selectors for the structural markers of the events page
const (
	containerSelector = "div#event-list"
	sectionSelector   = "div.items-start"
	headingSelector   = "h3"
	proseSelector     = "div.prose"
	listSelector      = "ul"
	itemSelector      = "li"
)

// Parser turns events page markup into day groups.
// It never touches the network or filesystem.
type Parser struct {
	now     func() time.Time
	log     *logger.Logger
	metrics *metrics.Metrics
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithClock sets the clock used to pick the year for day headings
func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) {
		p.now = now
	}
}

// WithLogger sets the logger that receives extraction notices
func WithLogger(l *logger.Logger) ParserOption {
	return func(p *Parser) {
		p.log = l
	}
}

// WithMetrics sets the run metrics updated while parsing
func WithMetrics(m *metrics.Metrics) ParserOption {
	return func(p *Parser) {
		p.metrics = m
	}
}

// NewParser creates a Parser
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		now: time.Now,
		log: logger.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseString parses markup held in a string
func (p *Parser) ParseString(markup string) ([]event.DayGroup, error) {
	return p.Parse(strings.NewReader(markup))
}

// Parse extracts day groups from HTML.
// A page without the event list container yields an empty slice, not an error.
func (p *Parser) Parse(r io.Reader) ([]event.DayGroup, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	days := make([]event.DayGroup, 0)

	container := doc.Find(containerSelector).First()
	if container.Length() == 0 {
		p.log.Warn("No event list found on the page", logger.Fields{
			"selector": containerSelector,
		})
		return days, nil
	}

	now := p.now()
	container.Find(sectionSelector).Each(func(i int, section *goquery.Selection) {
		day, ok := p.parseSection(section, now)
		if !ok {
			return
		}
		days = append(days, day)
		p.metrics.DayParsed(len(day.Events))
	})

	return days, nil
}

// parseSection reads one day section. The second return value is false when the
// section has no event list and must be dropped.
func (p *Parser) parseSection(section *goquery.Selection, now time.Time) (event.DayGroup, bool) {
	label := event.UnknownDate
	if heading := section.Find(headingSelector).First(); heading.Length() > 0 {
		label = strings.TrimSpace(heading.Text())
	}

	day := event.DayGroup{
		DateISO:   event.NormalizeDate(label, now),
		DateLabel: label,
	}
	if !day.DateISO.IsPresent() {
		p.log.Debug("Could not normalize day heading", logger.Fields{"date_label": label})
	}

	list := section.Find(proseSelector).First().Find(listSelector).First()
	if list.Length() == 0 {
		p.log.Info("No event list for day, skipping", logger.Fields{"date_label": label})
		p.metrics.SectionSkipped()
		return day, false
	}

	day.Events = make([]event.Event, 0)
	list.Find(itemSelector).Each(func(i int, li *goquery.Selection) {
		evt, err := ParseItem(li)
		if err != nil {
			p.log.Warn("Malformed event item, using placeholder", logger.Fields{
				"date_label": label,
				"item":       i,
				"text":       FlattenText(li),
				"error":      err.Error(),
			})
			p.metrics.ItemMalformed()
		}
		day.Events = append(day.Events, evt)
	})

	return day, true
}

// Parse extracts day groups using a default Parser
func Parse(r io.Reader) ([]event.DayGroup, error) {
	return NewParser().Parse(r)
}
