// Package metrics records per-run counters for citycast-digest.
//
// The job is a short-lived batch process, so nothing is scraped over HTTP. Instead
// the run's registry is written to a node-exporter textfile at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "citycast_digest"

// Metrics holds the collectors for a single run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	daysParsed      prometheus.Counter
	eventsParsed    prometheus.Counter
	itemsMalformed  prometheus.Counter
	sectionsSkipped prometheus.Counter
	messagesSent    prometheus.Counter
	lastRun         prometheus.Gauge
	lastRunSuccess  prometheus.Gauge
	runDuration     prometheus.Histogram
}

// New creates a Metrics with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		daysParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_parsed_total",
			Help:      "Day sections emitted by the extractor.",
		}),
		eventsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_parsed_total",
			Help:      "Event list items emitted by the extractor.",
		}),
		itemsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_malformed_total",
			Help:      "List items replaced by a placeholder because their text could not be split.",
		}),
		sectionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sections_skipped_total",
			Help:      "Day sections dropped because they had no event list.",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Digest messages handed to the SMS gateway.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run finished without error, 0 otherwise.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full fetch, parse and deliver run.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
	}

	m.registry.MustRegister(
		m.daysParsed,
		m.eventsParsed,
		m.itemsMalformed,
		m.sectionsSkipped,
		m.messagesSent,
		m.lastRun,
		m.lastRunSuccess,
		m.runDuration,
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// DayParsed counts one emitted day section and its events
func (m *Metrics) DayParsed(events int) {
	if m == nil {
		return
	}
	m.daysParsed.Inc()
	m.eventsParsed.Add(float64(events))
}

// ItemMalformed counts one placeholder event
func (m *Metrics) ItemMalformed() {
	if m == nil {
		return
	}
	m.itemsMalformed.Inc()
}

// SectionSkipped counts one dropped day section
func (m *Metrics) SectionSkipped() {
	if m == nil {
		return
	}
	m.sectionsSkipped.Inc()
}

// MessageSent counts one delivered digest chunk
func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

// RunFinished records the outcome and duration of a run
func (m *Metrics) RunFinished(started time.Time, err error) {
	if m == nil {
		return
	}
	m.runDuration.Observe(time.Since(started).Seconds())
	m.lastRun.SetToCurrentTime()
	if err != nil {
		m.lastRunSuccess.Set(0)
	} else {
		m.lastRunSuccess.Set(1)
	}
}

// WriteTextfile writes the registry in the text exposition format.
// The file is written atomically so node-exporter never reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
