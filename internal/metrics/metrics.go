// Package metrics records per-invocation counters. The process is short-lived, so
// nothing is served: the registry is pushed to a Pushgateway when one is configured.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "calendarbot"

// Recorder holds one invocation's metrics
type Recorder struct {
	registry *prometheus.Registry

	pagesFetched  prometheus.Counter
	rowsExtracted prometheus.Counter
	rowsSkipped   prometheus.Counter
	messagesSent  *prometheus.CounterVec
	suppressed    *prometheus.CounterVec
	duration      *prometheus.GaugeVec
	lastSuccess   *prometheus.GaugeVec
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_pages_fetched_total",
			Help:      "Calendar fragments fetched.",
		}),
		rowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_rows_extracted_total",
			Help:      "Event rows kept after extraction and deduplication.",
		}),
		rowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_rows_skipped_total",
			Help:      "Event rows dropped because they could not be parsed.",
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages delivered, by mode.",
		}, []string{"mode"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_suppressed_total",
			Help:      "Invocations that delivered nothing because of quiet hours.",
		}, []string{"mode"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of the last invocation, by mode.",
		}, []string{"mode"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last invocation that finished without error, by mode.",
		}, []string{"mode"}),
	}
	r.registry.MustRegister(
		r.pagesFetched,
		r.rowsExtracted,
		r.rowsSkipped,
		r.messagesSent,
		r.suppressed,
		r.duration,
		r.lastSuccess,
	)
	return r
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveTable records what one fetch produced
func (r *Recorder) ObserveTable(pages, rows, skipped int) {
	r.pagesFetched.Add(float64(pages))
	r.rowsExtracted.Add(float64(rows))
	r.rowsSkipped.Add(float64(skipped))
}

// MessageSent counts one delivered message
func (r *Recorder) MessageSent(mode string) {
	r.messagesSent.WithLabelValues(mode).Inc()
}

// Suppressed counts an invocation silenced by quiet hours
func (r *Recorder) Suppressed(mode string) {
	r.suppressed.WithLabelValues(mode).Inc()
}

// Finish records the invocation's duration and, on success, its completion time
func (r *Recorder) Finish(mode string, started time.Time, err error) {
	now := time.Now()
	r.duration.WithLabelValues(mode).Set(now.Sub(started).Seconds())
	if err == nil {
		r.lastSuccess.WithLabelValues(mode).Set(float64(now.Unix()))
	}
}

// Push sends the registry to a Pushgateway under job. Each mode gets its own group
// so a summary push does not replace the alerts series. The grouping label must
// differ from the metrics' own "mode" label.
func (r *Recorder) Push(url, job, mode string) error {
	if err := push.New(url, job).Gatherer(r.registry).Grouping("run_mode", mode).Push(); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
