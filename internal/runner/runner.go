// Package runner implements the two invocation modes.
//
//   - summary: fetch today's table and send one overview message.
//   - alerts:  fetch today's table and send one message per event starting in
//     [now+lead, now+lead+window).
//
// Both modes stay silent during quiet hours unless forced. The alert window width
// must equal the period of the external scheduler that re-invokes alerts; with no
// skipped invocation every event then lands in exactly one window. config.Validate
// enforces the equality.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/rewired-gh/calendarbot/internal/calendar"
	"github.com/rewired-gh/calendarbot/internal/config"
	"github.com/rewired-gh/calendarbot/internal/logger"
	"github.com/rewired-gh/calendarbot/internal/metrics"
	"github.com/rewired-gh/calendarbot/internal/models"
	"github.com/rewired-gh/calendarbot/internal/telegram"
)

// Invocation modes
const (
	ModeSummary = "summary"
	ModeAlerts  = "alerts"
)

// ErrUnknownMode is returned by Run for anything other than ModeSummary or ModeAlerts
var ErrUnknownMode = errors.New("unknown mode")

// Calendar returns the event table for the day containing t
type Calendar interface {
	Day(ctx context.Context, t time.Time) (*calendar.Table, error)
}

// Notifier delivers one message
type Notifier interface {
	Send(text string) error
}

// Ledger remembers delivered alerts across invocations
type Ledger interface {
	WasSent(rowID string, eventTime time.Time) (bool, error)
	MarkSent(rowID string, eventTime, sentAt time.Time) error
	Rotate(cutoff time.Time) (int64, error)
}

// Options holds the schedule settings a Runner needs
type Options struct {
	Location    *time.Location
	QuietStart  config.Clock
	QuietEnd    config.Clock
	Force       bool
	AlertLead   time.Duration
	AlertWindow time.Duration
	Retention   time.Duration // ledger entries older than this are purged
}

// OptionsFromConfig builds Options from a validated configuration
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := cfg.Schedule.LoadLocation()
	if err != nil {
		return Options{}, fmt.Errorf("failed to load location: %w", err)
	}
	start, end := cfg.Schedule.QuietHours()
	return Options{
		Location:    loc,
		QuietStart:  start,
		QuietEnd:    end,
		Force:       cfg.Schedule.Force,
		AlertLead:   cfg.Schedule.AlertLead,
		AlertWindow: cfg.Schedule.AlertWindow,
		Retention:   cfg.Storage.Retention,
	}, nil
}

// Runner orchestrates fetch, filter, format and deliver for one invocation
type Runner struct {
	calendar  Calendar
	notifier  Notifier
	formatter *telegram.Formatter
	metrics   *metrics.Recorder
	ledger    Ledger
	opts      Options
	now       func() time.Time
	log       *logrus.Entry
}

// New creates a Runner
func New(cal Calendar, notifier Notifier, formatter *telegram.Formatter, rec *metrics.Recorder, opts Options) *Runner {
	if rec == nil {
		rec = metrics.New()
	}
	return &Runner{
		calendar:  cal,
		notifier:  notifier,
		formatter: formatter,
		metrics:   rec,
		opts:      opts,
		now:       time.Now,
		log:       logger.With("invocation", uuid.NewString()),
	}
}

// WithLedger enables alert deduplication across invocations
func (r *Runner) WithLedger(l Ledger) *Runner {
	r.ledger = l
	return r
}

// WithClock replaces the time source
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes one invocation of mode
func (r *Runner) Run(ctx context.Context, mode string) error {
	var run func(context.Context) error
	switch mode {
	case ModeSummary:
		run = r.Summary
	case ModeAlerts:
		run = r.Alerts
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	started := time.Now()
	r.log.WithField("mode", mode).Info("Starting invocation")
	err := run(ctx)
	r.metrics.Finish(mode, started, err)
	if err != nil {
		return fmt.Errorf("%s failed: %w", mode, err)
	}
	r.log.WithField("mode", mode).Infof("Invocation completed in %v", time.Since(started))
	return nil
}

// Summary sends the day's overview
func (r *Runner) Summary(ctx context.Context) error {
	now := r.now().In(r.opts.Location)
	if r.suppressed(now) {
		r.log.Infof("Quiet hours (%s): summary not sent", now.Format("15:04"))
		r.metrics.Suppressed(ModeSummary)
		return nil
	}

	table, err := r.fetch(ctx, now)
	if err != nil {
		return err
	}

	if err := r.notifier.Send(r.formatter.FormatSummary(now, table.Events)); err != nil {
		return err
	}
	r.metrics.MessageSent(ModeSummary)
	r.log.Infof("Sent summary with %d events", len(table.Events))
	return nil
}

// Alerts sends one message per event starting inside the look-ahead window
func (r *Runner) Alerts(ctx context.Context) error {
	now := r.now().In(r.opts.Location)
	if r.suppressed(now) {
		r.log.Infof("Quiet hours (%s): alerts disabled", now.Format("15:04"))
		r.metrics.Suppressed(ModeAlerts)
		return nil
	}

	table, err := r.fetch(ctx, now)
	if err != nil {
		return err
	}

	r.rotateLedger(now)

	start, end := AlertWindow(now, r.opts.AlertLead, r.opts.AlertWindow)
	upcoming := SelectUpcoming(table.Events, start, end)
	r.log.Debugf("Alert window [%s, %s): %d of %d events",
		start.Format("15:04"), end.Format("15:04"), len(upcoming), len(table.Events))

	sent := 0
	for _, e := range upcoming {
		if r.ledger != nil {
			already, err := r.ledger.WasSent(e.RowID, e.Time)
			if err != nil {
				return err
			}
			if already {
				r.log.Debugf("Alert for %s (%s) already sent", e.RowID, e.Name)
				continue
			}
		}

		if err := r.notifier.Send(r.formatter.FormatAlert(e)); err != nil {
			return fmt.Errorf("failed to send alert for %s: %w", e.RowID, err)
		}
		sent++
		r.metrics.MessageSent(ModeAlerts)

		if r.ledger != nil {
			if err := r.ledger.MarkSent(e.RowID, e.Time, now); err != nil {
				r.log.Warnf("Failed to record alert %s: %v", e.RowID, err)
			}
		}
	}

	r.log.Infof("Sent %d alerts", sent)
	return nil
}

func (r *Runner) fetch(ctx context.Context, now time.Time) (*calendar.Table, error) {
	table, err := r.calendar.Day(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	r.metrics.ObserveTable(table.Pages, len(table.Events), table.Skipped)
	if table.Skipped > 0 {
		r.log.Warnf("Skipped %d unparseable rows", table.Skipped)
	}
	r.log.Debugf("Fetched %d events over %d pages", len(table.Events), table.Pages)
	return table, nil
}

func (r *Runner) rotateLedger(now time.Time) {
	if r.ledger == nil || r.opts.Retention <= 0 {
		return
	}
	removed, err := r.ledger.Rotate(now.Add(-r.opts.Retention))
	if err != nil {
		r.log.Warnf("Failed to rotate alert ledger: %v", err)
		return
	}
	if removed > 0 {
		r.log.Debugf("Removed %d expired ledger entries", removed)
	}
}

func (r *Runner) suppressed(now time.Time) bool {
	return r.opts.Suppressed(now)
}

// Suppressed reports whether an invocation at now delivers nothing because of quiet hours
func (o Options) Suppressed(now time.Time) bool {
	if o.Location != nil {
		now = now.In(o.Location)
	}
	return !o.Force && InQuietHours(now, o.QuietStart, o.QuietEnd)
}

// InQuietHours reports whether t's time of day falls in [start, end).
// A range with start after end wraps past midnight; start == end never matches.
func InQuietHours(t time.Time, start, end config.Clock) bool {
	if start == end {
		return false
	}
	c := config.ClockOf(t)
	if start < end {
		return c >= start && c < end
	}
	return c >= start || c < end
}

// AlertWindow returns [now+lead, now+lead+width)
func AlertWindow(now time.Time, lead, width time.Duration) (time.Time, time.Time) {
	start := now.Add(lead)
	return start, start.Add(width)
}

// SelectUpcoming returns the timed events starting in [start, end), in table order
func SelectUpcoming(events []models.Event, start, end time.Time) []models.Event {
	return lo.Filter(events, func(e models.Event, _ int) bool {
		return e.HasTime() && !e.Time.Before(start) && e.Time.Before(end)
	})
}
