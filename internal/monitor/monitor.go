// Package monitor drives watch mode: it periodically re-reads a series
// file, re-runs the drawdown analysis, persists the run, and raises alerts
// for significant events.
//
// An event is significant when its magnitude reaches the alert threshold.
// Alerts are deduplicated per peak index with a cooldown, so a stable large
// drawdown is reported once per cooldown window; an event whose magnitude
// has grown since it was last reported is re-sent immediately, since a
// deepening drawdown is new information.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hydrolab/drawdown/internal/csvio"
	"github.com/hydrolab/drawdown/internal/drawdown"
	"github.com/hydrolab/drawdown/internal/logger"
	"github.com/hydrolab/drawdown/internal/storage"
)

// Notifier delivers alerts for significant events. The telegram client
// satisfies this; tests substitute their own.
type Notifier interface {
	SendAlerts(source string, events []drawdown.Event) error
}

// Config holds watch-mode parameters for one monitored source.
type Config struct {
	Source         string
	Epsilon        float64
	AlertThreshold float64
	Cooldown       time.Duration
}

// AnalysisError wraps a per-cycle failure so the watch loop can log and
// keep going rather than die on a transient read error.
type AnalysisError struct {
	Source string
	Err    error
}

func (e AnalysisError) Error() string {
	return fmt.Sprintf("analysis error for %s: %v", e.Source, e.Err)
}

func (e AnalysisError) Unwrap() error { return e.Err }

// notifiedRecord tracks a previously alerted event for cooldown deduplication.
type notifiedRecord struct {
	Magnitude float64
	SentAt    time.Time
}

// Monitor re-analyzes one series source and raises alerts.
type Monitor struct {
	cfg      Config
	store    *storage.Store
	notifier Notifier

	notified map[int]notifiedRecord // key = peak index
}

// New creates a Monitor. store and notifier may be nil to disable
// persistence or alerting respectively.
func New(cfg Config, store *storage.Store, notifier Notifier) *Monitor {
	return &Monitor{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		notified: make(map[int]notifiedRecord),
	}
}

// RunOnce performs one load → analyze → persist → alert cycle and returns
// the persisted run description.
func (m *Monitor) RunOnce() (storage.Run, error) {
	s, err := csvio.LoadSeries(m.cfg.Source)
	if err != nil {
		return storage.Run{}, AnalysisError{Source: m.cfg.Source, Err: err}
	}

	extractor, err := drawdown.NewExtractor(s, drawdown.ExtractorConfig{Epsilon: m.cfg.Epsilon})
	if err != nil {
		return storage.Run{}, AnalysisError{Source: m.cfg.Source, Err: err}
	}
	collection, err := extractor.Extract()
	if err != nil {
		return storage.Run{}, AnalysisError{Source: m.cfg.Source, Err: err}
	}

	run := storage.Run{
		ID:         uuid.New().String(),
		Source:     m.cfg.Source,
		SeriesLen:  len(s),
		Epsilon:    m.cfg.Epsilon,
		EventCount: collection.Len(),
		CreatedAt:  time.Now(),
	}

	if m.store != nil {
		if err := m.store.SaveRun(run, collection.Events()); err != nil {
			return storage.Run{}, AnalysisError{Source: m.cfg.Source, Err: err}
		}
	}

	significant := m.filterUnnotified(collection.Filter(m.cfg.AlertThreshold))
	if len(significant) > 0 && m.notifier != nil {
		if err := m.notifier.SendAlerts(m.cfg.Source, significant); err != nil {
			// Alerts are retried next cycle; the run itself succeeded.
			logger.Errorf("Failed to send alerts for %s: %v", m.cfg.Source, err)
		} else {
			m.recordNotified(significant)
		}
	}

	logger.Infof("Analyzed %s: %d points, %d events, %d significant",
		m.cfg.Source, len(s), collection.Len(), len(significant))

	return run, nil
}

// filterUnnotified drops events already alerted within the cooldown window,
// unless the event has deepened since it was last reported.
func (m *Monitor) filterUnnotified(events []drawdown.Event) []drawdown.Event {
	now := time.Now()
	var out []drawdown.Event
	for _, e := range events {
		rec, seen := m.notified[e.PeakIndex]
		if seen && now.Sub(rec.SentAt) < m.cfg.Cooldown && e.Magnitude <= rec.Magnitude {
			continue
		}
		out = append(out, e)
	}
	return out
}

// recordNotified marks events as alerted at the current time.
func (m *Monitor) recordNotified(events []drawdown.Event) {
	now := time.Now()
	for _, e := range events {
		m.notified[e.PeakIndex] = notifiedRecord{Magnitude: e.Magnitude, SentAt: now}
	}
}

// Run re-analyzes the source at the given interval until ctx is cancelled.
// An initial cycle runs immediately; per-cycle errors are logged, not fatal.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	if _, err := m.RunOnce(); err != nil {
		logger.Errorf("%v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("Watch loop for %s stopped", m.cfg.Source)
			return
		case <-ticker.C:
			if _, err := m.RunOnce(); err != nil {
				logger.Errorf("%v", err)
			}
		}
	}
}
