package drawdown

import (
	"fmt"

	"github.com/hydrolab/drawdown/internal/series"
)

// ExtractorConfig tunes one extraction run.
type ExtractorConfig struct {
	// Epsilon relaxes the recovery comparison: recovery fires at the first
	// index where value >= peakValue - Epsilon. Zero keeps the strict
	// comparison; a small positive value lets noisy series close events on
	// near-misses. Must not be negative.
	Epsilon float64

	// Progress, when non-nil, is called after each event is constructed
	// with the number of events done and the total candidate count.
	Progress func(done, total int)
}

// Extractor pairs the extrema of a series into drawdown events. The
// constructor is cheap; Extract does the work, so callers control when the
// pass runs. Each Extractor is independent and holds no shared state, so
// separate series can be analyzed concurrently with one Extractor each.
type Extractor struct {
	series series.Series
	cfg    ExtractorConfig
}

// NewExtractor creates an extractor over a series, rejecting an invalid
// configuration up front. The series is treated as read-only input and must
// stay unmodified until Extract returns.
func NewExtractor(s series.Series, cfg ExtractorConfig) (*Extractor, error) {
	if cfg.Epsilon < 0 {
		return nil, fmt.Errorf("epsilon must not be negative, got %v", cfg.Epsilon)
	}
	return &Extractor{series: s, cfg: cfg}, nil
}

// Analyze scans a series and extracts its drawdown events in one call with
// the default configuration.
func Analyze(s series.Series) (*Collection, error) {
	x, err := NewExtractor(s, ExtractorConfig{})
	if err != nil {
		return nil, err
	}
	return x.Extract()
}

// Extract scans the series and pairs the resulting extrema into events.
func (x *Extractor) Extract() (*Collection, error) {
	points, err := series.Scan(x.series)
	if err != nil {
		return nil, err
	}
	return x.ExtractFrom(points)
}

// ExtractFrom pairs an already scanned extrema sequence into events.
//
// Every peak immediately followed by a trough becomes one event; the
// recovery index is found by scanning the series forward from the trough
// for the first value at or above the peak level (less epsilon). When the
// series ends first, the last index closes the event and it is reported as
// unresolved rather than dropped.
//
// A sequence that does not strictly alternate kinds returns
// ErrMalformedExtrema: the scanner guarantees alternation, so a violation
// here means corrupt input, and failing beats producing wrong pairings.
func (x *Extractor) ExtractFrom(points []series.ExtremumPoint) (*Collection, error) {
	for i := 1; i < len(points); i++ {
		if points[i].Kind == points[i-1].Kind {
			return nil, fmt.Errorf("consecutive %v at extrema %d and %d: %w",
				points[i].Kind, i-1, i, ErrMalformedExtrema)
		}
	}

	total := 0
	for i := 0; i+1 < len(points); i++ {
		if points[i].Kind == series.Peak {
			total++
		}
	}

	events := make([]Event, 0, total)
	for i := 0; i+1 < len(points); i++ {
		peak, trough := points[i], points[i+1]
		if peak.Kind != series.Peak {
			continue
		}

		e := Event{
			PeakIndex:   peak.Index,
			PeakValue:   peak.Value,
			TroughIndex: trough.Index,
			TroughValue: trough.Value,
			Magnitude:   peak.Value - trough.Value,
			Draining:    trough.Index - peak.Index,
		}
		e.RecoveryIndex, e.Resolved = x.findRecovery(trough.Index, peak.Value)
		e.Filling = e.RecoveryIndex - e.TroughIndex
		e.Duration = e.Draining + e.Filling
		events = append(events, e)

		if x.cfg.Progress != nil {
			x.cfg.Progress(len(events), total)
		}
	}

	return &Collection{events: events}, nil
}

// findRecovery returns the first index at or after troughIndex where the
// series climbs back to the peak level, and whether that happened before
// the record ended. Each search starts at its own trough: recovery targets
// differ per event, so positions cannot be shared across searches without
// risking a miss; in the expected case each search still ends near the next
// peak, keeping the total work close to one pass.
func (x *Extractor) findRecovery(troughIndex int, peakValue float64) (int, bool) {
	for i := troughIndex; i < len(x.series); i++ {
		if x.series[i] >= peakValue-x.cfg.Epsilon {
			return i, true
		}
	}
	return len(x.series) - 1, false
}
