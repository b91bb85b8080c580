// Package drawdown turns the extrema of a storage series into drawdown
// events: peak → trough → recovery cycles with their magnitude and timing.
//
// Extraction is lossless. Degenerate events (zero magnitude, recovery at the
// trough itself) and drawdowns still unresolved when the record ends are all
// reported; thresholding is a presentation concern applied afterwards via
// Collection.Filter, so the complete event record is always available.
package drawdown

import "errors"

// Sentinel errors surfaced by extraction and lookup.
var (
	// ErrMalformedExtrema means the extrema sequence does not strictly
	// alternate peak/trough. The scanner guarantees alternation, so hitting
	// this signals a defect upstream; it is checked to fail loudly rather
	// than pair events incorrectly.
	ErrMalformedExtrema = errors.New("extrema sequence does not alternate peak/trough")

	// ErrIndexOutOfRange means a positional event lookup was outside [0, Len).
	ErrIndexOutOfRange = errors.New("event position out of range")
)

// Event is one drawdown: a decline from a local peak to the following trough
// and the recovery back to the peak level.
//
// RecoveryIndex is the first index at or after the trough where the series
// climbs back to the peak value (less the extractor's epsilon). When the
// record ends before that happens, RecoveryIndex is the last series index
// and the event is unresolved.
type Event struct {
	PeakIndex     int     `json:"peak_index"`
	PeakValue     float64 `json:"peak_value"`
	TroughIndex   int     `json:"trough_index"`
	TroughValue   float64 `json:"trough_value"`
	RecoveryIndex int     `json:"recovery_index"`
	Magnitude     float64 `json:"magnitude"` // PeakValue - TroughValue
	Draining      int     `json:"draining"`  // steps from peak to trough
	Filling       int     `json:"filling"`   // steps from trough to recovery
	Duration      int     `json:"duration"`  // Draining + Filling
	Resolved      bool    `json:"resolved"`  // recovery reached before the record ended
}

// Validate checks the structural invariants of an event.
func (e *Event) Validate() error {
	if e.Magnitude < 0 {
		return errors.New("magnitude must not be negative")
	}
	if e.Draining < 1 {
		return errors.New("draining must be at least 1 step")
	}
	if e.Filling < 0 {
		return errors.New("filling must not be negative")
	}
	if e.TroughIndex < e.PeakIndex {
		return errors.New("trough index must not precede peak index")
	}
	if e.RecoveryIndex < e.TroughIndex {
		return errors.New("recovery index must not precede trough index")
	}
	if e.Draining != e.TroughIndex-e.PeakIndex {
		return errors.New("draining must equal trough index minus peak index")
	}
	if e.Filling != e.RecoveryIndex-e.TroughIndex {
		return errors.New("filling must equal recovery index minus trough index")
	}
	if e.Duration != e.Draining+e.Filling {
		return errors.New("duration must equal draining plus filling")
	}
	return nil
}
