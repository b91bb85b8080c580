package drawdown

import "fmt"

// Column names accepted by Collection.Column, matching the output contract
// of the event table.
const (
	ColPeakIndex     = "peak_index"
	ColPeakValue     = "peak_value"
	ColTroughIndex   = "trough_index"
	ColTroughValue   = "trough_value"
	ColRecoveryIndex = "recovery_index"
	ColMagnitude     = "magnitude"
	ColDraining      = "draining"
	ColFilling       = "filling"
	ColDuration      = "duration"
)

// ColumnNames lists every column Collection.Column accepts, in the order
// they appear in exported tables.
var ColumnNames = []string{
	ColPeakIndex, ColPeakValue, ColTroughIndex, ColTroughValue,
	ColRecoveryIndex, ColMagnitude, ColDraining, ColFilling, ColDuration,
}

// Collection is the ordered, immutable result of one extraction run.
// Events are ordered by peak index ascending, one per qualifying
// peak/trough pair.
type Collection struct {
	events []Event
}

// NewCollection rehydrates a collection from an already extracted event
// list, e.g. one loaded back from storage. The slice is copied.
func NewCollection(events []Event) *Collection {
	c := &Collection{events: make([]Event, len(events))}
	copy(c.events, events)
	return c
}

// Len returns the number of events.
func (c *Collection) Len() int {
	return len(c.events)
}

// At returns the event at the given position. Positions outside [0, Len)
// return ErrIndexOutOfRange.
func (c *Collection) At(pos int) (Event, error) {
	if pos < 0 || pos >= len(c.events) {
		return Event{}, fmt.Errorf("position %d with %d events: %w", pos, len(c.events), ErrIndexOutOfRange)
	}
	return c.events[pos], nil
}

// Events returns a copy of the event list, preserving immutability of the
// collection itself.
func (c *Collection) Events() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// columnAccessor maps a column name to its per-event accessor. Integer
// attributes (indices, durations) are widened to float64.
func columnAccessor(name string) (func(Event) float64, bool) {
	switch name {
	case ColPeakIndex:
		return func(e Event) float64 { return float64(e.PeakIndex) }, true
	case ColPeakValue:
		return func(e Event) float64 { return e.PeakValue }, true
	case ColTroughIndex:
		return func(e Event) float64 { return float64(e.TroughIndex) }, true
	case ColTroughValue:
		return func(e Event) float64 { return e.TroughValue }, true
	case ColRecoveryIndex:
		return func(e Event) float64 { return float64(e.RecoveryIndex) }, true
	case ColMagnitude:
		return func(e Event) float64 { return e.Magnitude }, true
	case ColDraining:
		return func(e Event) float64 { return float64(e.Draining) }, true
	case ColFilling:
		return func(e Event) float64 { return float64(e.Filling) }, true
	case ColDuration:
		return func(e Event) float64 { return float64(e.Duration) }, true
	}
	return nil, false
}

// Column extracts a named attribute across all events as a float column.
// Unknown names return an error even when the collection is empty.
func (c *Collection) Column(name string) ([]float64, error) {
	get, ok := columnAccessor(name)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	col := make([]float64, len(c.events))
	for i, e := range c.events {
		col[i] = get(e)
	}
	return col, nil
}

// Filter returns the events whose magnitude is at least threshold. The
// receiver is left untouched; extraction itself never drops events.
func (c *Collection) Filter(threshold float64) []Event {
	var out []Event
	for _, e := range c.events {
		if e.Magnitude >= threshold {
			out = append(out, e)
		}
	}
	return out
}
