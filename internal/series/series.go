// Package series provides the scanner that partitions a scalar storage
// time series into monotonic runs, emitting the local extrema (alternating
// peaks and troughs) that downstream drawdown extraction pairs into events.
//
// The series index is the time step: 0-based, contiguous, no gaps. Callers
// are responsible for handing over a fully materialized sequence; the
// scanner never mutates it.
package series

import "errors"

// ErrInsufficientData is returned when a series has fewer than 2 points,
// which is too short to carry even a degenerate drawdown.
var ErrInsufficientData = errors.New("series must contain at least 2 points")

// Series is an ordered sequence of storage values, one per time step.
type Series []float64

// Kind classifies an extremum as a local maximum or minimum.
type Kind int

const (
	// Peak marks a local maximum: the series switches from rising to falling.
	Peak Kind = iota
	// Trough marks a local minimum: the series switches from falling to rising.
	Trough
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k == Peak {
		return "peak"
	}
	return "trough"
}

// ExtremumPoint is a single local extremum in a series.
type ExtremumPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
	Kind  Kind    `json:"kind"`
}
