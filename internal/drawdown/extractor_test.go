package drawdown

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hydrolab/drawdown/internal/series"
)

func mustAnalyze(t *testing.T, s series.Series) *Collection {
	t.Helper()
	c, err := Analyze(s)
	if err != nil {
		t.Fatalf("Analyze(%v) failed: %v", s, err)
	}
	return c
}

func TestAnalyze_SimpleDrawdown(t *testing.T) {
	c := mustAnalyze(t, series.Series{10, 8, 6, 9, 12})

	if c.Len() != 1 {
		t.Fatalf("Expected 1 event, got %d", c.Len())
	}
	e, err := c.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}

	if e.PeakIndex != 0 || e.PeakValue != 10 {
		t.Errorf("Expected peak (0, 10), got (%d, %v)", e.PeakIndex, e.PeakValue)
	}
	if e.TroughIndex != 2 || e.TroughValue != 6 {
		t.Errorf("Expected trough (2, 6), got (%d, %v)", e.TroughIndex, e.TroughValue)
	}
	if e.RecoveryIndex != 4 {
		t.Errorf("Expected recovery at 4, got %d", e.RecoveryIndex)
	}
	if e.Magnitude != 4 {
		t.Errorf("Expected magnitude 4, got %v", e.Magnitude)
	}
	if e.Draining != 2 || e.Filling != 2 || e.Duration != 4 {
		t.Errorf("Expected draining=2 filling=2 duration=4, got %d/%d/%d", e.Draining, e.Filling, e.Duration)
	}
	if !e.Resolved {
		t.Error("Expected event to be resolved")
	}
}

func TestAnalyze_MonotonicIncreasing(t *testing.T) {
	c := mustAnalyze(t, series.Series{1, 2, 3, 4, 5})
	if c.Len() != 0 {
		t.Fatalf("Expected 0 events for monotonic series, got %d", c.Len())
	}
}

func TestAnalyze_UnresolvedAtSeriesEnd(t *testing.T) {
	c := mustAnalyze(t, series.Series{10, 4, 6})

	if c.Len() != 1 {
		t.Fatalf("Expected 1 event, got %d", c.Len())
	}
	e, _ := c.At(0)

	if e.RecoveryIndex != 2 {
		t.Errorf("Expected recovery index 2 (series end), got %d", e.RecoveryIndex)
	}
	if e.Filling != 1 {
		t.Errorf("Expected filling 1, got %d", e.Filling)
	}
	if e.Magnitude != 6 {
		t.Errorf("Expected magnitude 6, got %v", e.Magnitude)
	}
	if e.Resolved {
		t.Error("Expected event to be unresolved")
	}
}

func TestAnalyze_FlatSeries(t *testing.T) {
	c := mustAnalyze(t, series.Series{5, 5, 5})

	if c.Len() != 1 {
		t.Fatalf("Expected 1 degenerate event, got %d", c.Len())
	}
	e, _ := c.At(0)

	if e.Magnitude != 0 {
		t.Errorf("Expected magnitude 0, got %v", e.Magnitude)
	}
	if e.PeakIndex != 0 || e.TroughIndex != 2 {
		t.Errorf("Expected peak at 0 and trough at 2, got %d and %d", e.PeakIndex, e.TroughIndex)
	}
	if e.Filling != 0 {
		t.Errorf("Expected filling 0 (recovery at the trough itself), got %d", e.Filling)
	}
}

func TestAnalyze_Invariants(t *testing.T) {
	cases := []series.Series{
		{10, 8, 6, 9, 12},
		{10, 4, 6},
		{5, 5, 5},
		{3, 7, 2, 9, 1, 8, 8, 4, 10, 0},
		{1, 1, 2, 2, 1, 1, 3},
		{9, 1, 9, 1, 9},
		{0, 5, 0, 5, 0},
	}

	for _, s := range cases {
		c := mustAnalyze(t, s)
		points, err := series.Scan(s)
		if err != nil {
			t.Fatalf("Scan(%v) failed: %v", s, err)
		}

		pairs := 0
		for i := 0; i+1 < len(points); i++ {
			if points[i].Kind == series.Peak {
				pairs++
			}
		}
		if c.Len() != pairs {
			t.Errorf("Series %v: expected %d events (one per peak/trough pair), got %d", s, pairs, c.Len())
		}

		prevPeak := -1
		for _, e := range c.Events() {
			if err := e.Validate(); err != nil {
				t.Errorf("Series %v: invalid event %+v: %v", s, e, err)
			}
			if e.PeakIndex <= prevPeak {
				t.Errorf("Series %v: events not ordered by peak index", s)
			}
			prevPeak = e.PeakIndex
		}
	}
}

func TestExtract_Idempotent(t *testing.T) {
	s := series.Series{3, 7, 2, 9, 1, 8, 8, 4, 10, 0}

	first := mustAnalyze(t, s)
	second := mustAnalyze(t, s)

	if !reflect.DeepEqual(first.Events(), second.Events()) {
		t.Errorf("Repeated extraction differs:\n%+v\n%+v", first.Events(), second.Events())
	}
}

func TestExtractFrom_MalformedExtrema(t *testing.T) {
	s := series.Series{10, 8, 6, 9, 12}
	x, err := NewExtractor(s, ExtractorConfig{})
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	broken := []series.ExtremumPoint{
		{Index: 0, Value: 10, Kind: series.Peak},
		{Index: 2, Value: 6, Kind: series.Peak},
	}
	if _, err := x.ExtractFrom(broken); !errors.Is(err, ErrMalformedExtrema) {
		t.Errorf("Expected ErrMalformedExtrema, got %v", err)
	}
}

func TestNewExtractor_NegativeEpsilon(t *testing.T) {
	if _, err := NewExtractor(series.Series{3, 1, 2}, ExtractorConfig{Epsilon: -0.5}); err == nil {
		t.Error("Expected NewExtractor to reject a negative epsilon")
	}
}

func TestExtractor_EpsilonRecovery(t *testing.T) {
	// Strict comparison never sees 9.95 as recovering a 10.0 peak; with
	// epsilon 0.1 it does.
	s := series.Series{10, 6, 9.95, 9.0}

	strict := mustAnalyze(t, s)
	e, _ := strict.At(0)
	if e.Resolved {
		t.Errorf("Strict extraction should leave the event unresolved, got %+v", e)
	}

	x, err := NewExtractor(s, ExtractorConfig{Epsilon: 0.1})
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	relaxed, err := x.Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	e, _ = relaxed.At(0)
	if !e.Resolved || e.RecoveryIndex != 2 {
		t.Errorf("Expected recovery at index 2 with epsilon, got %+v", e)
	}
}

func TestExtractor_Progress(t *testing.T) {
	var calls [][2]int
	cfg := ExtractorConfig{Progress: func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}}

	x, err := NewExtractor(series.Series{9, 1, 9, 1, 9}, cfg)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	c, err := x.Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(calls) != c.Len() {
		t.Fatalf("Expected %d progress calls, got %d", c.Len(), len(calls))
	}
	for i, call := range calls {
		if call[0] != i+1 || call[1] != c.Len() {
			t.Errorf("Progress call %d: expected (%d, %d), got %v", i, i+1, c.Len(), call)
		}
	}
}

func TestCollection_At_OutOfRange(t *testing.T) {
	c := mustAnalyze(t, series.Series{10, 8, 6, 9, 12})

	for _, pos := range []int{-1, 1, 100} {
		if _, err := c.At(pos); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("At(%d): expected ErrIndexOutOfRange, got %v", pos, err)
		}
	}
}

func TestCollection_Column(t *testing.T) {
	c := mustAnalyze(t, series.Series{10, 8, 6, 9, 12})

	mags, err := c.Column(ColMagnitude)
	if err != nil {
		t.Fatalf("Column(magnitude) failed: %v", err)
	}
	if len(mags) != 1 || mags[0] != 4 {
		t.Errorf("Expected magnitudes [4], got %v", mags)
	}

	for _, name := range ColumnNames {
		if _, err := c.Column(name); err != nil {
			t.Errorf("Column(%s) failed: %v", name, err)
		}
	}

	if _, err := c.Column("no_such_column"); err == nil {
		t.Error("Expected error for unknown column")
	}
}

func TestCollection_Column_EmptyCollection(t *testing.T) {
	// A monotone series yields no events; name validation must still apply.
	c := mustAnalyze(t, series.Series{1, 2, 3, 4, 5})
	if c.Len() != 0 {
		t.Fatalf("Expected empty collection, got %d events", c.Len())
	}

	if _, err := c.Column("no_such_column"); err == nil {
		t.Error("Expected error for unknown column on an empty collection")
	}
	for _, name := range ColumnNames {
		col, err := c.Column(name)
		if err != nil {
			t.Errorf("Column(%s) failed on empty collection: %v", name, err)
		}
		if len(col) != 0 {
			t.Errorf("Column(%s): expected empty column, got %v", name, col)
		}
	}
}

func TestCollection_Filter(t *testing.T) {
	c := mustAnalyze(t, series.Series{10, 6, 11, 9, 12})

	all := c.Filter(0)
	if len(all) != c.Len() {
		t.Errorf("Filter(0) should keep everything: expected %d, got %d", c.Len(), len(all))
	}

	big := c.Filter(3)
	if len(big) != 1 || big[0].Magnitude != 4 {
		t.Errorf("Filter(3): expected one event of magnitude 4, got %+v", big)
	}

	if got := c.Filter(100); len(got) != 0 {
		t.Errorf("Filter(100): expected no events, got %+v", got)
	}
}
