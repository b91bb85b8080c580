package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hydrolab/drawdown/internal/drawdown"
	"github.com/hydrolab/drawdown/internal/series"
)

func mustStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func analyzeEvents(t *testing.T, s series.Series) []drawdown.Event {
	t.Helper()
	c, err := drawdown.Analyze(s)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return c.Events()
}

func TestStore_SaveAndGetRun(t *testing.T) {
	s := mustStore(t)

	events := analyzeEvents(t, series.Series{10, 8, 6, 9, 12})
	run := Run{
		ID:        uuid.New().String(),
		Source:    "paws.csv",
		SeriesLen: 5,
		Epsilon:   0,
		CreatedAt: time.Now(),
	}

	if err := s.SaveRun(run, events); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Source != "paws.csv" || got.SeriesLen != 5 {
		t.Errorf("Unexpected run: %+v", got)
	}
	if got.EventCount != len(events) {
		t.Errorf("Expected event count %d, got %d", len(events), got.EventCount)
	}
}

func TestStore_GetEvents_RoundTrip(t *testing.T) {
	s := mustStore(t)

	events := analyzeEvents(t, series.Series{3, 7, 2, 9, 1, 8, 8, 4, 10, 0})
	run := Run{ID: uuid.New().String(), Source: "test", SeriesLen: 10, CreatedAt: time.Now()}
	if err := s.SaveRun(run, events); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.GetEvents(run.ID)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("Expected %d events, got %d", len(events), len(got))
	}
	for i := range events {
		if got[i] != events[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, events[i], got[i])
		}
	}
}

func TestStore_RunNotFound(t *testing.T) {
	s := mustStore(t)

	if _, err := s.GetRun("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if _, err := s.LatestRun(); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound from empty store, got %v", err)
	}
}

func TestStore_LatestAndList(t *testing.T) {
	s := mustStore(t)

	base := time.Now().Add(-time.Hour)
	var lastID string
	for i := 0; i < 3; i++ {
		lastID = uuid.New().String()
		run := Run{
			ID:        lastID,
			Source:    "test",
			SeriesLen: 5,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveRun(run, analyzeEvents(t, series.Series{10, 8, 6, 9, 12})); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	latest, err := s.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest.ID != lastID {
		t.Errorf("Expected latest run %s, got %s", lastID, latest.ID)
	}

	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != lastID {
		t.Errorf("Expected newest run first, got %s", runs[0].ID)
	}
}

func TestStore_SaveRun_Invalid(t *testing.T) {
	s := mustStore(t)

	if err := s.SaveRun(Run{}, nil); err == nil {
		t.Error("Expected error for empty run ID")
	}

	bad := []drawdown.Event{{PeakIndex: 3, TroughIndex: 1, Draining: -2}}
	if err := s.SaveRun(Run{ID: "x", CreatedAt: time.Now()}, bad); err == nil {
		t.Error("Expected error for invalid event")
	}
}
