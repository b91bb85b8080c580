// Package server exposes persisted analysis results over a small JSON API.
// It reads from the run store only; analysis happens in the watch loop, so
// the handlers are safe to serve concurrently with it.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/hydrolab/drawdown/internal/drawdown"
	"github.com/hydrolab/drawdown/internal/logger"
	"github.com/hydrolab/drawdown/internal/stats"
	"github.com/hydrolab/drawdown/internal/storage"
)

// Server serves analysis results from a run store.
type Server struct {
	store *storage.Store
}

// New creates a Server over the given store.
func New(store *storage.Store) *Server {
	return &Server{store: store}
}

// Router builds the API routes.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/runs", s.getRuns).Methods(http.MethodGet)
	router.HandleFunc("/api/runs/{id}", s.getRun).Methods(http.MethodGet)
	router.HandleFunc("/api/events", s.getEvents).Methods(http.MethodGet)
	router.HandleFunc("/api/events/{pos}", s.getEvent).Methods(http.MethodGet)
	router.HandleFunc("/api/cdf/{column}", s.getCDF).Methods(http.MethodGet)
	router.HandleFunc("/api/summary/{column}", s.getSummary).Methods(http.MethodGet)
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// latestCollection loads the newest run and its events.
func (s *Server) latestCollection() (storage.Run, *drawdown.Collection, error) {
	run, err := s.store.LatestRun()
	if err != nil {
		return storage.Run{}, nil, err
	}
	events, err := s.store.GetEvents(run.ID)
	if err != nil {
		return storage.Run{}, nil, err
	}
	return run, drawdown.NewCollection(events), nil
}

func (s *Server) getRuns(w http.ResponseWriter, req *http.Request) {
	limit := 50
	if raw := req.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	run, err := s.store.GetRun(id)
	if errors.Is(err, storage.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	events, err := s.store.GetEvents(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []drawdown.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run":    run,
		"events": events,
	})
}

func (s *Server) getEvents(w http.ResponseWriter, req *http.Request) {
	threshold := 0.0
	if raw := req.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "threshold must be a non-negative number")
			return
		}
		threshold = parsed
	}

	_, collection, err := s.latestCollection()
	if errors.Is(err, storage.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "no runs recorded yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	events := collection.Filter(threshold)
	if events == nil {
		events = []drawdown.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) getEvent(w http.ResponseWriter, req *http.Request) {
	pos, err := strconv.Atoi(mux.Vars(req)["pos"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "position must be an integer")
		return
	}

	_, collection, err := s.latestCollection()
	if errors.Is(err, storage.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "no runs recorded yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	event, err := collection.At(pos)
	if errors.Is(err, drawdown.ErrIndexOutOfRange) {
		writeError(w, http.StatusNotFound, "event position out of range")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// column loads the named column of the latest run, writing the HTTP error
// itself when the run or column is missing.
func (s *Server) column(w http.ResponseWriter, name string) ([]float64, bool) {
	_, collection, err := s.latestCollection()
	if errors.Is(err, storage.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "no runs recorded yet")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	col, err := collection.Column(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return col, true
}

func (s *Server) getCDF(w http.ResponseWriter, req *http.Request) {
	col, ok := s.column(w, mux.Vars(req)["column"])
	if !ok {
		return
	}

	x, y := stats.CumulativeDistribution(col)
	if x == nil {
		x, y = []float64{}, []float64{}
	}
	writeJSON(w, http.StatusOK, map[string][]float64{"x": x, "y": y})
}

func (s *Server) getSummary(w http.ResponseWriter, req *http.Request) {
	col, ok := s.column(w, mux.Vars(req)["column"])
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stats.Describe(col))
}
