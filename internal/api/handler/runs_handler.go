package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"csv-import/internal/logger"
	"csv-import/internal/model"
	"csv-import/internal/store"
)

// DefaultErrorLimit caps GetRunErrors when no limit is given.
const DefaultErrorLimit = 100

const runsPrefix = "/api/v1/runs/"

// RunStore is the read side of the run ledger.
type RunStore interface {
	ListRuns(ctx context.Context) ([]store.Run, error)
	GetRun(ctx context.Context, runID string) (store.Run, error)
	FileResults(ctx context.Context, runID string) ([]store.FileRow, error)
	RowErrors(ctx context.Context, runID string, limit int) ([]store.RowError, error)
	Metrics(ctx context.Context, runID string) (model.RunMetrics, error)
}

// RunHandler serves the recorded import runs.
type RunHandler struct {
	Store RunStore
	Log   logger.Logger
}

func NewRunHandler(s RunStore, log logger.Logger) *RunHandler {
	if log == nil {
		log = logger.NopLogger
	}
	return &RunHandler{Store: s, Log: log}
}

// ListRuns retrieves all import runs
// @Summary List runs
// @Description Get every recorded import run, newest first
// @Tags runs
// @Produce json
// @Success 200 {array} store.Run "List of runs"
// @Failure 500 {string} string "Internal server error"
// @Router /runs [get]
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		h.Log.Errorf("listing runs: %v", err)
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// GetRun retrieves one run
// @Summary Get run
// @Description Totals and status of a single import run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} store.Run "Run details"
// @Failure 404 {string} string "Run not found"
// @Router /runs/{id} [get]
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, run)
}

// GetRunFiles retrieves per-file results
// @Summary Get run files
// @Description Per-file outcome of an import run: lines read, records imported, lines skipped and the stage a failed file stopped at
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} store.FileRow "File results"
// @Failure 404 {string} string "Run not found"
// @Router /runs/{id}/files [get]
func (h *RunHandler) GetRunFiles(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	files, err := h.Store.FileResults(r.Context(), run.ID)
	if err != nil {
		h.Log.Errorf("listing files of run %s: %v", run.ID, err)
		http.Error(w, "Failed to fetch file results", http.StatusInternalServerError)
		return
	}
	writeJSON(w, files)
}

// GetRunErrors retrieves skipped lines
// @Summary Get run errors
// @Description Lines skipped during an import run, ordered by file and line
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Param limit query int false "Maximum number of entries (default 100, 0 for all)"
// @Success 200 {array} store.RowError "Skipped lines"
// @Failure 400 {string} string "Invalid limit"
// @Failure 404 {string} string "Run not found"
// @Router /runs/{id}/errors [get]
func (h *RunHandler) GetRunErrors(w http.ResponseWriter, r *http.Request) {
	limit := DefaultErrorLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	rows, err := h.Store.RowErrors(r.Context(), run.ID, limit)
	if err != nil {
		h.Log.Errorf("listing errors of run %s: %v", run.ID, err)
		http.Error(w, "Failed to fetch run errors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

// GetRunMetrics retrieves run progress and throughput
// @Summary Get run metrics
// @Description Progress (files done of total) and throughput (records per second, skip rate) of a run and of each finished file. A running run is measured up to now.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.RunMetrics "Run metrics"
// @Failure 404 {string} string "Run not found"
// @Router /runs/{id}/metrics [get]
func (h *RunHandler) GetRunMetrics(w http.ResponseWriter, r *http.Request) {
	id := runID(r.URL.Path)
	m, err := h.Store.Metrics(r.Context(), id)
	if err == store.ErrNotFound {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	} else if err != nil {
		h.Log.Errorf("computing metrics of run %s: %v", id, err)
		http.Error(w, "Failed to compute run metrics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, m)
}

// lookup resolves the run named in the path, writing the error response
// itself when it cannot.
func (h *RunHandler) lookup(w http.ResponseWriter, r *http.Request) (store.Run, bool) {
	id := runID(r.URL.Path)
	if id == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return store.Run{}, false
	}
	run, err := h.Store.GetRun(r.Context(), id)
	if err == store.ErrNotFound {
		http.Error(w, "Run not found", http.StatusNotFound)
		return store.Run{}, false
	} else if err != nil {
		h.Log.Errorf("fetching run %s: %v", id, err)
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return store.Run{}, false
	}
	return run, true
}

func runID(path string) string {
	if !strings.HasPrefix(path, runsPrefix) {
		return ""
	}
	id, _, _ := strings.Cut(path[len(runsPrefix):], "/")
	return id
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
