package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"csv-import/internal/api/handler"
	"csv-import/internal/model"
	"csv-import/internal/store"
	"csv-import/pkg/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRunID = "5f0c1e1a-0000-4000-8000-000000000001"

func newTestServer(t *testing.T) *router.Router {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	files := []string{"pagina_0001.csv", "pagina_0002.csv"}
	require.NoError(t, s.StartRun(ctx, testRunID, "files_csv", files, started))
	require.NoError(t, s.RecordSkip(ctx, testRunID, "pagina_0001.csv", 3, "invalid delimiter"))
	require.NoError(t, s.RecordSkip(ctx, testRunID, "pagina_0001.csv", 7, "invalid delimiter"))
	require.NoError(t, s.RecordFile(ctx, testRunID, model.FileResult{
		File: "pagina_0001.csv", Stage: "RowLoop", LinesRead: 10, Inserted: 8, Skipped: 2, Elapsed: time.Second,
	}))
	require.NoError(t, s.RecordFile(ctx, testRunID, model.FileResult{
		File: "pagina_0002.csv", Stage: "Init", Error: "cannot connect", Elapsed: time.Millisecond,
	}))
	sum := model.RunSummary{RunID: testRunID, FinishedAt: started.Add(time.Minute)}
	sum.Files, sum.FailedFiles, sum.TotalLines, sum.TotalInserted, sum.TotalSkipped = 2, 1, 10, 8, 2
	require.NoError(t, s.FinishRun(ctx, sum, "completed"))

	r := router.New(nil)
	RegisterRoutes(r, handler.NewRunHandler(s, nil))
	return r
}

func get(t *testing.T, r http.Handler, path string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestListAndGetRun(t *testing.T) {
	r := newTestServer(t)

	var runs []store.Run
	require.Equal(t, http.StatusOK, get(t, r, "/api/v1/runs", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, testRunID, runs[0].ID)

	var run store.Run
	require.Equal(t, http.StatusOK, get(t, r, "/api/v1/runs/"+testRunID, &run))
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, int64(8), run.Inserted)
	assert.Equal(t, 1, run.FailedFiles)
	assert.Equal(t, []string{"pagina_0001.csv", "pagina_0002.csv"}, run.Files)
	require.NotNil(t, run.FinishedAt)

	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/v1/runs/unknown", nil))
}

func TestRunFilesAndErrors(t *testing.T) {
	r := newTestServer(t)

	var files []store.FileRow
	require.Equal(t, http.StatusOK, get(t, r, "/api/v1/runs/"+testRunID+"/files", &files))
	require.Len(t, files, 2)
	assert.Equal(t, "pagina_0001.csv", files[0].File)
	assert.Equal(t, int64(1000), files[0].ElapsedMS)
	assert.Equal(t, "cannot connect", files[1].Error)

	var rows []store.RowError
	require.Equal(t, http.StatusOK, get(t, r, "/api/v1/runs/"+testRunID+"/errors", &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0].Line)

	require.Equal(t, http.StatusOK, get(t, r, "/api/v1/runs/"+testRunID+"/errors?limit=1", &rows))
	assert.Len(t, rows, 1)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/v1/runs/"+testRunID+"/errors?limit=x", nil))
	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/v1/runs/unknown/files", nil))
}

func TestRunMetrics(t *testing.T) {
	r := newTestServer(t)

	var m model.RunMetrics
	require.Equal(t, http.StatusOK, get(t, r, "/api/v1/runs/"+testRunID+"/metrics", &m))
	assert.Equal(t, "completed", m.Status)
	assert.Equal(t, 2, m.FilesDone)
	assert.Equal(t, 1, m.FailedFiles)
	assert.Equal(t, 100.0, m.PercentComplete)
	assert.Equal(t, time.Minute, m.Duration)
	require.Len(t, m.Files, 2)
	assert.Equal(t, 8.0, m.Files[0].RecordsPerSecond)
	assert.Equal(t, 0.2, m.Files[0].SkipRate)

	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/v1/runs/unknown/metrics", nil))
}

func TestSwaggerDoc(t *testing.T) {
	r := newTestServer(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/runs/{id}/files")
}
