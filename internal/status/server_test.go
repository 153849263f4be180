package status

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcheck/dcheck/internal/executor"
	"github.com/dcheck/dcheck/internal/types"
)

type fixedSource struct {
	st executor.Status
}

func (f fixedSource) Status() executor.Status { return f.st }

func init() {
	gin.SetMode(gin.TestMode)
}

func sampleStatus() executor.Status {
	return executor.Status{
		RunID:   "run-1",
		Running: true,
		Planned: 10,
		Counts:  types.Counts{Available: 1, Registered: 2, Errors: 1, Completed: 4},
		Current: []string{"abc.com"},
		Started: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := NewServer(fixedSource{st: sampleStatus()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got executor.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, got.Running)
	assert.Equal(t, int64(10), got.Planned)
	assert.Equal(t, 4, got.Counts.Completed)
	assert.Equal(t, []string{"abc.com"}, got.Current)
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(fixedSource{st: sampleStatus()})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "run-1", body["run_id"])
}

func TestStartAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(fixedSource{st: sampleStatus()})

	addr, err := srv.Start(ctx, "127.0.0.1:0", nil)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.Eventually(t, func() bool {
		_, err := http.Get("http://" + addr + "/healthz")
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestQuietKeepsRouteDumpOffStdout(t *testing.T) {
	defer func(w, ew io.Writer) {
		gin.DefaultWriter, gin.DefaultErrorWriter = w, ew
		gin.SetMode(gin.TestMode)
	}(gin.DefaultWriter, gin.DefaultErrorWriter)

	gin.SetMode(gin.DebugMode)
	var buf bytes.Buffer
	Quiet(&buf)
	assert.Equal(t, gin.ReleaseMode, gin.Mode())

	h := NewServer(fixedSource{st: sampleStatus()}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, buf.String(), "[GIN-debug]")
	assert.Same(t, &buf, gin.DefaultWriter.(*bytes.Buffer))
}
