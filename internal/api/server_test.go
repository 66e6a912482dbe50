package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gre0071/lora-logger/internal/capture"
	"github.com/gre0071/lora-logger/internal/concentrator"
	"github.com/gre0071/lora-logger/internal/pktlog"
	"github.com/gre0071/lora-logger/internal/telemetry"
)

type nopSink struct{}

func (nopSink) Publish(telemetry.Record) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logw := pktlog.New(t.TempDir(), "0000000000000001", 3600)
	require.NoError(t, logw.Open(time.Now()))
	t.Cleanup(logw.Close)

	loop := capture.New(concentrator.NewSim(), logw, nopSink{}, "0000000000000001")
	return NewServer(loop)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
}

func TestHandleStats(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var stats capture.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, "0000000000000001", stats.GatewayID)
	require.NotEmpty(t, stats.LogFile)
	require.Equal(t, uint64(0), stats.Received)
}
