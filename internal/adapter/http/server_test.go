package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/property-distress-service/internal/adapter/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestChecks_AllMustPass(t *testing.T) {
	checks := httpadapter.Checks{
		"pipeline": &mockReadiness{},
		"cache":    &mockReadiness{err: fmt.Errorf("connection refused")},
	}
	err := checks.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Equal(t, "cache: connection refused", err.Error())

	checks["cache"] = &mockReadiness{}
	assert.NoError(t, checks.CheckReadiness(context.Background()))
}

func TestReadyzReportsFailingCheck(t *testing.T) {
	srv := httpadapter.NewServer(":0", httpadapter.Checks{
		"pipeline": &mockReadiness{err: fmt.Errorf("no messages processed")},
		"cache":    &mockReadiness{},
	}, slog.Default())
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status string            `json:"status"`
		Error  string            `json:"error"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "pipeline: no messages processed", body.Error)
	assert.Equal(t, map[string]string{"cache": "ok", "pipeline": "no messages processed"}, body.Checks)
}

func TestChecks_Report(t *testing.T) {
	checks := httpadapter.Checks{
		"redis":              &mockReadiness{err: fmt.Errorf("dial tcp: refused")},
		"public_records_sql": &mockReadiness{},
	}
	assert.Equal(t, map[string]string{
		"redis":              "dial tcp: refused",
		"public_records_sql": "ok",
	}, checks.Report(context.Background()))
}
