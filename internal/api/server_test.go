package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eye-triage-server/internal/config"
	"github.com/eye-triage-server/internal/domain"
	"github.com/eye-triage-server/internal/service"
	"github.com/eye-triage-server/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			RateLimitPerSec: 1000,
			RateLimitBurst:  1000,
		},
		Cache: config.CacheConfig{
			Enabled:    true,
			MaxEntries: 64,
			TTL:        time.Minute,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func newTestServer(t *testing.T, withStore bool) (*Server, storage.Store) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	engine, err := service.NewTriageEngine(logger, filepath.Join("..", "..", "configs", "symptom_matrix.yaml"))
	require.NoError(t, err)

	var store storage.Store
	if withStore {
		sqlStore, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "reports.db"))
		require.NoError(t, err)
		t.Cleanup(func() { sqlStore.Close() })
		store = sqlStore
	}

	return NewServer(testConfig(), logger, engine, store, nil), store
}

func postTriage(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/triage", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestTriageEndpoint_EmergencyAssessment(t *testing.T) {
	server, _ := newTestServer(t, false)

	rec := postTriage(t, server, `{
		"message": "gözümə kimyəvi maddə dəydi, çox yanır",
		"patient": {"id": "patient-7", "age": "35"},
		"language": "az"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.TriageReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, domain.UrgencyEmergency, report.UrgencyLevel)
	assert.Equal(t, "chemical_burn", report.SymptomIdentified)
	assert.Equal(t, "patient-7", report.PatientID)
	assert.NotEmpty(t, report.Recommendations)
	assert.True(t, report.RequiresHumanReview)
}

func TestTriageEndpoint_AcceptsNumericAge(t *testing.T) {
	server, _ := newTestServer(t, false)

	// The dialogue framework sends age as a number or a string depending on
	// which slot filler produced it; both must be accepted.
	rec := postTriage(t, server, `{
		"message": "dumanlı görürəm",
		"patient": {"age": 70},
		"language": "az"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.TriageReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.RiskFactors, 1)
	assert.Contains(t, report.RiskFactors[0], "Yaş 60+")
}

func TestTriageEndpoint_CacheHitOnRepeat(t *testing.T) {
	server, _ := newTestServer(t, false)
	body := `{"message": "gözlərim quru", "patient": {"age": "40"}, "language": "az"}`

	first := postTriage(t, server, body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("X-Cache"))

	second := postTriage(t, server, body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	var a, b domain.TriageReport
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.ID, b.ID)
}

func TestTriageEndpoint_BadRequestBody(t *testing.T) {
	server, _ := newTestServer(t, false)

	rec := postTriage(t, server, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestTriageEndpoint_PersistsReport(t *testing.T) {
	server, store := newTestServer(t, true)

	rec := postTriage(t, server, `{
		"message": "gözüm qaşınır",
		"patient": {"age": "30"},
		"language": "az"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.TriageReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+report.ID, nil)
	getRec := httptest.NewRecorder()
	server.Router().ServeHTTP(getRec, req)

	require.Equal(t, http.StatusOK, getRec.Code)
	var stored domain.TriageReport
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &stored))
	assert.Equal(t, report.ID, stored.ID)
	assert.Equal(t, "itchy_eyes", stored.SymptomIdentified)

	count, err := store.Count(req.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetReport_NotFound(t *testing.T) {
	server, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/missing-id", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReport_StorageDisabled(t *testing.T) {
	server, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/any-id", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestListReports_ReviewFilter(t *testing.T) {
	server, _ := newTestServer(t, true)

	require.Equal(t, http.StatusOK, postTriage(t, server,
		`{"message": "gözlərim quru", "patient": {}, "language": "az"}`).Code)
	require.Equal(t, http.StatusOK, postTriage(t, server,
		`{"message": "gözümə kimyəvi turşu dəydi", "patient": {}, "language": "az"}`).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?review=true", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count   int                    `json:"count"`
		Reports []*domain.TriageReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "chemical_burn", body.Reports[0].SymptomIdentified)
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status          string `json:"status"`
		SymptomsLoaded  int    `json:"symptoms_loaded"`
		ModifiersLoaded int    `json:"modifiers_loaded"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 9, body.SymptomsLoaded)
	assert.Equal(t, 8, body.ModifiersLoaded)
}

func TestCorrelationIDHeaderSet(t *testing.T) {
	server, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
