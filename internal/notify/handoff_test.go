package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eye-triage-server/internal/domain"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testReport() *domain.TriageReport {
	return &domain.TriageReport{
		ID:                  "report-1",
		Timestamp:           time.Now().UTC(),
		PatientID:           "patient-1",
		SymptomIdentified:   "sudden_vision_loss",
		BaseSeverity:        9.0,
		AdjustedSeverity:    10.0,
		UrgencyLevel:        domain.UrgencyEmergency,
		SafetyAlerts:        []string{"⚠️ Possible stroke/retinal artery occlusion - emergency"},
		RequiresHumanReview: true,
	}
}

func TestHandoffNotifier_DeliversPayload(t *testing.T) {
	var received handoffPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewHandoffNotifier(newTestLogger(), server.URL, 5*time.Second)

	err := notifier.Notify(context.Background(), testReport())

	require.NoError(t, err)
	assert.Equal(t, "report-1", received.ReportID)
	assert.Equal(t, "patient-1", received.PatientID)
	assert.Equal(t, "sudden_vision_loss", received.Symptom)
	assert.Equal(t, domain.UrgencyEmergency, received.UrgencyLevel)
	require.NotNil(t, received.Report)
	assert.Equal(t, 10.0, received.Report.AdjustedSeverity)
}

func TestHandoffNotifier_ErrorOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewHandoffNotifier(newTestLogger(), server.URL, 5*time.Second)

	err := notifier.Notify(context.Background(), testReport())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestHandoffNotifier_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewHandoffNotifier(newTestLogger(), server.URL, 5*time.Second)
	ctx := context.Background()
	report := testReport()

	for i := 0; i < 5; i++ {
		require.Error(t, notifier.Notify(ctx, report))
	}

	err := notifier.Notify(ctx, report)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestHandoffNotifier_UnreachableEndpoint(t *testing.T) {
	notifier := NewHandoffNotifier(newTestLogger(), "http://127.0.0.1:1", time.Second)

	err := notifier.Notify(context.Background(), testReport())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "report-1")
}
