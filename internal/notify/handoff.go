// Package notify escalates triage reports that require human review to
// clinic staff via a webhook. The outbound call runs behind a circuit
// breaker so a misbehaving endpoint degrades to logged drops instead of
// stalling the serving path.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/eye-triage-server/internal/domain"
)

// HandoffNotifier posts reports flagged for human review to the clinic's
// escalation webhook.
type HandoffNotifier struct {
	logger  *logrus.Logger
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	url     string
}

// NewHandoffNotifier creates a notifier for the given webhook URL.
func NewHandoffNotifier(logger *logrus.Logger, webhookURL string, timeout time.Duration) *HandoffNotifier {
	n := &HandoffNotifier{
		logger: logger,
		client: &http.Client{Timeout: timeout},
		url:    webhookURL,
	}

	n.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "HandoffWebhook",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Handoff circuit breaker state change")
		},
	})

	return n
}

// handoffPayload is the webhook body. Carries the summary fields the
// on-call staff need to react, plus the full report for context.
type handoffPayload struct {
	ReportID     string               `json:"report_id"`
	PatientID    string               `json:"patient_id"`
	Symptom      string               `json:"symptom"`
	UrgencyLevel domain.UrgencyLevel  `json:"urgency_level"`
	SafetyAlerts []string             `json:"safety_alerts"`
	Report       *domain.TriageReport `json:"report"`
}

// Notify posts a report to the escalation webhook. Callers treat a failure
// as a logging concern, never as a triage failure; the report has already
// been produced and returned to the patient-facing surface.
func (n *HandoffNotifier) Notify(ctx context.Context, report *domain.TriageReport) error {
	payload := handoffPayload{
		ReportID:     report.ID,
		PatientID:    report.PatientID,
		Symptom:      report.SymptomIdentified,
		UrgencyLevel: report.UrgencyLevel,
		SafetyAlerts: report.SafetyAlerts,
		Report:       report,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode handoff payload: %w", err)
	}

	_, err = n.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("handoff webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to deliver handoff for report %s: %w", report.ID, err)
	}

	n.logger.WithFields(logrus.Fields{
		"report_id":     report.ID,
		"urgency_level": string(report.UrgencyLevel),
	}).Info("Delivered human-review handoff")
	return nil
}
