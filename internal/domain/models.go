package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// LooseAge is a patient age as delivered by the upstream dialogue
// slot-filling system, which may send it as a number, a numeric string,
// or arbitrary text. Parse failure means age-based rules simply do not
// apply; it is never an error.
type LooseAge string

// UnmarshalJSON accepts both JSON numbers and JSON strings.
func (a *LooseAge) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = LooseAge(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = LooseAge(n.String())
	return nil
}

// MarshalJSON emits the raw value as a string, matching slot storage.
func (a LooseAge) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// Years returns the age in whole years and whether it could be parsed.
// "65", " 65 " and "65.0" all parse; "altmış beş" does not.
func (a LooseAge) Years() (int, bool) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// PatientContext carries the demographics and history the dialogue
// framework has collected for the current patient. Every field is
// optional; an absent field means the corresponding triage rule is
// skipped, never that the assessment fails.
type PatientContext struct {
	ID                        string   `json:"id,omitempty"`
	Age                       LooseAge `json:"age,omitempty"`
	HasDiabetes               bool     `json:"has_diabetes,omitempty"`
	PreviousRetinalDetachment bool     `json:"previous_retinal_detachment,omitempty"`
	OnlyFunctionalEye         bool     `json:"only_functional_eye,omitempty"`
	BilateralSymptoms         bool     `json:"bilateral_symptoms,omitempty"`
	IsPregnant                bool     `json:"is_pregnant,omitempty"`
	Immunocompromised         bool     `json:"immunocompromised,omitempty"`

	// SymptomDuration is the patient's free-text description of how long
	// the complaint has existed, matched against duration buckets.
	SymptomDuration string `json:"symptom_duration,omitempty"`
}

// AgeAtLeast reports whether the patient is known to be older than the
// given age. Missing or unparseable age fails the comparison.
func (p *PatientContext) AgeAtLeast(years int) bool {
	age, ok := p.Age.Years()
	return ok && age > years
}

// AgeUnder reports whether the patient is known to be younger than the
// given age. Missing or unparseable age fails the comparison.
func (p *PatientContext) AgeUnder(years int) bool {
	age, ok := p.Age.Years()
	return ok && age < years
}

// UrgencyDetails carries the static metadata of the assigned tier plus the
// numeric inputs that produced it, for downstream display and audit.
type UrgencyDetails struct {
	Priority        int          `json:"priority"`
	Timeframe       string       `json:"timeframe"`
	Color           string       `json:"color"`
	Action          string       `json:"action"`
	SeverityScore   float64      `json:"severity_score"`
	RiskFactorCount int          `json:"risk_factors_count"`
	Level           UrgencyLevel `json:"level"`
}

// TriageReport is the complete outcome of one triage assessment. A report
// is assembled once per Triage call and never mutated afterwards;
// persistence, rendering and escalation are collaborator concerns.
type TriageReport struct {
	ID                string  `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	PatientID         string  `json:"patient_id"`
	SymptomIdentified string  `json:"symptom_identified"`

	BaseSeverity     float64  `json:"base_severity"`
	AdjustedSeverity float64  `json:"adjusted_severity"`
	RiskFactors      []string `json:"risk_factors"`

	UrgencyLevel   UrgencyLevel   `json:"urgency_level"`
	UrgencyDetails UrgencyDetails `json:"urgency_details"`
	Protocol       Protocol       `json:"protocol"`

	Recommendations []string `json:"recommendations"`
	SafetyAlerts    []string `json:"safety_alerts"`

	RequiresHumanReview      bool   `json:"requires_human_review"`
	EstimatedAppointmentTime string `json:"estimated_appointment_time"`
}

// LogFields returns structured logging fields for the triage audit trail.
func (r *TriageReport) LogFields() map[string]any {
	return map[string]any{
		"report_id":         r.ID,
		"patient_id":        r.PatientID,
		"symptom":           r.SymptomIdentified,
		"base_severity":     r.BaseSeverity,
		"adjusted_severity": r.AdjustedSeverity,
		"urgency_level":     string(r.UrgencyLevel),
		"risk_factor_count": len(r.RiskFactors),
		"safety_alerts":     len(r.SafetyAlerts),
		"requires_review":   r.RequiresHumanReview,
	}
}
