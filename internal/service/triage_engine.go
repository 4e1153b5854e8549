package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eye-triage-server/internal/domain"
	"github.com/eye-triage-server/internal/matrix"
)

// TriageEngine coordinates the triage pipeline: severity scoring, risk
// adjustment, urgency calculation, safety-alert checks, recommendation
// generation and report assembly. The engine holds no mutable state beyond
// the immutable matrix snapshot, so a single instance serves concurrent
// callers without locking.
type TriageEngine struct {
	logger     *logrus.Logger
	matrix     *matrix.Matrix
	scorer     *SeverityScorer
	assessor   *RiskAssessor
	calculator *UrgencyCalculator

	// now is swapped in tests to pin appointment estimates.
	now func() time.Time
}

// NewTriageEngine builds an engine from a matrix file. A missing or
// malformed matrix is a fatal construction error; the engine never starts
// with an empty rule set.
func NewTriageEngine(logger *logrus.Logger, matrixPath string) (*TriageEngine, error) {
	m, err := matrix.Load(matrixPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load symptom matrix: %w", err)
	}
	return NewTriageEngineWithMatrix(logger, m), nil
}

// NewTriageEngineWithMatrix builds an engine around an already loaded
// matrix snapshot.
func NewTriageEngineWithMatrix(logger *logrus.Logger, m *matrix.Matrix) *TriageEngine {
	return &TriageEngine{
		logger:     logger,
		matrix:     m,
		scorer:     NewSeverityScorer(logger, m),
		assessor:   NewRiskAssessor(logger, m),
		calculator: NewUrgencyCalculator(),
		now:        time.Now,
	}
}

// Triage performs a complete assessment for one patient message and
// returns the assembled report. It never fails for well-formed calls:
// malformed optional patient fields are tolerated rule-by-rule, and a
// message matching no category yields an "unspecified" report with the
// descriptor-derived severity. The context is accepted for interface
// symmetry with the surrounding request handling; the computation itself
// has no blocking points.
func (e *TriageEngine) Triage(ctx context.Context, message string, patient *domain.PatientContext, lang domain.Language) *domain.TriageReport {
	if patient == nil {
		patient = &domain.PatientContext{}
	}

	baseSeverity, symptomName, record := e.scorer.Score(message, lang)
	adjustedSeverity, riskFactors := e.assessor.Assess(baseSeverity, patient)
	urgency, details := e.calculator.Calculate(adjustedSeverity, record, riskFactors)

	recommendations := generateRecommendations(urgency, record, lang)
	safetyAlerts := e.checkSafetyProtocols(symptomName, urgency, patient)

	protocol := domain.ProtocolGeneralAssessment
	if record != nil && record.Protocol != "" {
		protocol = record.Protocol
	}

	patientID := patient.ID
	if patientID == "" {
		patientID = "unknown"
	}

	report := &domain.TriageReport{
		ID:                       uuid.New().String(),
		Timestamp:                e.now(),
		PatientID:                patientID,
		SymptomIdentified:        symptomName,
		BaseSeverity:             baseSeverity,
		AdjustedSeverity:         round2(adjustedSeverity),
		RiskFactors:              riskFactors,
		UrgencyLevel:             urgency,
		UrgencyDetails:           details,
		Protocol:                 protocol,
		Recommendations:          recommendations,
		SafetyAlerts:             safetyAlerts,
		RequiresHumanReview:      urgency.RequiresHumanReview(),
		EstimatedAppointmentTime: e.estimateAppointmentTime(urgency, lang),
	}

	e.logger.WithFields(report.LogFields()).Info("Completed triage assessment")
	return report
}

// Matrix exposes the engine's immutable rule snapshot for health reporting.
func (e *TriageEngine) Matrix() *matrix.Matrix {
	return e.matrix
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// safetyCheck is one entry of the safety-alert checklist: dangerous
// combinations the multiplicative risk model under-weights get a
// categorical warning regardless of the numeric score.
type safetyCheck struct {
	applies func(symptom string, urgency domain.UrgencyLevel, p *domain.PatientContext) bool
	alert   string
}

var safetyChecklist = []safetyCheck{
	{
		applies: func(_ string, urgency domain.UrgencyLevel, p *domain.PatientContext) bool {
			return p.OnlyFunctionalEye && urgency.RequiresHumanReview()
		},
		alert: "⚠️ CRITICAL: Only functional eye - prioritize immediately",
	},
	{
		applies: func(symptom string, _ domain.UrgencyLevel, p *domain.PatientContext) bool {
			return symptom == "sudden_vision_loss" && p.AgeAtLeast(50)
		},
		alert: "⚠️ Possible stroke/retinal artery occlusion - emergency",
	},
	{
		applies: func(symptom string, _ domain.UrgencyLevel, p *domain.PatientContext) bool {
			return symptom == "flashes_floaters" && p.PreviousRetinalDetachment
		},
		alert: "⚠️ High risk retinal detachment - urgent assessment needed",
	},
	{
		applies: func(symptom string, _ domain.UrgencyLevel, p *domain.PatientContext) bool {
			return p.HasDiabetes && strings.Contains(symptom, "vision")
		},
		alert: "⚠️ Diabetic patient with vision change - check for retinopathy",
	},
	{
		applies: func(_ string, _ domain.UrgencyLevel, p *domain.PatientContext) bool {
			return p.AgeUnder(5)
		},
		alert: "⚠️ Pediatric case - ensure appropriate specialist",
	},
}

// checkSafetyProtocols evaluates every checklist entry independently;
// multiple alerts may co-occur. Age comparisons tolerate missing or
// non-numeric age by failing the comparison, never by raising.
func (e *TriageEngine) checkSafetyProtocols(symptom string, urgency domain.UrgencyLevel, patient *domain.PatientContext) []string {
	alerts := []string{}
	for _, check := range safetyChecklist {
		if check.applies(symptom, urgency, patient) {
			alerts = append(alerts, check.alert)
		}
	}
	return alerts
}

// Appointment offsets per tier. Presentational only; actual booking is the
// scheduling collaborator's job.
const (
	urgentAppointmentOffset  = 12 * time.Hour
	soonAppointmentOffset    = 5 * 24 * time.Hour
	routineAppointmentOffset = 21 * 24 * time.Hour
)

func (e *TriageEngine) estimateAppointmentTime(urgency domain.UrgencyLevel, lang domain.Language) string {
	now := e.now()

	if lang == domain.LanguageAZ {
		switch urgency {
		case domain.UrgencyEmergency:
			return "İndi (dərhal)"
		case domain.UrgencyUrgent:
			return now.Add(urgentAppointmentOffset).Format("02.01.2006, 15:00") + "-a qədər"
		case domain.UrgencySoon:
			return now.Add(soonAppointmentOffset).Format("02.01.2006") + "-a qədər"
		case domain.UrgencyRoutine:
			return now.Add(routineAppointmentOffset).Format("02.01.2006") + "-a qədər"
		default:
			return "Çevik"
		}
	}

	switch urgency {
	case domain.UrgencyEmergency:
		return "ASAP"
	case domain.UrgencyUrgent:
		return "by " + now.Add(urgentAppointmentOffset).Format("02.01.2006, 15:00")
	case domain.UrgencySoon:
		return "by " + now.Add(soonAppointmentOffset).Format("02.01.2006")
	case domain.UrgencyRoutine:
		return "by " + now.Add(routineAppointmentOffset).Format("02.01.2006")
	default:
		return "Flexible"
	}
}
