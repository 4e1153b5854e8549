package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eye-triage-server/internal/domain"
	"github.com/eye-triage-server/internal/matrix"
)

// RiskAssessor applies patient-context multipliers to a base severity.
// Rules run in the fixed catalogue order below; each reads the untouched
// patient context, never another rule's output, so the adjustment is a
// deterministic product of independent factors.
type RiskAssessor struct {
	logger *logrus.Logger
	matrix *matrix.Matrix
}

// NewRiskAssessor creates an assessor over the given matrix snapshot.
func NewRiskAssessor(logger *logrus.Logger, m *matrix.Matrix) *RiskAssessor {
	return &RiskAssessor{logger: logger, matrix: m}
}

// maxSeverity caps the risk-adjusted score. Stacked modifiers saturate
// here; distinguishing among saturated cases is the job of the risk-factor
// count and the safety-alert checklist downstream.
const maxSeverity = 10.0

// riskRule is one entry of the risk catalogue: when applies returns true
// the named matrix modifier is multiplied in and a labelled reason is
// appended to the audit list.
type riskRule struct {
	modifierID string
	label      string
	applies    func(p *domain.PatientContext) bool
}

// Catalogue order is fixed for determinism; the labels match the clinic's
// audit display conventions.
var riskCatalogue = []riskRule{
	{"age_over_60", "Yaş 60+", func(p *domain.PatientContext) bool { return p.AgeAtLeast(60) }},
	{"age_under_5", "Uşaq <5 yaş", func(p *domain.PatientContext) bool { return p.AgeUnder(5) }},
	{"diabetes", "Şəkərli diabet", func(p *domain.PatientContext) bool { return p.HasDiabetes }},
	{"previous_retinal_detachment", "Retina ayrılması tarixçəsi", func(p *domain.PatientContext) bool { return p.PreviousRetinalDetachment }},
	{"only_functional_eye", "Tək işləyən göz", func(p *domain.PatientContext) bool { return p.OnlyFunctionalEye }},
	{"bilateral_symptoms", "Hər iki göz", func(p *domain.PatientContext) bool { return p.BilateralSymptoms }},
	{"pregnancy", "Hamiləlik", func(p *domain.PatientContext) bool { return p.IsPregnant }},
	{"immunocompromised", "İmmunitet zəifliyi", func(p *domain.PatientContext) bool { return p.Immunocompromised }},
}

// Assess returns the risk-adjusted severity, capped at 10.0, and the
// ordered list of applied risk-factor explanations. The list order is rule
// evaluation order and is meant for audit display and counting only.
//
// Missing or unparseable patient fields never fail the assessment; the
// corresponding rule is simply skipped.
func (a *RiskAssessor) Assess(baseSeverity float64, patient *domain.PatientContext) (float64, []string) {
	adjusted := baseSeverity
	riskFactors := []string{}

	for _, rule := range riskCatalogue {
		if !rule.applies(patient) {
			continue
		}
		mod, ok := a.matrix.Modifier(rule.modifierID)
		if !ok {
			// Not authored in this matrix revision; rule does not apply.
			continue
		}
		adjusted *= mod.Multiplier
		riskFactors = append(riskFactors, fmt.Sprintf("%s (%s)", rule.label, mod.Reason))
	}

	if bucket := a.matchDurationBucket(patient.SymptomDuration); bucket != nil {
		adjusted *= bucket.Multiplier
		riskFactors = append(riskFactors, fmt.Sprintf("Müddət faktoru: %s", bucket.Name))
	}

	if adjusted > maxSeverity {
		adjusted = maxSeverity
	}

	a.logger.WithFields(logrus.Fields{
		"base_severity":     baseSeverity,
		"adjusted_severity": adjusted,
		"risk_factor_count": len(riskFactors),
	}).Debug("Completed risk assessment")

	return adjusted, riskFactors
}

// matchDurationBucket returns the first matrix-declared bucket whose
// keyword occurs in the free-text duration description.
func (a *RiskAssessor) matchDurationBucket(duration string) *matrix.DurationBucket {
	duration = strings.ToLower(strings.TrimSpace(duration))
	if duration == "" {
		return nil
	}
	for i := range a.matrix.DurationBuckets {
		b := &a.matrix.DurationBuckets[i]
		for _, kw := range b.Keywords {
			if strings.Contains(duration, strings.ToLower(kw)) {
				return b
			}
		}
	}
	return nil
}
