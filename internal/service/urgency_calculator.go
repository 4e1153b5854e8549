package service

import (
	"github.com/eye-triage-server/internal/domain"
	"github.com/eye-triage-server/internal/matrix"
)

// UrgencyCalculator maps an adjusted severity plus risk-factor count onto
// one of the five urgency tiers.
type UrgencyCalculator struct{}

// NewUrgencyCalculator creates an urgency calculator. It is stateless; the
// tier metadata table is fixed at compile time.
func NewUrgencyCalculator() *UrgencyCalculator {
	return &UrgencyCalculator{}
}

// tierMetadata holds the static display attributes of each tier.
type tierMetadata struct {
	priority  int
	timeframe string
	color     string
	action    string
}

var urgencyTiers = map[domain.UrgencyLevel]tierMetadata{
	domain.UrgencyEmergency: {1, "Dərhal (1-2 saat)", "🔴", "immediate_escalation"},
	domain.UrgencyUrgent:    {2, "12-24 saat ərzində", "🟠", "same_day_booking"},
	domain.UrgencySoon:      {3, "3-7 gün ərzində", "🟡", "this_week_booking"},
	domain.UrgencyRoutine:   {4, "2-4 həftə ərzində", "🟢", "flexible_booking"},
	domain.UrgencyElective:  {5, "Çevikdir", "⚪", "informational"},
}

// Severity thresholds for deriving a tier when the matched category does
// not carry an explicit urgency override.
const (
	emergencyThreshold = 9.0
	urgentThreshold    = 7.0
	soonThreshold      = 5.0
	routineThreshold   = 3.0
)

// Escalation by risk-factor count, applied upward only.
const (
	escalateSoonToUrgentFactors  = 3
	escalateRoutineToSoonFactors = 2
)

// Calculate determines the urgency tier for an adjusted severity. A matrix
// urgency override on the matched category takes precedence over the
// threshold derivation; risk-factor escalation then bumps borderline tiers
// upward; finally a category explicitly marked emergency is forced to
// emergency so no other computation can ever downgrade it.
func (c *UrgencyCalculator) Calculate(severity float64, record *matrix.SymptomRecord, riskFactors []string) (domain.UrgencyLevel, domain.UrgencyDetails) {
	var urgency domain.UrgencyLevel

	switch {
	case record != nil && record.Urgency != "":
		urgency = record.Urgency
	case severity >= emergencyThreshold:
		urgency = domain.UrgencyEmergency
	case severity >= urgentThreshold:
		urgency = domain.UrgencyUrgent
	case severity >= soonThreshold:
		urgency = domain.UrgencySoon
	case severity >= routineThreshold:
		urgency = domain.UrgencyRoutine
	default:
		urgency = domain.UrgencyElective
	}

	// Risk-factor escalation, upward only.
	switch {
	case len(riskFactors) >= escalateSoonToUrgentFactors && urgency == domain.UrgencySoon:
		urgency = domain.UrgencyUrgent
	case len(riskFactors) >= escalateRoutineToSoonFactors && urgency == domain.UrgencyRoutine:
		urgency = domain.UrgencySoon
	}

	// Hard floor: a known-emergency category stays emergency.
	if record != nil && record.Urgency == domain.UrgencyEmergency {
		urgency = domain.UrgencyEmergency
	}

	meta, ok := urgencyTiers[urgency]
	if !ok {
		meta = urgencyTiers[domain.UrgencyRoutine]
		urgency = domain.UrgencyRoutine
	}

	return urgency, domain.UrgencyDetails{
		Priority:        meta.priority,
		Timeframe:       meta.timeframe,
		Color:           meta.color,
		Action:          meta.action,
		SeverityScore:   severity,
		RiskFactorCount: len(riskFactors),
		Level:           urgency,
	}
}
