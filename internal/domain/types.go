// Package domain contains core business entities and types for rule-based
// ophthalmic symptom triage: urgency tiers, clinical protocols, patient
// context and the triage report produced for every assessment.
package domain

// UrgencyLevel represents the triage urgency tier assigned to a patient.
// Tiers are ordered from most to least urgent and drive the recommended
// response timeframe.
type UrgencyLevel string

const (
	UrgencyEmergency UrgencyLevel = "emergency"
	UrgencyUrgent    UrgencyLevel = "urgent"
	UrgencySoon      UrgencyLevel = "soon"
	UrgencyRoutine   UrgencyLevel = "routine"
	UrgencyElective  UrgencyLevel = "elective"
)

// IsValid validates that the tier is one of the five known urgency levels.
// Only valid tiers may appear in a triage report handed to clinical staff.
func (u UrgencyLevel) IsValid() bool {
	switch u {
	case UrgencyEmergency, UrgencyUrgent, UrgencySoon, UrgencyRoutine, UrgencyElective:
		return true
	default:
		return false
	}
}

// String returns the string representation of the urgency level.
func (u UrgencyLevel) String() string {
	return string(u)
}

// Priority returns the numeric rank of the tier, 1 being most urgent.
// Unknown tiers rank after every valid tier.
func (u UrgencyLevel) Priority() int {
	switch u {
	case UrgencyEmergency:
		return 1
	case UrgencyUrgent:
		return 2
	case UrgencySoon:
		return 3
	case UrgencyRoutine:
		return 4
	case UrgencyElective:
		return 5
	default:
		return 6
	}
}

// RequiresHumanReview determines if a case at this tier must be surfaced
// to clinic staff rather than handled by automated scheduling alone.
func (u UrgencyLevel) RequiresHumanReview() bool {
	return u == UrgencyEmergency || u == UrgencyUrgent
}

// LogFields returns structured logging fields for audit trails.
func (u UrgencyLevel) LogFields() map[string]any {
	return map[string]any{
		"urgency_level":   string(u),
		"priority":        u.Priority(),
		"requires_review": u.RequiresHumanReview(),
	}
}

// Protocol identifies a specialized first-aid protocol attached to a
// symptom category in the matrix. It selects protocol-specific instructions
// prepended to emergency recommendations.
type Protocol string

const (
	ProtocolGeneralAssessment Protocol = "general_assessment"
	ProtocolChemicalInjury    Protocol = "chemical_injury"
	ProtocolEyeTrauma         Protocol = "eye_trauma"
	ProtocolStroke            Protocol = "stroke_protocol"
	ProtocolRetinalDetachment Protocol = "retinal_detachment"
)

// IsValid validates the protocol tag.
func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolGeneralAssessment, ProtocolChemicalInjury, ProtocolEyeTrauma,
		ProtocolStroke, ProtocolRetinalDetachment:
		return true
	default:
		return false
	}
}

// Language is an ISO 639-1 language code for patient-facing text.
// The clinic serves Azerbaijani, Russian and English speakers.
type Language string

const (
	LanguageAZ Language = "az"
	LanguageRU Language = "ru"
	LanguageEN Language = "en"

	// FallbackLanguage is used when text for a requested language is not
	// authored. Emergency instructions must never be dropped because of a
	// localization gap.
	FallbackLanguage = LanguageEN
)

// IsSupported reports whether keyword lists and recommendation tables are
// authored for this language.
func (l Language) IsSupported() bool {
	switch l {
	case LanguageAZ, LanguageRU, LanguageEN:
		return true
	default:
		return false
	}
}

// Normalize maps unsupported codes to the fallback language.
func (l Language) Normalize() Language {
	if l.IsSupported() {
		return l
	}
	return FallbackLanguage
}

// SymptomUnspecified is the category reported when no configured symptom
// matches the patient's message and severity comes from descriptor analysis.
const SymptomUnspecified = "unspecified"
