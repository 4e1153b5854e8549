// Package service implements the triage pipeline: severity scoring, risk
// adjustment, urgency calculation and the decision engine that composes
// them. Every stage is a pure function over its inputs plus the immutable
// symptom matrix, so the whole pipeline is safe for concurrent callers.
package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eye-triage-server/internal/domain"
	"github.com/eye-triage-server/internal/matrix"
)

// SeverityScorer maps a free-text symptom description to a base severity
// and an identified symptom category using the configured keyword matrix.
type SeverityScorer struct {
	logger *logrus.Logger
	matrix *matrix.Matrix
}

// NewSeverityScorer creates a scorer over the given matrix snapshot.
func NewSeverityScorer(logger *logrus.Logger, m *matrix.Matrix) *SeverityScorer {
	return &SeverityScorer{logger: logger, matrix: m}
}

// Fallback severities when no symptom category matches and severity is
// derived from pain descriptors alone.
const (
	severitySevereDescriptor   = 8.0
	severityModerateDescriptor = 6.0
	severityMildDescriptor     = 3.0
	severityDefault            = 5.0
)

// Score calculates the base severity for a patient message. It returns the
// best-matching category with its matrix record, or SymptomUnspecified with
// a nil record when nothing matches and descriptor analysis is used.
//
// The category with the strictly greatest keyword-match count wins; on a
// tie the first-declared category in the matrix is kept. Score never fails:
// an empty message simply takes the descriptor fallback path.
func (s *SeverityScorer) Score(message string, lang domain.Language) (float64, string, *matrix.SymptomRecord) {
	message = strings.ToLower(message)

	var (
		best      *matrix.SymptomRecord
		bestName  string
		bestCount int
	)

	for i := range s.matrix.Symptoms {
		rec := &s.matrix.Symptoms[i]
		count := countKeywordMatches(message, rec.KeywordsFor(lang))
		if count > bestCount {
			bestCount = count
			best = rec
			bestName = rec.Name
		}
	}

	if best != nil {
		s.logger.WithFields(logrus.Fields{
			"symptom":  bestName,
			"matches":  bestCount,
			"severity": best.Severity,
			"language": string(lang),
		}).Debug("Matched symptom category")
		return best.Severity, bestName, best
	}

	severity := s.analyzePainDescriptors(message, lang)
	s.logger.WithFields(logrus.Fields{
		"severity": severity,
		"language": string(lang),
	}).Debug("No category matched, scored from pain descriptors")
	return severity, domain.SymptomUnspecified, nil
}

func countKeywordMatches(message string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(message, strings.ToLower(kw)) {
			count++
		}
	}
	return count
}

// painDescriptors holds the per-language severe/moderate/mild word lists
// checked, in that priority order, when no category matches.
type painDescriptors struct {
	severe   []string
	moderate []string
	mild     []string
}

var descriptorTables = map[domain.Language]painDescriptors{
	domain.LanguageAZ: {
		severe:   []string{"dözülməz", "çox pis", "ölürəm", "dəhşətli", "ciddi", "güclü"},
		moderate: []string{"ağrı", "yanır", "narahat", "pis", "incidir"},
		mild:     []string{"yüngül", "az", "xeyli", "arada"},
	},
	domain.LanguageRU: {
		severe:   []string{"невыносимо", "очень сильно", "ужасно", "кошмар", "сильная"},
		moderate: []string{"боль", "болит", "жжет", "беспокоит"},
		mild:     []string{"легкая", "немного", "слегка"},
	},
	domain.LanguageEN: {
		severe:   []string{"unbearable", "excruciating", "terrible", "worst", "severe"},
		moderate: []string{"painful", "hurts", "burning", "bothering"},
		mild:     []string{"mild", "slight", "little"},
	},
}

func (s *SeverityScorer) analyzePainDescriptors(message string, lang domain.Language) float64 {
	table := descriptorTables[lang.Normalize()]

	switch {
	case containsAny(message, table.severe):
		return severitySevereDescriptor
	case containsAny(message, table.moderate):
		return severityModerateDescriptor
	case containsAny(message, table.mild):
		return severityMildDescriptor
	default:
		return severityDefault
	}
}

func containsAny(message string, words []string) bool {
	for _, w := range words {
		if strings.Contains(message, w) {
			return true
		}
	}
	return false
}
