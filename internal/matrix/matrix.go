// Package matrix loads and validates the symptom matrix: the external,
// versionable rule tables (symptom categories, risk modifiers, duration
// buckets) that drive the triage engine. The matrix is loaded once at
// engine construction and is immutable for the process lifetime; reloading
// means building a new engine around a fresh snapshot.
package matrix

import "github.com/eye-triage-server/internal/domain"

// SymptomRecord is one configured symptom category with its per-language
// keyword lists and clinical metadata.
type SymptomRecord struct {
	// Name is the category identifier, e.g. "sudden_vision_loss".
	Name string `yaml:"-"`

	// Keywords maps a language code to the phrases matched as substrings
	// of the lower-cased patient message.
	Keywords map[domain.Language][]string `yaml:"keywords"`

	// Severity is the base severity on the 0-10 scale.
	Severity float64 `yaml:"severity"`

	// Urgency, when set, overrides the severity-threshold tier derivation.
	// A category marked emergency here can never be downgraded.
	Urgency domain.UrgencyLevel `yaml:"urgency,omitempty"`

	// Protocol selects specialized first-aid instructions.
	Protocol domain.Protocol `yaml:"protocol,omitempty"`

	// Timeframe is an optional human-readable recommended timeframe,
	// appended to the recommendation list as an informational line.
	Timeframe string `yaml:"timeframe,omitempty"`
}

// KeywordsFor returns the keyword list authored for the given language.
func (s *SymptomRecord) KeywordsFor(lang domain.Language) []string {
	return s.Keywords[lang]
}

// Modifier is a multiplicative risk factor applied to base severity when
// the corresponding patient attribute is present.
type Modifier struct {
	Multiplier float64 `yaml:"multiplier"`
	Reason     string  `yaml:"reason"`
}

// DurationBucket scales severity by how long symptoms have persisted,
// matched against the patient's free-text duration description.
type DurationBucket struct {
	Name       string   `yaml:"-"`
	Keywords   []string `yaml:"keywords"`
	Multiplier float64  `yaml:"multiplier"`
}

// Matrix is the complete, immutable rule configuration. Symptoms and
// duration buckets preserve document order: the scorer's tie-break and the
// assessor's first-matching-bucket rule both depend on declaration order.
type Matrix struct {
	Symptoms        []SymptomRecord
	Modifiers       map[string]Modifier
	DurationBuckets []DurationBucket
}

// Symptom returns the record for a category name, or nil when unknown.
func (m *Matrix) Symptom(name string) *SymptomRecord {
	for i := range m.Symptoms {
		if m.Symptoms[i].Name == name {
			return &m.Symptoms[i]
		}
	}
	return nil
}

// Modifier returns the risk modifier for an identifier.
func (m *Matrix) Modifier(id string) (Modifier, bool) {
	mod, ok := m.Modifiers[id]
	return mod, ok
}
