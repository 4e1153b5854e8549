package matrix

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eye-triage-server/internal/domain"
)

// document mirrors the top-level YAML structure. Symptoms and duration
// scaling are kept as raw nodes so mapping order survives decoding.
type document struct {
	Symptoms        yaml.Node           `yaml:"symptoms"`
	Modifiers       map[string]Modifier `yaml:"modifiers"`
	DurationScaling yaml.Node           `yaml:"duration_scaling"`
}

// Load reads, parses and validates the symptom matrix at path. Any failure
// is fatal to engine construction: a triage engine must not be instantiable
// without a valid matrix.
func Load(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMatrixNotFound, path)
		}
		return nil, fmt.Errorf("reading symptom matrix %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Matrix from raw YAML. Exposed separately so tests can
// construct matrices from fixtures without touching the filesystem.
func Parse(data []byte) (*Matrix, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMatrixUnparseable, err)
	}

	m := &Matrix{Modifiers: doc.Modifiers}

	symptoms, err := decodeOrderedSymptoms(&doc.Symptoms)
	if err != nil {
		return nil, err
	}
	m.Symptoms = symptoms

	buckets, err := decodeOrderedBuckets(&doc.DurationScaling)
	if err != nil {
		return nil, err
	}
	m.DurationBuckets = buckets

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeOrderedSymptoms(node *yaml.Node) ([]SymptomRecord, error) {
	if node.Kind == 0 || node.Kind == yaml.ScalarNode && node.Value == "" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: symptoms must be a mapping", domain.ErrMatrixUnparseable)
	}

	records := make([]SymptomRecord, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var rec SymptomRecord
		if err := node.Content[i+1].Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: symptom %q: %v",
				domain.ErrMatrixUnparseable, node.Content[i].Value, err)
		}
		rec.Name = node.Content[i].Value
		records = append(records, rec)
	}
	return records, nil
}

func decodeOrderedBuckets(node *yaml.Node) ([]DurationBucket, error) {
	if node.Kind == 0 || node.Kind == yaml.ScalarNode && node.Value == "" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: duration_scaling must be a mapping", domain.ErrMatrixUnparseable)
	}

	buckets := make([]DurationBucket, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var b DurationBucket
		if err := node.Content[i+1].Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: duration bucket %q: %v",
				domain.ErrMatrixUnparseable, node.Content[i].Value, err)
		}
		b.Name = node.Content[i].Value
		buckets = append(buckets, b)
	}
	return buckets, nil
}

// validate enforces the authoring invariants the engine relies on.
func (m *Matrix) validate() error {
	if len(m.Symptoms) == 0 {
		return fmt.Errorf("%w: no symptom categories configured", domain.ErrMatrixInvalid)
	}

	for _, s := range m.Symptoms {
		if s.Severity < 0 || s.Severity > 10 {
			return fmt.Errorf("%w: symptom %q severity %.1f outside [0,10]",
				domain.ErrMatrixInvalid, s.Name, s.Severity)
		}
		if s.Urgency != "" && !s.Urgency.IsValid() {
			return fmt.Errorf("%w: symptom %q has unknown urgency %q",
				domain.ErrMatrixInvalid, s.Name, s.Urgency)
		}
		if s.Protocol != "" && !s.Protocol.IsValid() {
			return fmt.Errorf("%w: symptom %q has unknown protocol %q",
				domain.ErrMatrixInvalid, s.Name, s.Protocol)
		}
		if len(s.Keywords) == 0 {
			return fmt.Errorf("%w: symptom %q has no keywords",
				domain.ErrMatrixInvalid, s.Name)
		}
	}

	for id, mod := range m.Modifiers {
		if mod.Multiplier <= 0 {
			return fmt.Errorf("%w: modifier %q multiplier %.2f must be positive",
				domain.ErrMatrixInvalid, id, mod.Multiplier)
		}
	}

	for _, b := range m.DurationBuckets {
		if b.Multiplier <= 0 {
			return fmt.Errorf("%w: duration bucket %q multiplier %.2f must be positive",
				domain.ErrMatrixInvalid, b.Name, b.Multiplier)
		}
		if len(b.Keywords) == 0 {
			return fmt.Errorf("%w: duration bucket %q has no keywords",
				domain.ErrMatrixInvalid, b.Name)
		}
	}

	return nil
}
