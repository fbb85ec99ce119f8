package taxonomy

import (
	"fmt"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed specialties.yaml
var specialtiesYAML []byte

// ErrUnknownSpecialty is returned by SubspecialtiesOf for names that are not
// taxonomy keys.
var ErrUnknownSpecialty = fmt.Errorf("unknown specialty")

// Age groups recognized across extraction and classification.
const (
	AgeGroupAdult = "Adult"
	AgeGroupChild = "Child"
)

// Default specialties applied when the model's choice cannot be reconciled
// with the taxonomy. Both are exact taxonomy keys, so the default always
// resolves.
const (
	DefaultAdultSpecialty = "Internist"
	DefaultChildSpecialty = "Pediatrician"
)

// Taxonomy is the fixed mapping from medical specialty to its allowed
// subspecialties. It is loaded once at process start and never mutated;
// concurrent reads need no synchronization.
type Taxonomy struct {
	names []string
	subs  map[string][]string
}

type specialtiesFile struct {
	Specialties []struct {
		Name           string   `yaml:"name"`
		Subspecialties []string `yaml:"subspecialties"`
	} `yaml:"specialties"`
}

// Load decodes the embedded specialty data. Names are whitespace-trimmed at
// load so stray spaces in the data file can never defeat exact matching.
func Load() (*Taxonomy, error) {
	var file specialtiesFile
	if err := yaml.Unmarshal(specialtiesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse specialties yaml: %w", err)
	}
	t := &Taxonomy{subs: make(map[string][]string, len(file.Specialties))}
	for _, s := range file.Specialties {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("specialty with empty name in taxonomy data")
		}
		if _, dup := t.subs[name]; dup {
			return nil, fmt.Errorf("duplicate specialty %q in taxonomy data", name)
		}
		subs := make([]string, 0, len(s.Subspecialties))
		for _, sub := range s.Subspecialties {
			subs = append(subs, strings.TrimSpace(sub))
		}
		t.names = append(t.names, name)
		t.subs[name] = subs
	}
	return t, nil
}

// Specialties returns all specialty names in declaration order.
func (t *Taxonomy) Specialties() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// SubspecialtiesOf returns the allowed subspecialties for a specialty. The
// returned set may be empty: some specialties are valid terminal
// classifications with no subspecialty.
func (t *Taxonomy) SubspecialtiesOf(name string) ([]string, error) {
	subs, ok := t.subs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecialty, name)
	}
	out := make([]string, len(subs))
	copy(out, subs)
	return out, nil
}

// Has reports whether name is an exact taxonomy key.
func (t *Taxonomy) Has(name string) bool {
	_, ok := t.subs[name]
	return ok
}

// MatchSpecialty reconciles a model-produced specialty string with the
// taxonomy: exact match first, then a case-insensitive check for a taxonomy
// key appearing inside the candidate, first match in declaration order wins.
func (t *Taxonomy) MatchSpecialty(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if t.Has(raw) {
		return raw, true
	}
	lower := strings.ToLower(raw)
	for _, name := range t.names {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name, true
		}
	}
	return "", false
}

// MatchSubspecialty reconciles a model-produced subspecialty against the
// allowed set of the given specialty. The fuzzy pass accepts a substring
// match in either direction, so "Pediatric Cardio" resolves to "Pediatric
// Cardiology".
func (t *Taxonomy) MatchSubspecialty(specialty, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	subs, ok := t.subs[specialty]
	if !ok {
		return "", false
	}
	for _, sub := range subs {
		if sub == raw {
			return sub, true
		}
	}
	lower := strings.ToLower(raw)
	for _, sub := range subs {
		subLower := strings.ToLower(sub)
		if strings.Contains(subLower, lower) || strings.Contains(lower, subLower) {
			return sub, true
		}
	}
	return "", false
}

// DefaultSpecialty picks the deterministic fallback specialty for an age
// group: Pediatrician for children, Internist otherwise.
func DefaultSpecialty(ageGroup string) string {
	if strings.EqualFold(strings.TrimSpace(ageGroup), AgeGroupChild) {
		return DefaultChildSpecialty
	}
	return DefaultAdultSpecialty
}
