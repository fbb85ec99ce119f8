package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"triage-assistant/internal/taxonomy"
	"triage-assistant/pkg"
)

// ErrMalformedResponse indicates the model's reply did not contain a
// parseable JSON object. It is surfaced to the caller, never silently
// retried.
var ErrMalformedResponse = errors.New("model response did not contain a valid JSON object")

// SubspecialtyPolicy controls what happens to a subspecialty that survives
// neither exact nor fuzzy matching against the taxonomy.
type SubspecialtyPolicy string

const (
	// PolicyStrict nulls out an unmatched subspecialty.
	PolicyStrict SubspecialtyPolicy = "strict"
	// PolicyPermissive keeps the model's own wording, trusting the model
	// over the taxonomy.
	PolicyPermissive SubspecialtyPolicy = "permissive"
)

// Valid reports whether p is a recognized policy value.
func (p SubspecialtyPolicy) Valid() bool {
	return p == PolicyStrict || p == PolicyPermissive
}

// extractionPayload mirrors the JSON shape the extraction prompt requests.
// Pointer fields keep "absent" distinct from "present but null".
type extractionPayload struct {
	AgeGroup     *string  `json:"ageGroup"`
	Symptoms     *string  `json:"symptoms"`
	Urgency      *string  `json:"urgency"`
	Specialty    *string  `json:"specialty"`
	Subspecialty *string  `json:"subspecialty"`
	CanClassify  bool     `json:"canClassify"`
	Reasoning    string   `json:"reasoning"`
	Confidence   *float64 `json:"confidence"`
}

// classificationPayload mirrors the JSON shape the classification prompt
// requests.
type classificationPayload struct {
	Specialty         *string  `json:"specialty"`
	Subspecialty      *string  `json:"subspecialty"`
	Reasoning         string   `json:"reasoning"`
	Confidence        *float64 `json:"confidence"`
	UrgencyAssessment string   `json:"urgency_assessment"`
}

// extractJSONObject locates a JSON object inside raw model text, tolerating
// surrounding prose and markdown fences. It scans from the first '{' to its
// matching '}', skipping braces inside string literals.
func extractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no opening brace in %q", ErrMalformedResponse, truncate(raw, 120))
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced braces in %q", ErrMalformedResponse, truncate(raw, 120))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// parseExtraction decodes the combined extraction+classification reply and
// repairs its specialty fields against the taxonomy.
func parseExtraction(raw string, tax *taxonomy.Taxonomy, policy SubspecialtyPolicy) (pkg.ExtractedData, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return pkg.ExtractedData{}, err
	}
	var payload extractionPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return pkg.ExtractedData{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	data := pkg.ExtractedData{
		AgeGroup:    normalizeAgeGroup(payload.AgeGroup),
		Symptoms:    payload.Symptoms,
		Urgency:     payload.Urgency,
		CanClassify: payload.CanClassify,
		Reasoning:   payload.Reasoning,
	}
	if payload.Confidence != nil {
		data.Confidence = *payload.Confidence
	}

	// The extraction shape only carries a specialty when the model thinks it
	// has one; an absent specialty stays absent rather than defaulted, so a
	// gathering-state turn is not misreported as classified.
	if payload.Specialty != nil {
		ageGroup := ""
		if data.AgeGroup != nil {
			ageGroup = *data.AgeGroup
		}
		specialty := resolveSpecialty(tax, *payload.Specialty, ageGroup)
		data.Specialty = &specialty
		data.Subspecialty = resolveSubspecialty(tax, specialty, payload.Subspecialty, policy)
	}
	return data, nil
}

// parseClassification decodes a direct classification reply, repairs it
// against the taxonomy, and stamps the provenance tag.
func parseClassification(raw string, tax *taxonomy.Taxonomy, ageGroup string, policy SubspecialtyPolicy) (*pkg.Classification, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	var payload classificationPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	rawSpecialty := ""
	if payload.Specialty != nil {
		rawSpecialty = *payload.Specialty
	}
	specialty := resolveSpecialty(tax, rawSpecialty, ageGroup)

	c := &pkg.Classification{
		Specialty:         specialty,
		Subspecialty:      resolveSubspecialty(tax, specialty, payload.Subspecialty, policy),
		Reasoning:         payload.Reasoning,
		UrgencyAssessment: payload.UrgencyAssessment,
		Source:            pkg.SourceModel,
	}
	if payload.Confidence != nil {
		c.Confidence = *payload.Confidence
	}
	return c, nil
}

// resolveSpecialty reconciles a model specialty with the taxonomy: exact,
// then fuzzy, then the deterministic age-based default. The default is an
// exact taxonomy key, so the result is always valid.
func resolveSpecialty(tax *taxonomy.Taxonomy, raw, ageGroup string) string {
	if name, ok := tax.MatchSpecialty(raw); ok {
		return name
	}
	return taxonomy.DefaultSpecialty(ageGroup)
}

// resolveSubspecialty reconciles a model subspecialty with the resolved
// specialty's allowed set. Unmatched values are nulled under the strict
// policy and kept verbatim under the permissive one. The model saying the
// literal string "null" counts as no subspecialty.
func resolveSubspecialty(tax *taxonomy.Taxonomy, specialty string, raw *string, policy SubspecialtyPolicy) *string {
	if raw == nil {
		return nil
	}
	text := strings.TrimSpace(*raw)
	if text == "" || strings.EqualFold(text, "null") {
		return nil
	}
	if sub, ok := tax.MatchSubspecialty(specialty, text); ok {
		return &sub
	}
	if policy == PolicyPermissive {
		return &text
	}
	return nil
}

// normalizeAgeGroup canonicalizes the model's age-group casing to the two
// accepted values; anything unrecognized is dropped.
func normalizeAgeGroup(raw *string) *string {
	if raw == nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(*raw)) {
	case "adult":
		v := taxonomy.AgeGroupAdult
		return &v
	case "child":
		v := taxonomy.AgeGroupChild
		return &v
	}
	return nil
}
