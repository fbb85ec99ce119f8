package core

import (
	"strings"
	"testing"

	"triage-assistant/pkg"
)

func TestRenderTaxonomyShape(t *testing.T) {
	tax := mustTaxonomy(t)
	rendered := renderTaxonomy(tax)

	if !strings.Contains(rendered, "- Pediatrician\n") {
		t.Fatal("expected specialty line for Pediatrician")
	}
	if !strings.Contains(rendered, "  - Pediatric Cardiology\n") {
		t.Fatal("expected indented subspecialty bullet for Pediatric Cardiology")
	}
	// Terminal specialties render as a bare line with no bullets under it.
	idx := strings.Index(rendered, "- Nuclear Medicine Specialist\n")
	if idx < 0 {
		t.Fatal("expected line for Nuclear Medicine Specialist")
	}
	rest := rendered[idx+len("- Nuclear Medicine Specialist\n"):]
	if strings.HasPrefix(rest, "  - ") {
		t.Fatal("Nuclear Medicine Specialist should have no subspecialty bullets")
	}
}

func TestAllPromptsRenderTaxonomyIdentically(t *testing.T) {
	tax := mustTaxonomy(t)
	rendered := renderTaxonomy(tax)

	chat := buildChatPrompt(tax, nil, "hello", 0)
	extraction := buildExtractionPrompt(tax, nil, 0.9)
	classification := buildClassificationPrompt(tax, "chest pain", "Adult", "high")

	for name, prompt := range map[string]string{
		"chat":           chat,
		"extraction":     extraction,
		"classification": classification,
	} {
		if !strings.Contains(prompt, rendered) {
			t.Fatalf("%s prompt does not embed the shared taxonomy rendering", name)
		}
	}
}

func TestBuildChatPromptWindow(t *testing.T) {
	tax := mustTaxonomy(t)
	history := []pkg.Turn{
		{Sender: pkg.SenderUser, Text: "turn-one"},
		{Sender: pkg.SenderAssistant, Text: "turn-two"},
		{Sender: pkg.SenderUser, Text: "turn-three"},
	}

	windowed := buildChatPrompt(tax, history, "latest", 2)
	if strings.Contains(windowed, "turn-one") {
		t.Fatal("windowed prompt should drop turns beyond the window")
	}
	if !strings.Contains(windowed, "turn-two") || !strings.Contains(windowed, "turn-three") {
		t.Fatal("windowed prompt should keep the most recent turns")
	}

	full := buildChatPrompt(tax, history, "latest", 0)
	for _, text := range []string{"turn-one", "turn-two", "turn-three"} {
		if !strings.Contains(full, text) {
			t.Fatalf("full-history prompt missing %q", text)
		}
	}

	if !strings.HasSuffix(windowed, "Doctor: latest\nAssistant:") {
		t.Fatalf("prompt should end with the new message and assistant cue, got tail %q", windowed[len(windowed)-40:])
	}
}

func TestBuildChatPromptRoles(t *testing.T) {
	tax := mustTaxonomy(t)
	history := []pkg.Turn{
		{Sender: pkg.SenderUser, Text: "my patient has a rash"},
		{Sender: pkg.SenderAssistant, Text: "how long has it been present?"},
	}
	prompt := buildChatPrompt(tax, history, "two weeks", 0)
	if !strings.Contains(prompt, "Doctor: my patient has a rash\n") {
		t.Fatal("user turns should render as Doctor lines")
	}
	if !strings.Contains(prompt, "Assistant: how long has it been present?\n") {
		t.Fatal("assistant turns should render as Assistant lines")
	}
}

func TestBuildExtractionPromptStatesThreshold(t *testing.T) {
	tax := mustTaxonomy(t)
	prompt := buildExtractionPrompt(tax, nil, 0.85)
	if !strings.Contains(prompt, "0.85") {
		t.Fatal("extraction prompt should state the configured threshold")
	}
	if !strings.Contains(prompt, `"canClassify"`) {
		t.Fatal("extraction prompt should request the canClassify field")
	}
	// Calibration examples for both ends of the confidence scale.
	if !strings.Contains(prompt, "sufficient") || !strings.Contains(prompt, "insufficient") {
		t.Fatal("extraction prompt should include sufficient and insufficient worked examples")
	}
}

func TestBuildClassificationPrompt(t *testing.T) {
	tax := mustTaxonomy(t)
	prompt := buildClassificationPrompt(tax, "persistent cough", "Child", "medium")
	if !strings.Contains(prompt, "Symptoms: persistent cough") {
		t.Fatal("classification prompt should carry the symptoms")
	}
	if !strings.Contains(prompt, "Age group: Child") {
		t.Fatal("classification prompt should carry the age group")
	}
	if !strings.Contains(prompt, "Pediatrician with a pediatric-appropriate subspecialty") {
		t.Fatal("classification prompt should state the child rule")
	}
	if !strings.Contains(prompt, `"urgency_assessment"`) {
		t.Fatal("classification prompt should request the classification JSON shape")
	}
}
