package core

// prompts.go defines the three prompt renderers used by the triage service:
// chat continuation, combined extraction+classification, and direct
// classification. Keeping them in a separate file makes them easy to tweak
// without touching the orchestration logic. All three render the taxonomy
// through the same helper so token cost and model familiarity stay
// consistent across calls.

import (
	"fmt"
	"strings"

	"triage-assistant/internal/taxonomy"
	"triage-assistant/pkg"
)

// chatPersona is the fixed instruction preamble for the conversational turn.
// It steers the assistant toward rapid specialty identification rather than
// open-ended history taking.
const chatPersona = `You are a medical triage assistant helping referring doctors connect with volunteer specialists.

Your goals:
1. Gather key information: patient age group (Adult or Child), symptoms, urgency level
2. Identify the medical specialty and subspecialty as quickly as possible
3. Ask targeted follow-up questions, one at a time, to narrow down the right specialty
4. Once you can name a specific specialty and subspecialty, say so and stop asking questions
5. Be efficient - do not ask unnecessary questions once you have enough information

Only reference specialties and subspecialties from this list:`

// renderTaxonomy writes the full specialty list as a specialty line followed
// by indented subspecialty bullets. Every prompt embeds this identically.
func renderTaxonomy(tax *taxonomy.Taxonomy) string {
	var b strings.Builder
	for _, name := range tax.Specialties() {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString("\n")
		subs, _ := tax.SubspecialtiesOf(name)
		for _, sub := range subs {
			b.WriteString("  - ")
			b.WriteString(sub)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderTranscript writes conversation turns as "Doctor:"/"Assistant:" lines.
// A window of 0 keeps the full history; otherwise only the most recent
// window turns are included to bound prompt size.
func renderTranscript(history []pkg.Turn, window int) string {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	var b strings.Builder
	for _, turn := range history {
		if turn.Sender == pkg.SenderUser {
			b.WriteString("Doctor: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// buildChatPrompt renders the conversation-continuation prompt: persona,
// taxonomy, the windowed transcript, and the doctor's new message.
func buildChatPrompt(tax *taxonomy.Taxonomy, history []pkg.Turn, message string, window int) string {
	var b strings.Builder
	b.WriteString(chatPersona)
	b.WriteString("\n")
	b.WriteString(renderTaxonomy(tax))
	b.WriteString("\nConversation so far:\n")
	b.WriteString(renderTranscript(history, window))
	b.WriteString("Doctor: ")
	b.WriteString(message)
	b.WriteString("\nAssistant:")
	return b.String()
}

// buildExtractionPrompt renders the combined extraction+classification
// prompt. One call returns the structured fields and a possibly-null
// embedded classification, which is cheaper than issuing two model calls per
// turn. The configured confidence threshold is stated in the prompt so the
// model calibrates against the same bar the caller will apply.
func buildExtractionPrompt(tax *taxonomy.Taxonomy, history []pkg.Turn, threshold float64) string {
	var b strings.Builder
	b.WriteString("You are a medical data extraction AI. Analyze this conversation between a referring doctor and a triage assistant and extract structured information.\n\n")
	b.WriteString("Conversation:\n")
	b.WriteString(renderTranscript(history, 0))
	b.WriteString("\nAvailable specialties and subspecialties:\n")
	b.WriteString(renderTaxonomy(tax))
	fmt.Fprintf(&b, `
Extract the following if mentioned, and decide whether the case is ready to classify:
1. Patient age group: "Adult" or "Child"
2. Symptoms description
3. Urgency level (low/medium/high)
4. Medical specialty from the list above, if identifiable from the symptoms
5. Subspecialty from that specialty's list, if identifiable

Set "canClassify" to true ONLY if you can confidently identify the age group, a clear symptoms description, and an appropriate specialty (and a subspecialty, or determine that none is needed). The case will only be classified when your confidence is at least %.2f, so score honestly against that bar.

Calibration examples:
- "45-year-old with crushing chest pain radiating to the left arm for 30 minutes, diaphoresis, history of hypertension" - sufficient: age, clear cardiac picture, urgency all present; confidence should be high.
- "my patient has a headache" - insufficient: no age group, no duration, no severity, many specialties still plausible; confidence should be low and canClassify false.

Respond ONLY with a JSON object:
{
    "ageGroup": "Adult" or "Child" or null,
    "symptoms": "description" or null,
    "urgency": "low" or "medium" or "high" or null,
    "specialty": "specialty name" or null,
    "subspecialty": "subspecialty name" or null,
    "canClassify": true or false,
    "reasoning": "explanation of the classification decision",
    "confidence": 0.0-1.0
}`, threshold)
	return b.String()
}

// buildClassificationPrompt renders the direct classification prompt used by
// the classify action, where the structured fields are already known.
func buildClassificationPrompt(tax *taxonomy.Taxonomy, symptoms, ageGroup, urgency string) string {
	var b strings.Builder
	b.WriteString("You are a medical triage AI expert. Based on the case below, identify the most appropriate medical specialty and subspecialty.\n\n")
	fmt.Fprintf(&b, "Case:\n- Age group: %s\n- Symptoms: %s\n- Urgency: %s\n\n", ageGroup, symptoms, urgency)
	b.WriteString("Available specialties and subspecialties:\n")
	b.WriteString(renderTaxonomy(tax))
	b.WriteString(`
Instructions:
1. Identify the PRIMARY specialty that best matches this case
2. If applicable, pick a subspecialty from that specialty's list
3. For a Child, the primary specialty is Pediatrician with a pediatric-appropriate subspecialty
4. For urgent cases, also consider Emergency Medicine Physician
5. Give clear reasoning for your recommendation

Respond ONLY with a JSON object in this exact format:
{
    "specialty": "Primary Specialty Name",
    "subspecialty": "Subspecialty Name or null",
    "reasoning": "Brief explanation of why this specialty was chosen",
    "confidence": 0.85,
    "urgency_assessment": "low/medium/high"
}`)
	return b.String()
}
