package core

import (
	"context"
	"fmt"

	"triage-assistant/internal/llm"
	"triage-assistant/internal/taxonomy"
	"triage-assistant/pkg"
)

// Per-call sampling parameters. Chat runs warm for natural dialogue;
// extraction runs cold for consistent JSON.
var (
	chatSampling       = llm.Sampling{MaxTokens: 300, Temperature: 0.7, TopP: 0.9}
	extractionSampling = llm.Sampling{MaxTokens: 400, Temperature: 0.1}
	classifySampling   = llm.Sampling{MaxTokens: 500, Temperature: 0.3}
)

// Service orchestrates the triage conversation: it generates the assistant's
// next reply and decides, from the model's own extraction confidence,
// whether the case is ready to classify. It holds no per-conversation state;
// the caller resends the full transcript on every call, so concurrent
// invocations need no coordination.
type Service struct {
	LLM       llm.Client
	Taxonomy  *taxonomy.Taxonomy
	Threshold float64            // minimum extraction confidence to classify
	Policy    SubspecialtyPolicy // strict or permissive subspecialty repair
	Window    int                // chat-prompt history window; 0 = full history
}

// NewService constructs a triage service.
func NewService(client llm.Client, tax *taxonomy.Taxonomy, threshold float64, policy SubspecialtyPolicy, window int) *Service {
	return &Service{
		LLM:       client,
		Taxonomy:  tax,
		Threshold: threshold,
		Policy:    policy,
		Window:    window,
	}
}

// Chat handles one conversation turn. It issues two model calls: one for the
// assistant's reply, one combined extraction+classification over the whole
// transcript. When extraction confidence reaches the threshold and a
// specialty was resolved, the result carries a final classification;
// otherwise it carries a needsMoreInfo marker and the clinician supplies
// more detail on the next turn. Model failures propagate: a wrong
// classification is worse than an explicit error.
func (s *Service) Chat(ctx context.Context, history []pkg.Turn, message string) (*pkg.ChatResult, error) {
	chatPrompt := buildChatPrompt(s.Taxonomy, history, message, s.Window)
	reply, err := s.LLM.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: chatPrompt}}, chatSampling)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	transcript := append(append([]pkg.Turn{}, history...), pkg.Turn{Sender: pkg.SenderUser, Text: message})
	extractPrompt := buildExtractionPrompt(s.Taxonomy, transcript, s.Threshold)
	raw, err := s.LLM.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: extractPrompt}}, extractionSampling)
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}
	extracted, err := parseExtraction(raw, s.Taxonomy, s.Policy)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}

	result := &pkg.ChatResult{
		Response:      reply,
		Source:        pkg.SourceModel,
		ExtractedData: extracted,
	}

	if extracted.CanClassify && extracted.Confidence >= s.Threshold && extracted.Specialty != nil {
		result.CanClassify = true
		result.Classification = &pkg.Classification{
			Specialty:    *extracted.Specialty,
			Subspecialty: extracted.Subspecialty,
			Reasoning:    extracted.Reasoning,
			Confidence:   extracted.Confidence,
			Source:       pkg.SourceModel,
		}
	} else {
		result.ExtractedData.CanClassify = false
		result.NeedsMoreInfo = &pkg.NeedsMoreInfo{
			Confidence: extracted.Confidence,
			Threshold:  s.Threshold,
		}
	}
	return result, nil
}

// Classify performs a direct classification from already-known structured
// fields, bypassing the conversation flow.
func (s *Service) Classify(ctx context.Context, symptoms, ageGroup, urgency string) (*pkg.Classification, error) {
	prompt := buildClassificationPrompt(s.Taxonomy, symptoms, ageGroup, urgency)
	raw, err := s.LLM.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, classifySampling)
	if err != nil {
		return nil, fmt.Errorf("classification completion: %w", err)
	}
	classification, err := parseClassification(raw, s.Taxonomy, ageGroup, s.Policy)
	if err != nil {
		return nil, fmt.Errorf("classification: %w", err)
	}
	return classification, nil
}
