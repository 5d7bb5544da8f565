package extraction

import (
	"context"
	"fmt"

	"github.com/agenthands/dossier/internal/config"
	"github.com/agenthands/dossier/internal/core/common"
	"github.com/agenthands/dossier/internal/core/model"
	"github.com/agenthands/dossier/internal/llm"
)

// defaultSystemPrompt is used when no prompt is configured. It pins the enum
// vocabulary and the output shape; the reasoning block must come first so the
// model commits to its analysis before emitting structured data.
const defaultSystemPrompt = `You are an intelligence analyst. Extract structured intelligence from the note below.

Respond with a single JSON object and nothing else, in this exact shape:
{
  "reasoning": {
    "entities_identified": "...",
    "relationships_identified": "...",
    "facts_identified": "...",
    "events_identified": "...",
    "sources_identified": "...",
    "confidence_rationale": "..."
  },
  "entities": [{"name": "...", "entity_type": "...", "identifiers": [{"identifier_type": "...", "value": "..."}], "attributes": {}, "confidence": "..."}],
  "relations": [{"source_entity_name": "...", "target_entity_name": "...", "relation_type": "...", "strength": 5, "valid_from": "", "valid_to": "", "description": "", "confidence": "..."}],
  "intel": [{"intel_type": "...", "description": "...", "occurred_at": "", "entities_involved": ["..."], "location": "", "details": {}, "confidence": "..."}]
}

Allowed entity_type values: person, organization, group, vehicle, location, event.
Allowed identifier_type values: name, document, biometric, phone, email, handle, address, registration, domain.
Allowed relation_type values: parent, child, sibling, spouse, colleague, associate, friend, member, owner, founder, co-founder, visited, employee.
Allowed intel_type values: event, communication, sighting, report, document, media, financial.
Allowed confidence values: confirmed, high, medium, low, unconfirmed.

Rules:
- Fill the reasoning block before the structured sections.
- Use the person's name exactly as written in the note; do not expand or normalize names.
- occurred_at, valid_from and valid_to may be natural language ("yesterday", "last Tuesday").
- Every entity should carry at least a name identifier.
- Omit sections that have no content by using empty arrays.`

type Extractor struct {
	LLM     llm.LLMClient
	Prompts config.ExtractionPrompts
}

func NewExtractor(llmClient llm.LLMClient, prompts config.ExtractionPrompts) *Extractor {
	return &Extractor{
		LLM:     llmClient,
		Prompts: prompts,
	}
}

// Extract runs one note through the LLM and parses the structured bundle.
// noteContext is optional prior conversation the model may use to interpret
// pronouns and shorthand; it is never extracted from directly.
func (e *Extractor) Extract(ctx context.Context, text string, noteContext string) (*model.IntelligenceExtraction, error) {
	system := e.Prompts.System
	if system == "" {
		system = defaultSystemPrompt
	}

	prompt := system
	if noteContext != "" {
		prompt += fmt.Sprintf("\n\nConversation context (background only):\n%s", noteContext)
	}
	prompt += fmt.Sprintf("\n\nNote:\n%s", text)

	response, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate extraction: %w", err)
	}

	result, err := common.ParseJSON[model.IntelligenceExtraction](response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extraction: %w", err)
	}

	// The LLM occasionally omits the self-referential name identifier.
	for i := range result.Entities {
		result.Entities[i].EnsureNameIdentifier()
	}

	return &result, nil
}
