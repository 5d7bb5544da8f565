package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/dossier/internal/config"
	"github.com/agenthands/dossier/internal/core/model"
)

const sampleResponse = `Here is the extraction:
{
	"reasoning": {
		"entities_identified": "John Smith (person), Acme Corp (organization)",
		"relationships_identified": "John works at Acme",
		"facts_identified": "John's email is john@acme.com",
		"events_identified": "None",
		"sources_identified": "user note",
		"confidence_rationale": "explicit statements"
	},
	"entities": [
		{
			"name": "John Smith",
			"entity_type": "person",
			"identifiers": [{"identifier_type": "email", "value": "john@acme.com"}],
			"attributes": {"role": "engineer"},
			"confidence": "high"
		},
		{
			"name": "Acme Corp",
			"entity_type": "organization",
			"identifiers": [{"identifier_type": "name", "value": "Acme Corp"}],
			"confidence": "high"
		}
	],
	"relations": [
		{
			"source_entity_name": "John Smith",
			"target_entity_name": "Acme Corp",
			"relation_type": "employee",
			"strength": 7,
			"confidence": "high"
		}
	],
	"intel": []
}`

func TestExtract(t *testing.T) {
	mockLLM := &MockLLMClient{Response: sampleResponse}
	extractor := NewExtractor(mockLLM, config.ExtractionPrompts{})

	result, err := extractor.Extract(context.Background(), "John Smith is an engineer at Acme Corp, email john@acme.com.", "")
	require.NoError(t, err)

	require.Len(t, result.Entities, 2)
	assert.Equal(t, "John Smith", result.Entities[0].Name)
	assert.Equal(t, model.EntityPerson, result.Entities[0].EntityType)
	assert.Equal(t, "engineer", result.Entities[0].Attributes["role"])

	require.Len(t, result.Relations, 1)
	assert.Equal(t, model.RelationEmployee, result.Relations[0].RelationType)
	assert.Equal(t, 7, result.Relations[0].Strength)

	assert.Contains(t, result.Reasoning.EntitiesIdentified, "John Smith")
	assert.Empty(t, result.Intel)
}

// The LLM only listed an email for John; the extractor must inject the name
// identifier so the entity stays findable by name.
func TestExtractEnsuresNameIdentifier(t *testing.T) {
	mockLLM := &MockLLMClient{Response: sampleResponse}
	extractor := NewExtractor(mockLLM, config.ExtractionPrompts{})

	result, err := extractor.Extract(context.Background(), "note", "")
	require.NoError(t, err)

	john := result.Entities[0]
	require.Len(t, john.Identifiers, 2)
	assert.Equal(t, model.IdentifierName, john.Identifiers[0].Type)
	assert.Equal(t, "John Smith", john.Identifiers[0].Value)

	// Acme already carried its name identifier; nothing duplicated.
	assert.Len(t, result.Entities[1].Identifiers, 1)
}

func TestExtractUsesConfiguredPrompt(t *testing.T) {
	mockLLM := &MockLLMClient{Response: `{"entities": [], "relations": [], "intel": []}`}
	extractor := NewExtractor(mockLLM, config.ExtractionPrompts{System: "CUSTOM SYSTEM PROMPT"})

	_, err := extractor.Extract(context.Background(), "the note text", "prior conversation")
	require.NoError(t, err)

	assert.Contains(t, mockLLM.Prompt, "CUSTOM SYSTEM PROMPT")
	assert.Contains(t, mockLLM.Prompt, "the note text")
	assert.Contains(t, mockLLM.Prompt, "prior conversation")
}

func TestExtractLLMError(t *testing.T) {
	mockLLM := &MockLLMClient{Err: errors.New("provider timeout")}
	extractor := NewExtractor(mockLLM, config.ExtractionPrompts{})

	_, err := extractor.Extract(context.Background(), "note", "")
	assert.Error(t, err)
}

func TestExtractUnparseableResponse(t *testing.T) {
	mockLLM := &MockLLMClient{Response: "I could not find anything useful."}
	extractor := NewExtractor(mockLLM, config.ExtractionPrompts{})

	_, err := extractor.Extract(context.Background(), "note", "")
	assert.Error(t, err)
}
