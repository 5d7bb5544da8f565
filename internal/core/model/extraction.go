package model

import "strings"

// Enum values mirror the database schema vocabulary. The LLM is instructed to
// emit these exact strings; anything else is stored as-is and treated as
// unconfirmed by consumers.

type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityGroup        EntityType = "group"
	EntityVehicle      EntityType = "vehicle"
	EntityLocation     EntityType = "location"
	EntityEvent        EntityType = "event"
)

type IdentifierType string

const (
	IdentifierName         IdentifierType = "name"
	IdentifierDocument     IdentifierType = "document"
	IdentifierBiometric    IdentifierType = "biometric"
	IdentifierPhone        IdentifierType = "phone"
	IdentifierEmail        IdentifierType = "email"
	IdentifierHandle       IdentifierType = "handle"
	IdentifierAddress      IdentifierType = "address"
	IdentifierRegistration IdentifierType = "registration"
	IdentifierDomain       IdentifierType = "domain"
)

type RelationType string

const (
	RelationParent    RelationType = "parent"
	RelationChild     RelationType = "child"
	RelationSibling   RelationType = "sibling"
	RelationSpouse    RelationType = "spouse"
	RelationColleague RelationType = "colleague"
	RelationAssociate RelationType = "associate"
	RelationFriend    RelationType = "friend"
	RelationMember    RelationType = "member"
	RelationOwner     RelationType = "owner"
	RelationFounder   RelationType = "founder"
	RelationCoFounder RelationType = "co-founder"
	RelationVisited   RelationType = "visited"
	RelationEmployee  RelationType = "employee"
)

type IntelType string

const (
	IntelEvent         IntelType = "event"
	IntelCommunication IntelType = "communication"
	IntelSighting      IntelType = "sighting"
	IntelReport        IntelType = "report"
	IntelDocument      IntelType = "document"
	IntelMedia         IntelType = "media"
	IntelFinancial     IntelType = "financial"
)

type ConfidenceLevel string

const (
	ConfidenceConfirmed   ConfidenceLevel = "confirmed"
	ConfidenceHigh        ConfidenceLevel = "high"
	ConfidenceMedium      ConfidenceLevel = "medium"
	ConfidenceLow         ConfidenceLevel = "low"
	ConfidenceUnconfirmed ConfidenceLevel = "unconfirmed"
)

// Classification of an extraction result: entity-heavy, event-heavy, or both.
type Classification string

const (
	ClassificationFactUpdate Classification = "fact_update"
	ClassificationEventLog   Classification = "event_log"
	ClassificationMixed      Classification = "mixed"
)

// Reasoning is the chain-of-thought block the LLM must emit before the
// structured payload. Five categorized free-text summaries plus the
// confidence rationale.
type Reasoning struct {
	EntitiesIdentified      string `json:"entities_identified"`
	RelationshipsIdentified string `json:"relationships_identified"`
	FactsIdentified         string `json:"facts_identified"`
	EventsIdentified        string `json:"events_identified"`
	SourcesIdentified       string `json:"sources_identified"`
	ConfidenceRationale     string `json:"confidence_rationale"`
}

type IdentifierExtraction struct {
	Type     IdentifierType         `json:"identifier_type"`
	Value    string                 `json:"value"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type EntityExtraction struct {
	Name            string                 `json:"name"`
	EntityType      EntityType             `json:"entity_type"`
	Identifiers     []IdentifierExtraction `json:"identifiers"`
	Attributes      map[string]interface{} `json:"attributes,omitempty"`
	Confidence      ConfidenceLevel        `json:"confidence"`
	SourceReference string                 `json:"source_reference,omitempty"`
}

// EnsureNameIdentifier prepends a name identifier when the LLM omitted one.
// Every entity must carry at least its own name as an identifier.
func (e *EntityExtraction) EnsureNameIdentifier() {
	for _, id := range e.Identifiers {
		if id.Type == IdentifierName {
			return
		}
	}
	e.Identifiers = append([]IdentifierExtraction{{Type: IdentifierName, Value: e.Name}}, e.Identifiers...)
}

type RelationExtraction struct {
	SourceEntityName string          `json:"source_entity_name"`
	TargetEntityName string          `json:"target_entity_name"`
	RelationType     RelationType    `json:"relation_type"`
	Strength         int             `json:"strength,omitempty"` // 1 (weak) to 10 (strong)
	ValidFrom        string          `json:"valid_from,omitempty"`
	ValidTo          string          `json:"valid_to,omitempty"`
	Description      string          `json:"description,omitempty"`
	Confidence       ConfidenceLevel `json:"confidence"`
	SourceReference  string          `json:"source_reference,omitempty"`
}

type IntelExtraction struct {
	IntelType        IntelType              `json:"intel_type"`
	Description      string                 `json:"description"`
	OccurredAt       string                 `json:"occurred_at,omitempty"` // natural language, parsed at sync time
	EntitiesInvolved []string               `json:"entities_involved"`
	Location         string                 `json:"location,omitempty"`
	Details          map[string]interface{} `json:"details,omitempty"`
	Confidence       ConfidenceLevel        `json:"confidence"`
	SourceReference  string                 `json:"source_reference,omitempty"`
}

// IntelligenceExtraction is the full structured bundle produced by the LLM
// for one note.
type IntelligenceExtraction struct {
	Reasoning Reasoning            `json:"reasoning"`
	Entities  []EntityExtraction   `json:"entities"`
	Relations []RelationExtraction `json:"relations"`
	Intel     []IntelExtraction    `json:"intel"`
}

// PersonReferences returns the distinct person references mentioned anywhere
// in the bundle, in first-appearance order: person entities, then relation
// endpoints, then intel participants.
func (x *IntelligenceExtraction) PersonReferences() []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		refs = append(refs, name)
	}

	for _, e := range x.Entities {
		if e.EntityType == EntityPerson {
			add(e.Name)
		}
	}
	for _, r := range x.Relations {
		add(r.SourceEntityName)
		add(r.TargetEntityName)
	}
	for _, i := range x.Intel {
		for _, name := range i.EntitiesInvolved {
			add(name)
		}
	}
	return refs
}

// Classify derives the classification from the bundle's content: entities
// only is a fact update, intel only an event log, both mixed. A bundle with
// neither (relations only) defaults to fact update.
func (x *IntelligenceExtraction) Classify() Classification {
	hasEntities := len(x.Entities) > 0
	hasIntel := len(x.Intel) > 0

	switch {
	case hasEntities && hasIntel:
		return ClassificationMixed
	case hasIntel:
		return ClassificationEventLog
	default:
		return ClassificationFactUpdate
	}
}

// SummarizeReasoning flattens the reasoning block into one chain-of-thought
// string for the response payload.
func SummarizeReasoning(r Reasoning) string {
	var parts []string

	if r.EntitiesIdentified != "" {
		parts = append(parts, "Entities: "+r.EntitiesIdentified)
	}
	if r.RelationshipsIdentified != "" && r.RelationshipsIdentified != "None" {
		parts = append(parts, "Relationships: "+r.RelationshipsIdentified)
	}
	if r.FactsIdentified != "" {
		parts = append(parts, "Facts: "+r.FactsIdentified)
	}
	if r.EventsIdentified != "" {
		parts = append(parts, "Events: "+r.EventsIdentified)
	}
	if r.ConfidenceRationale != "" {
		parts = append(parts, "Confidence: "+r.ConfidenceRationale)
	}

	if len(parts) == 0 {
		return "No reasoning provided"
	}
	return strings.Join(parts, "; ")
}

// ClassifiedExtraction is the caller-facing result of processing one note.
type ClassifiedExtraction struct {
	Classification Classification         `json:"classification"`
	ChainOfThought string                 `json:"chain_of_thought"`
	Extraction     IntelligenceExtraction `json:"extraction"`
	Resolutions    []ResolutionResult     `json:"resolutions,omitempty"`
	SyncResults    *SyncResults           `json:"sync_results,omitempty"`
	Clarifications []Clarification        `json:"clarifications,omitempty"`
}
