package model

// SyncError is a per-item failure recorded during a sync batch. One bad item
// never aborts the batch; it becomes an entry here instead.
type SyncError struct {
	Type    string `json:"type"` // entity, relation, intel, entity_resolution, source
	Item    string `json:"item"`
	Message string `json:"message"`
}

type EntityRecord struct {
	EntityID             string  `json:"entity_id"`
	Name                 string  `json:"name"`
	Type                 string  `json:"type"`
	Created              bool    `json:"created"`
	IdentifiersCount     int     `json:"identifiers_count,omitempty"`
	ResolutionConfidence float64 `json:"resolution_confidence,omitempty"`
}

type RelationRecord struct {
	RelationID string `json:"relation_id"`
	SourceName string `json:"source_name"`
	TargetName string `json:"target_name"`
	Type       string `json:"type"`
	Created    bool   `json:"created"`
}

type IntelRecord struct {
	IntelID        string `json:"intel_id"`
	Type           string `json:"type"`
	Description    string `json:"description"`
	EntitiesLinked int    `json:"entities_linked"`
}

// SyncResults accumulates everything one sync batch created or updated,
// plus the per-item errors. Built fresh per batch, returned to the caller,
// never persisted.
type SyncResults struct {
	EntitiesCreated  []EntityRecord   `json:"entities_created"`
	EntitiesUpdated  []EntityRecord   `json:"entities_updated"`
	RelationsCreated []RelationRecord `json:"relations_created"`
	IntelCreated     []IntelRecord    `json:"intel_created"`
	Errors           []SyncError      `json:"errors"`
}

// ClarificationOption is one candidate the user can pick when a reference
// was ambiguous.
type ClarificationOption struct {
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`
	Context  string `json:"context"` // distinguishing attributes, comma joined
}

// Clarification asks the user which candidate an ambiguous reference meant.
type Clarification struct {
	Reference string                `json:"reference"`
	Options   []ClarificationOption `json:"options"`
}
