package model

import (
	"fmt"
	"sort"
	"time"
)

type ResolutionMethod string

const (
	MethodExactMatch      ResolutionMethod = "exact_match"
	MethodFuzzyMatch      ResolutionMethod = "fuzzy_match"
	MethodContextualMatch ResolutionMethod = "contextual_match"
	MethodNewEntity       ResolutionMethod = "new_entity"
	MethodAmbiguous       ResolutionMethod = "ambiguous"
)

// PersonCandidate is a read-only snapshot of one known person, with the
// identifier values flattened by type. Built fresh from the store for every
// resolution request and never mutated in place.
type PersonCandidate struct {
	ID        string    `json:"id"`
	Names     []string  `json:"names"` // at least one
	Emails    []string  `json:"emails,omitempty"`
	Phones    []string  `json:"phones,omitempty"`
	Company   string    `json:"company,omitempty"`
	Location  string    `json:"location,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryName returns the first name alias.
func (p PersonCandidate) PrimaryName() string {
	if len(p.Names) == 0 {
		return ""
	}
	return p.Names[0]
}

// SessionEntity records a recent mention of an entity within the current
// session, for recency-based disambiguation.
type SessionEntity struct {
	EntityID        string    `json:"entity_id"`
	MentionCount    int       `json:"mention_count"`
	LastMentionedAt time.Time `json:"last_mentioned_at"`
}

// ResolutionContext is the immutable candidate pool plus matching thresholds
// shared by every reference resolved in one request.
type ResolutionContext struct {
	Persons         []PersonCandidate `json:"persons"`
	SessionEntities []SessionEntity   `json:"session_entities,omitempty"`

	// Thresholds are bounded to [0,1].
	FuzzyFirstNameThreshold        float64 `json:"fuzzy_first_name_threshold"`
	FuzzyLastNameThreshold         float64 `json:"fuzzy_last_name_threshold"`
	AutoResolveConfidenceThreshold float64 `json:"auto_resolve_confidence_threshold"`
}

// RecentlyMentioned returns up to limit entity IDs ordered by most recent
// mention.
func (c *ResolutionContext) RecentlyMentioned(limit int) []string {
	sorted := make([]SessionEntity, len(c.SessionEntities))
	copy(sorted, c.SessionEntities)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastMentionedAt.After(sorted[j].LastMentionedAt)
	})

	if limit > len(sorted) {
		limit = len(sorted)
	}
	ids := make([]string, 0, limit)
	for _, e := range sorted[:limit] {
		ids = append(ids, e.EntityID)
	}
	return ids
}

// CandidateSummary carries the distinguishing attributes of one candidate in
// an ambiguous resolution.
type CandidateSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Company    string  `json:"company,omitempty"`
	Email      string  `json:"email,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// MatchDetails is the structured score breakdown attached to a result.
type MatchDetails struct {
	ExactMatch     bool    `json:"exact_match"`
	BestFuzzyScore float64 `json:"best_fuzzy_score,omitempty"`
	MatchCount     int     `json:"match_count"`
	ContextMatch   string  `json:"context_match,omitempty"`
}

// ResolutionResult is the outcome of resolving one reference string.
// Construct through NewResolvedResult, NewAmbiguousResult or
// NewUnresolvedResult; the constructors enforce the two invariants
// (resolved requires an entity id, ambiguous requires candidates).
type ResolutionResult struct {
	InputReference   string             `json:"input_reference"`
	Resolved         bool               `json:"resolved"`
	ResolvedEntityID string             `json:"resolved_entity_id,omitempty"`
	Confidence       float64            `json:"confidence"`
	Method           ResolutionMethod   `json:"resolution_method"`
	Ambiguous        bool               `json:"ambiguous"`
	Candidates       []CandidateSummary `json:"candidates,omitempty"`
	Reasoning        string             `json:"reasoning"`
	MatchDetails     *MatchDetails      `json:"match_details,omitempty"`
}

// NewResolvedResult builds a resolved outcome. Rejects a missing entity id
// or a confidence outside [0,1].
func NewResolvedResult(reference, entityID string, confidence float64, method ResolutionMethod, reasoning string, details *MatchDetails) (ResolutionResult, error) {
	if entityID == "" {
		return ResolutionResult{}, fmt.Errorf("resolution for %q: resolved_entity_id required when resolved=true", reference)
	}
	if confidence < 0 || confidence > 1 {
		return ResolutionResult{}, fmt.Errorf("resolution for %q: confidence %v outside [0,1]", reference, confidence)
	}
	return ResolutionResult{
		InputReference:   reference,
		Resolved:         true,
		ResolvedEntityID: entityID,
		Confidence:       confidence,
		Method:           method,
		Reasoning:        reasoning,
		MatchDetails:     details,
	}, nil
}

// NewAmbiguousResult builds an ambiguous outcome. Rejects an empty candidate
// list.
func NewAmbiguousResult(reference string, candidates []CandidateSummary, reasoning string, details *MatchDetails) (ResolutionResult, error) {
	if len(candidates) == 0 {
		return ResolutionResult{}, fmt.Errorf("resolution for %q: candidates required when ambiguous=true", reference)
	}
	return ResolutionResult{
		InputReference: reference,
		Method:         MethodAmbiguous,
		Ambiguous:      true,
		Candidates:     candidates,
		Reasoning:      reasoning,
		MatchDetails:   details,
	}, nil
}

// NewUnresolvedResult builds a new-entity outcome: no match, not ambiguous.
func NewUnresolvedResult(reference, reasoning string, details *MatchDetails) ResolutionResult {
	return ResolutionResult{
		InputReference: reference,
		Method:         MethodNewEntity,
		Reasoning:      reasoning,
		MatchDetails:   details,
	}
}
