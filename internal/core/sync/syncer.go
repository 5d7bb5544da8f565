// Package sync merges one extraction batch, together with its person
// resolutions, into the record store without creating duplicate identities.
//
// The batch is an explicit pipeline of phases, each consuming the
// reference-to-identity map the previous phases populated, strictly in this
// order: resolutions, then entities, then relations, then intel. A failure
// on one item is recorded and never aborts the rest of the batch.
package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/dossier/internal/core/common"
	"github.com/agenthands/dossier/internal/core/model"
	"github.com/agenthands/dossier/internal/store"
)

type Syncer struct {
	Driver store.GraphDriver
	UserID string

	// UUIDGenerator mints record ids; injectable for tests.
	UUIDGenerator func() string
	// Now anchors natural-language date parsing.
	Now func() time.Time
}

func NewSyncer(driver store.GraphDriver, userID string) *Syncer {
	return &Syncer{
		Driver:        driver,
		UserID:        userID,
		UUIDGenerator: func() string { return uuid.New().String() },
		Now:           time.Now,
	}
}

// MergeAttributes overlays updates onto existing and returns the merged map.
// Keys present in both take the updated value; neither input is mutated.
func MergeAttributes(existing, updates map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(existing)+len(updates))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}

// SyncExtraction writes one extraction batch to the store and reports what
// was created, updated and skipped. Errors are collected per item; the
// returned results always cover the whole batch.
func (s *Syncer) SyncExtraction(ctx context.Context, extraction *model.IntelligenceExtraction, defaultSource string, resolutions []model.ResolutionResult) *model.SyncResults {
	results := &model.SyncResults{}

	sourceID, err := s.getOrCreateSource(ctx, defaultSource)
	if err != nil {
		log.Printf("Failed to get or create source '%s': %v", defaultSource, err)
		results.Errors = append(results.Errors, model.SyncError{
			Type:    "source",
			Item:    defaultSource,
			Message: err.Error(),
		})
	}

	nameToID := make(map[string]string)

	s.processResolutions(ctx, resolutions, nameToID, sourceID, results)
	s.syncEntities(ctx, extraction.Entities, nameToID, sourceID, results)
	s.syncRelations(ctx, extraction.Relations, nameToID, sourceID, results)
	s.syncIntel(ctx, extraction.Intel, nameToID, sourceID, results)

	return results
}

// processResolutions seeds the reference map: resolved references reuse
// their existing identity, new-entity references get a minimal person record
// plus a name identifier, ambiguous references stay unmapped and await
// clarification.
func (s *Syncer) processResolutions(ctx context.Context, resolutions []model.ResolutionResult, nameToID map[string]string, sourceID string, results *model.SyncResults) {
	for _, r := range resolutions {
		reference := r.InputReference

		switch {
		case r.Resolved && r.ResolvedEntityID != "":
			nameToID[reference] = r.ResolvedEntityID
			log.Printf("Resolved '%s' to existing entity %s (confidence: %.2f)", reference, r.ResolvedEntityID, r.Confidence)

		case r.Method == model.MethodNewEntity:
			log.Printf("Creating new entity for unresolved reference '%s'", reference)

			data := map[string]interface{}{
				"name":               reference,
				"user_id":            s.UserID,
				"_source":            sourceID,
				"_confidence":        string(model.ConfidenceMedium),
				"_resolution_method": string(r.Method),
			}

			entityID, err := s.saveEntity(ctx, string(model.EntityPerson), data)
			if err == nil {
				err = s.saveIdentifier(ctx, entityID, model.IdentifierExtraction{
					Type:  model.IdentifierName,
					Value: reference,
				})
			}
			if err != nil {
				log.Printf("Failed to create entity for '%s': %v", reference, err)
				results.Errors = append(results.Errors, model.SyncError{
					Type:    "entity_resolution",
					Item:    reference,
					Message: fmt.Sprintf("failed to create entity for '%s': %v", reference, err),
				})
				continue // left unmapped; dependent items will report not-found
			}

			nameToID[reference] = entityID
			results.EntitiesCreated = append(results.EntitiesCreated, model.EntityRecord{
				EntityID:             entityID,
				Name:                 reference,
				Type:                 string(model.EntityPerson),
				Created:              true,
				ResolutionConfidence: r.Confidence,
			})
			log.Printf("Created new entity for '%s': %s", reference, entityID)

		case r.Ambiguous:
			log.Printf("Reference '%s' is ambiguous (%d candidates), awaiting clarification", reference, len(r.Candidates))
		}
	}
}

func (s *Syncer) syncEntities(ctx context.Context, entities []model.EntityExtraction, nameToID map[string]string, sourceID string, results *model.SyncResults) {
	for i := range entities {
		entity := &entities[i]

		// Already resolved or created in the resolution phase.
		if _, done := nameToID[entity.Name]; done {
			log.Printf("Skipping entity sync for '%s' - already resolved to %s", entity.Name, nameToID[entity.Name])
			continue
		}

		record, err := s.syncEntity(ctx, entity, sourceID)
		if err != nil {
			msg := fmt.Sprintf("failed to sync entity '%s': %v", entity.Name, err)
			log.Print(msg)
			results.Errors = append(results.Errors, model.SyncError{
				Type:    "entity",
				Item:    entity.Name,
				Message: msg,
			})
			continue
		}

		nameToID[entity.Name] = record.EntityID
		if record.Created {
			results.EntitiesCreated = append(results.EntitiesCreated, record)
		} else {
			results.EntitiesUpdated = append(results.EntitiesUpdated, record)
		}
	}
}

// syncEntity upserts one extracted entity: an existing identity (found by
// case-insensitive name identifier) gets its attributes merged and new
// identifiers appended; otherwise identity and identifiers are created.
func (s *Syncer) syncEntity(ctx context.Context, entity *model.EntityExtraction, sourceID string) (model.EntityRecord, error) {
	entity.EnsureNameIdentifier()

	existingID, found := s.findEntityByIdentifier(ctx, model.IdentifierName, entity.Name)
	if found {
		if err := s.updateEntity(ctx, existingID, entity, sourceID); err != nil {
			return model.EntityRecord{}, err
		}
		return model.EntityRecord{
			EntityID:         existingID,
			Name:             entity.Name,
			Type:             string(entity.EntityType),
			Created:          false,
			IdentifiersCount: len(entity.Identifiers),
		}, nil
	}

	newID, err := s.createEntity(ctx, entity, sourceID)
	if err != nil {
		return model.EntityRecord{}, err
	}
	return model.EntityRecord{
		EntityID:         newID,
		Name:             entity.Name,
		Type:             string(entity.EntityType),
		Created:          true,
		IdentifiersCount: len(entity.Identifiers),
	}, nil
}

func (s *Syncer) syncRelations(ctx context.Context, relations []model.RelationExtraction, nameToID map[string]string, sourceID string, results *model.SyncResults) {
	for _, relation := range relations {
		record, err := s.syncRelation(ctx, relation, nameToID, sourceID)
		if err != nil {
			results.Errors = append(results.Errors, model.SyncError{
				Type:    "relation",
				Item:    fmt.Sprintf("%s -> %s", relation.SourceEntityName, relation.TargetEntityName),
				Message: err.Error(),
			})
			continue
		}
		results.RelationsCreated = append(results.RelationsCreated, record)
	}
}

func (s *Syncer) syncRelation(ctx context.Context, relation model.RelationExtraction, nameToID map[string]string, sourceID string) (model.RelationRecord, error) {
	sourceEntityID, ok := nameToID[relation.SourceEntityName]
	if !ok {
		return model.RelationRecord{}, fmt.Errorf("source entity not found: %s", relation.SourceEntityName)
	}
	targetEntityID, ok := nameToID[relation.TargetEntityName]
	if !ok {
		return model.RelationRecord{}, fmt.Errorf("target entity not found: %s", relation.TargetEntityName)
	}

	// An active relation of the same type between the same pair makes the
	// item a no-op.
	if existingID, exists := s.activeRelation(ctx, sourceEntityID, targetEntityID, relation.RelationType); exists {
		return model.RelationRecord{
			RelationID: existingID,
			SourceName: relation.SourceEntityName,
			TargetName: relation.TargetEntityName,
			Type:       string(relation.RelationType),
			Created:    false,
		}, nil
	}

	now := s.Now()
	validFrom := ""
	if relation.ValidFrom != "" {
		validFrom = common.FormatDate(common.ParseNaturalDate(relation.ValidFrom, now))
	}
	validTo := ""
	if relation.ValidTo != "" {
		validTo = common.FormatDate(common.ParseNaturalDate(relation.ValidTo, now))
	}

	relationID, err := s.saveRelation(ctx, sourceEntityID, targetEntityID, relation, validFrom, validTo, sourceID)
	if err != nil {
		return model.RelationRecord{}, err
	}

	return model.RelationRecord{
		RelationID: relationID,
		SourceName: relation.SourceEntityName,
		TargetName: relation.TargetEntityName,
		Type:       string(relation.RelationType),
		Created:    true,
	}, nil
}

func (s *Syncer) syncIntel(ctx context.Context, items []model.IntelExtraction, nameToID map[string]string, sourceID string, results *model.SyncResults) {
	for _, intel := range items {
		log.Printf("Syncing intel: %s - %s", intel.IntelType, truncate(intel.Description, 50))

		record, err := s.syncIntelItem(ctx, intel, nameToID, sourceID)
		if err != nil {
			msg := fmt.Sprintf("failed to sync intel '%s': %v", truncate(intel.Description, 50), err)
			log.Print(msg)
			results.Errors = append(results.Errors, model.SyncError{
				Type:    "intel",
				Item:    intel.Description,
				Message: msg,
			})
			continue
		}

		log.Printf("Created intel record: %s (linked %d entities)", record.IntelID, record.EntitiesLinked)
		results.IntelCreated = append(results.IntelCreated, record)
	}
}

// syncIntelItem creates the intel record and links every participant that is
// present in the reference map. Participants without a mapping are silently
// skipped; the linked count reflects only mapped participants.
func (s *Syncer) syncIntelItem(ctx context.Context, intel model.IntelExtraction, nameToID map[string]string, sourceID string) (model.IntelRecord, error) {
	occurredAt := common.FormatDate(common.ParseNaturalDate(intel.OccurredAt, s.Now()))

	intelID, err := s.saveIntel(ctx, intel, occurredAt, sourceID)
	if err != nil {
		return model.IntelRecord{}, err
	}

	linked := 0
	for _, name := range intel.EntitiesInvolved {
		entityID, ok := nameToID[name]
		if !ok {
			continue
		}
		if err := s.saveIntelParticipant(ctx, intelID, entityID, "participant"); err != nil {
			log.Printf("Failed to link intel %s to entity %s: %v", intelID, entityID, err)
			continue
		}
		linked++
	}

	return model.IntelRecord{
		IntelID:        intelID,
		Type:           string(intel.IntelType),
		Description:    intel.Description,
		EntitiesLinked: linked,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
