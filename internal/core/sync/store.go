package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/dossier/internal/core/common"
	"github.com/agenthands/dossier/internal/core/model"
	"github.com/agenthands/dossier/internal/store"
)

// Record helpers. Each issues one named query; ids are minted client-side
// and echoed back by the store.

func (s *Syncer) getOrCreateSource(ctx context.Context, code string) (string, error) {
	res, err := s.Driver.ExecuteQuery(ctx, store.GetSourceByCodeQuery, map[string]interface{}{
		"code": code,
	})
	if err != nil {
		return "", err
	}
	if id, ok := firstString(res.Records, "uuid"); ok {
		return id, nil
	}

	sourceID := s.UUIDGenerator()
	_, err = s.Driver.ExecuteQuery(ctx, store.SaveSourceQuery, map[string]interface{}{
		"uuid":        sourceID,
		"code":        code,
		"source_type": "human",
		"reliability": "C", // fairly reliable by default
		"data":        "{}",
		"active":      true,
		"created_at":  common.FormatDate(s.Now()),
	})
	if err != nil {
		return "", err
	}
	return sourceID, nil
}

func (s *Syncer) saveEntity(ctx context.Context, entityType string, data map[string]interface{}) (string, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode entity data: %w", err)
	}

	entityID := s.UUIDGenerator()
	now := common.FormatDate(s.Now())
	_, err = s.Driver.ExecuteQuery(ctx, store.SaveEntityQuery, map[string]interface{}{
		"uuid":        entityID,
		"entity_type": entityType,
		"user_id":     s.UserID,
		"data":        string(dataJSON),
		"created_at":  now,
		"updated_at":  now,
	})
	if err != nil {
		return "", err
	}
	return entityID, nil
}

func (s *Syncer) createEntity(ctx context.Context, entity *model.EntityExtraction, sourceID string) (string, error) {
	data := MergeAttributes(map[string]interface{}{
		"name":        entity.Name,
		"user_id":     s.UserID,
		"_source":     sourceID,
		"_confidence": string(entity.Confidence),
	}, entity.Attributes)

	entityID, err := s.saveEntity(ctx, string(entity.EntityType), data)
	if err != nil {
		return "", err
	}

	if err := s.createIdentifiers(ctx, entityID, entity.Identifiers, false); err != nil {
		return "", err
	}
	return entityID, nil
}

func (s *Syncer) updateEntity(ctx context.Context, entityID string, entity *model.EntityExtraction, sourceID string) error {
	res, err := s.Driver.ExecuteQuery(ctx, store.GetEntityDataQuery, map[string]interface{}{
		"uuid": entityID,
	})
	if err != nil {
		return err
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("entity %s not found", entityID)
	}

	current := map[string]interface{}{}
	if dataStr, ok := firstString(res.Records, "data"); ok && dataStr != "" {
		if err := json.Unmarshal([]byte(dataStr), &current); err != nil {
			return fmt.Errorf("failed to decode entity data: %w", err)
		}
	}

	updated := MergeAttributes(current, entity.Attributes)
	updated["_source"] = sourceID
	updated["_confidence"] = string(entity.Confidence)

	updatedJSON, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to encode entity data: %w", err)
	}

	_, err = s.Driver.ExecuteQuery(ctx, store.UpdateEntityDataQuery, map[string]interface{}{
		"uuid":       entityID,
		"data":       string(updatedJSON),
		"updated_at": common.FormatDate(s.Now()),
	})
	if err != nil {
		return err
	}

	return s.createIdentifiers(ctx, entityID, entity.Identifiers, true)
}

// findEntityByIdentifier looks an entity up by a case-insensitive identifier
// value. Lookup failures are treated as not-found so an unavailable index
// degrades to a create instead of aborting the item.
func (s *Syncer) findEntityByIdentifier(ctx context.Context, idType model.IdentifierType, value string) (string, bool) {
	res, err := s.Driver.ExecuteQuery(ctx, store.FindEntityByIdentifierQuery, map[string]interface{}{
		"id_type": string(idType),
		"value":   value,
	})
	if err != nil {
		log.Printf("Error finding entity by identifier: %v", err)
		return "", false
	}
	return firstString(res.Records, "uuid")
}

// createIdentifiers writes the identifiers of one entity. With
// skipDuplicates an existing identifier of the same type is kept, or updated
// in place when its value differs, instead of being duplicated.
func (s *Syncer) createIdentifiers(ctx context.Context, entityID string, identifiers []model.IdentifierExtraction, skipDuplicates bool) error {
	for _, identifier := range identifiers {
		if skipDuplicates {
			existing, err := s.Driver.ExecuteQuery(ctx, store.GetEntityIdentifiersByTypeQuery, map[string]interface{}{
				"entity_uuid": entityID,
				"id_type":     string(identifier.Type),
			})
			if err != nil {
				return err
			}
			if len(existing.Records) > 0 {
				existingID, _ := firstString(existing.Records, "uuid")
				existingValue, _ := firstString(existing.Records, "value")

				if !strings.EqualFold(existingValue, identifier.Value) {
					_, err := s.Driver.ExecuteQuery(ctx, store.UpdateIdentifierValueQuery, map[string]interface{}{
						"uuid":  existingID,
						"value": identifier.Value,
					})
					if err != nil {
						return err
					}
					log.Printf("Updated identifier %s for entity %s: %s -> %s", identifier.Type, entityID, existingValue, identifier.Value)
				}
				continue
			}
		}

		if err := s.saveIdentifier(ctx, entityID, identifier); err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) saveIdentifier(ctx context.Context, entityID string, identifier model.IdentifierExtraction) error {
	metadata := ""
	if identifier.Metadata != nil {
		metadataJSON, err := json.Marshal(identifier.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode identifier metadata: %w", err)
		}
		metadata = string(metadataJSON)
	}

	_, err := s.Driver.ExecuteQuery(ctx, store.SaveIdentifierQuery, map[string]interface{}{
		"uuid":        s.UUIDGenerator(),
		"entity_uuid": entityID,
		"id_type":     string(identifier.Type),
		"value":       identifier.Value,
		"metadata":    metadata,
		"created_at":  common.FormatDate(s.Now()),
	})
	return err
}

func (s *Syncer) activeRelation(ctx context.Context, sourceEntityID, targetEntityID string, relationType model.RelationType) (string, bool) {
	res, err := s.Driver.ExecuteQuery(ctx, store.GetActiveRelationQuery, map[string]interface{}{
		"source_uuid":   sourceEntityID,
		"target_uuid":   targetEntityID,
		"relation_type": string(relationType),
	})
	if err != nil {
		log.Printf("Error checking existing relation: %v", err)
		return "", false
	}
	return firstString(res.Records, "uuid")
}

func (s *Syncer) saveRelation(ctx context.Context, sourceEntityID, targetEntityID string, relation model.RelationExtraction, validFrom, validTo, sourceID string) (string, error) {
	data := map[string]interface{}{
		"confidence": string(relation.Confidence),
		"source_id":  sourceID,
	}
	if relation.Description != "" {
		data["description"] = relation.Description
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode relation data: %w", err)
	}

	relationID := s.UUIDGenerator()
	_, err = s.Driver.ExecuteQuery(ctx, store.SaveRelationQuery, map[string]interface{}{
		"uuid":          relationID,
		"source_uuid":   sourceEntityID,
		"target_uuid":   targetEntityID,
		"relation_type": string(relation.RelationType),
		"strength":      relation.Strength,
		"valid_from":    validFrom,
		"valid_to":      validTo,
		"data":          string(dataJSON),
		"created_at":    common.FormatDate(s.Now()),
	})
	if err != nil {
		return "", err
	}
	return relationID, nil
}

func (s *Syncer) saveIntel(ctx context.Context, intel model.IntelExtraction, occurredAt, sourceID string) (string, error) {
	data := map[string]interface{}{
		"description": intel.Description,
		"details":     intel.Details,
	}
	if intel.Location != "" {
		data["location"] = intel.Location
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode intel data: %w", err)
	}

	intelID := s.UUIDGenerator()
	_, err = s.Driver.ExecuteQuery(ctx, store.SaveIntelQuery, map[string]interface{}{
		"uuid":        intelID,
		"intel_type":  string(intel.IntelType),
		"occurred_at": occurredAt,
		"data":        string(dataJSON),
		"source_id":   sourceID,
		"confidence":  string(intel.Confidence),
		"created_at":  common.FormatDate(s.Now()),
	})
	if err != nil {
		return "", err
	}
	return intelID, nil
}

func (s *Syncer) saveIntelParticipant(ctx context.Context, intelID, entityID, role string) error {
	_, err := s.Driver.ExecuteQuery(ctx, store.SaveIntelParticipantQuery, map[string]interface{}{
		"uuid":        s.UUIDGenerator(),
		"intel_uuid":  intelID,
		"entity_uuid": entityID,
		"role":        role,
		"created_at":  common.FormatDate(s.Now()),
	})
	return err
}

func firstString(records []*neo4j.Record, key string) (string, bool) {
	if len(records) == 0 {
		return "", false
	}
	val, ok := records[0].Get(key)
	if !ok || val == nil {
		return "", false
	}
	str, ok := val.(string)
	return str, ok && str != ""
}
