package store

// Logical tables are labeled nodes (Entity, Identifier, Intel, Source) and
// relationships (RELATES_TO between entities, INVOLVES from intel to its
// participants, IDENTIFIED_BY from an entity to its identifiers). Free-form
// attribute maps are stored as JSON strings in the data property. Soft
// deletion is a deleted_at property; "active" rows have it unset.

const (
	// One row per (person, identifier) pair; the caller groups rows by uuid.
	// Company and location live in the entity's data JSON.
	GetPersonCandidatesQuery = `
		MATCH (e:Entity {entity_type: 'person'})
		WHERE e.deleted_at IS NULL
		OPTIONAL MATCH (e)-[:IDENTIFIED_BY]->(i:Identifier)
		WHERE i.deleted_at IS NULL
		RETURN e.uuid AS uuid, e.data AS data, e.updated_at AS updated_at,
		       i.id_type AS id_type, i.value AS id_value
	`

	SaveEntityQuery = `
		MERGE (e:Entity {uuid: $uuid})
		SET e.entity_type = $entity_type,
			e.user_id = $user_id,
			e.data = $data,
			e.created_at = coalesce(e.created_at, $created_at),
			e.updated_at = $updated_at
		RETURN e.uuid AS uuid
	`

	GetEntityDataQuery = `
		MATCH (e:Entity {uuid: $uuid})
		WHERE e.deleted_at IS NULL
		RETURN e.data AS data
	`

	UpdateEntityDataQuery = `
		MATCH (e:Entity {uuid: $uuid})
		SET e.data = $data, e.updated_at = $updated_at
		RETURN e.uuid AS uuid
	`

	// Case-insensitive identifier lookup (the ilike-filter operation).
	FindEntityByIdentifierQuery = `
		MATCH (e:Entity)-[:IDENTIFIED_BY]->(i:Identifier)
		WHERE i.id_type = $id_type AND toLower(i.value) = toLower($value)
			AND i.deleted_at IS NULL AND e.deleted_at IS NULL
		RETURN e.uuid AS uuid
		LIMIT 1
	`

	SaveIdentifierQuery = `
		MATCH (e:Entity {uuid: $entity_uuid})
		MERGE (e)-[:IDENTIFIED_BY]->(i:Identifier {uuid: $uuid})
		SET i.id_type = $id_type,
			i.value = $value,
			i.metadata = $metadata,
			i.created_at = coalesce(i.created_at, $created_at)
		RETURN i.uuid AS uuid
	`

	GetEntityIdentifiersByTypeQuery = `
		MATCH (e:Entity {uuid: $entity_uuid})-[:IDENTIFIED_BY]->(i:Identifier)
		WHERE i.id_type = $id_type AND i.deleted_at IS NULL
		RETURN i.uuid AS uuid, i.value AS value
	`

	UpdateIdentifierValueQuery = `
		MATCH (:Entity)-[:IDENTIFIED_BY]->(i:Identifier {uuid: $uuid})
		SET i.value = $value
		RETURN i.uuid AS uuid
	`

	// The "no active matching row" check behind relation idempotence.
	GetActiveRelationQuery = `
		MATCH (s:Entity {uuid: $source_uuid})-[r:RELATES_TO]->(t:Entity {uuid: $target_uuid})
		WHERE r.relation_type = $relation_type AND r.deleted_at IS NULL
		RETURN r.uuid AS uuid
		LIMIT 1
	`

	SaveRelationQuery = `
		MATCH (s:Entity {uuid: $source_uuid})
		MATCH (t:Entity {uuid: $target_uuid})
		MERGE (s)-[r:RELATES_TO {uuid: $uuid}]->(t)
		SET r.relation_type = $relation_type,
			r.strength = $strength,
			r.valid_from = $valid_from,
			r.valid_to = $valid_to,
			r.data = $data,
			r.created_at = coalesce(r.created_at, $created_at)
		RETURN r.uuid AS uuid
	`

	SaveIntelQuery = `
		MERGE (n:Intel {uuid: $uuid})
		SET n.intel_type = $intel_type,
			n.occurred_at = $occurred_at,
			n.data = $data,
			n.source_id = $source_id,
			n.confidence = $confidence,
			n.created_at = coalesce(n.created_at, $created_at)
		RETURN n.uuid AS uuid
	`

	SaveIntelParticipantQuery = `
		MATCH (n:Intel {uuid: $intel_uuid})
		MATCH (e:Entity {uuid: $entity_uuid})
		MERGE (n)-[p:INVOLVES {uuid: $uuid}]->(e)
		SET p.role = $role,
			p.created_at = coalesce(p.created_at, $created_at)
		RETURN p.uuid AS uuid
	`

	GetSourceByCodeQuery = `
		MATCH (s:Source {code: $code})
		WHERE s.active = true
		RETURN s.uuid AS uuid
		LIMIT 1
	`

	SaveSourceQuery = `
		MERGE (s:Source {uuid: $uuid})
		SET s.code = $code,
			s.source_type = $source_type,
			s.reliability = $reliability,
			s.data = $data,
			s.active = $active,
			s.created_at = coalesce(s.created_at, $created_at)
		RETURN s.uuid AS uuid
	`
)
