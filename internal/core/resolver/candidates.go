package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agenthands/dossier/internal/core/model"
	"github.com/agenthands/dossier/internal/store"
)

// LoadCandidates reads every non-deleted person and its identifiers from the
// store and flattens them into candidates. One query per batch; the rows
// come back one per (person, identifier) pair and are grouped here.
func (s *Service) LoadCandidates(ctx context.Context) ([]model.PersonCandidate, error) {
	res, err := s.Driver.ExecuteQuery(ctx, store.GetPersonCandidatesQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load person candidates: %w", err)
	}

	byID := make(map[string]*model.PersonCandidate)
	var order []string

	for _, rec := range res.Records {
		uuidVal, _ := rec.Get("uuid")
		id, ok := uuidVal.(string)
		if !ok || id == "" {
			continue
		}

		person, seen := byID[id]
		if !seen {
			person = &model.PersonCandidate{ID: id}

			if dataVal, _ := rec.Get("data"); dataVal != nil {
				if dataStr, ok := dataVal.(string); ok && dataStr != "" {
					var data map[string]interface{}
					if err := json.Unmarshal([]byte(dataStr), &data); err == nil {
						person.Company, _ = data["company"].(string)
						person.Location, _ = data["location"].(string)
					}
				}
			}
			if updatedVal, _ := rec.Get("updated_at"); updatedVal != nil {
				if updatedStr, ok := updatedVal.(string); ok {
					if t, err := time.Parse(time.RFC3339, updatedStr); err == nil {
						person.UpdatedAt = t
					}
				}
			}

			byID[id] = person
			order = append(order, id)
		}

		idTypeVal, _ := rec.Get("id_type")
		idValueVal, _ := rec.Get("id_value")
		idType, _ := idTypeVal.(string)
		idValue, _ := idValueVal.(string)
		if idValue == "" {
			continue
		}

		switch model.IdentifierType(idType) {
		case model.IdentifierName:
			person.Names = append(person.Names, idValue)
		case model.IdentifierEmail:
			person.Emails = append(person.Emails, idValue)
		case model.IdentifierPhone:
			person.Phones = append(person.Phones, idValue)
		}
	}

	candidates := make([]model.PersonCandidate, 0, len(order))
	for _, id := range order {
		person := byID[id]
		// A person with no name alias cannot be matched by anything.
		if len(person.Names) == 0 {
			continue
		}
		candidates = append(candidates, *person)
	}
	return candidates, nil
}

// BuildContext takes the one store round trip of a resolution batch and
// returns the immutable context every reference in the batch resolves
// against.
func (s *Service) BuildContext(ctx context.Context, session []model.SessionEntity) (*model.ResolutionContext, error) {
	persons, err := s.LoadCandidates(ctx)
	if err != nil {
		return nil, err
	}

	return &model.ResolutionContext{
		Persons:                        persons,
		SessionEntities:                session,
		FuzzyFirstNameThreshold:        s.Config.FuzzyFirstNameThreshold,
		FuzzyLastNameThreshold:         s.Config.FuzzyLastNameThreshold,
		AutoResolveConfidenceThreshold: s.Config.AutoResolveConfidenceThreshold,
	}, nil
}
