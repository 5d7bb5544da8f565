// Package resolver decides whether a person reference from extracted text
// identifies exactly one known person, is ambiguous among several, or
// denotes someone new. The pipeline per reference is strict: exact match,
// then fuzzy match, then recency-based tie-break, then new entity. The
// first decisive step wins.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenthands/dossier/internal/config"
	"github.com/agenthands/dossier/internal/core/match"
	"github.com/agenthands/dossier/internal/core/model"
	"github.com/agenthands/dossier/internal/store"
)

// Confidence weights, fixed and summing to 1.0. Every resolution path runs
// the same formula so confidence values stay comparable across methods.
const (
	exactWeight   = 0.5
	fuzzyWeight   = 0.3
	contextWeight = 0.2

	// Context token recorded when a tie was broken by session recency.
	contextRecentMention = "recent_mention"

	recentMentionLimit = 5
)

type Service struct {
	Driver store.GraphDriver
	Config config.ResolutionConfig
}

func NewService(driver store.GraphDriver, cfg config.ResolutionConfig) *Service {
	return &Service{
		Driver: driver,
		Config: cfg,
	}
}

// Score computes the weighted confidence for a resolution: 0.5 for an exact
// match, 0.3 scaled by the fuzzy similarity, 0.2 when a contextual attribute
// matched. Clamped to [0,1].
func Score(exactMatch bool, fuzzyScore float64, contextMatch string) float64 {
	exactScore := 0.0
	if exactMatch {
		exactScore = 1.0
	}
	contextScore := 0.0
	if contextMatch != "" {
		contextScore = 1.0
	}

	confidence := exactWeight*exactScore + fuzzyWeight*fuzzyScore + contextWeight*contextScore

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// ExactMatches returns every candidate with at least one alias equal to the
// reference after trimming and case folding. A candidate appears at most
// once even when several of its aliases match.
func ExactMatches(reference string, persons []model.PersonCandidate) []model.PersonCandidate {
	ref := strings.ToLower(strings.TrimSpace(reference))

	var matches []model.PersonCandidate
	for _, person := range persons {
		for _, name := range person.Names {
			if strings.ToLower(strings.TrimSpace(name)) == ref {
				matches = append(matches, person)
				break
			}
		}
	}
	return matches
}

// FuzzyMatch pairs a candidate with its best similarity score.
type FuzzyMatch struct {
	Person model.PersonCandidate
	Score  float64
}

// FuzzyMatches scores every candidate against the reference and keeps those
// at or above threshold, sorted by score descending.
//
// A multi-token reference is compared against multi-token aliases only:
// "John Smith" must never collapse onto a bare "Jonathan". A single-token
// reference is compared against both each alias's first token and the whole
// alias.
func FuzzyMatches(reference string, persons []model.PersonCandidate, threshold float64) []FuzzyMatch {
	ref := strings.ToLower(strings.TrimSpace(reference))
	isFullNameRef := len(strings.Fields(ref)) >= 2

	var matches []FuzzyMatch
	for _, person := range persons {
		best := 0.0

		for _, name := range person.Names {
			nameLower := strings.ToLower(strings.TrimSpace(name))

			if isFullNameRef {
				if len(strings.Fields(nameLower)) >= 2 {
					best = max(best, match.Similarity(ref, nameLower))
				}
				// Single-token aliases are skipped entirely for full-name
				// references.
			} else {
				best = max(best,
					match.Similarity(ref, match.FirstToken(nameLower)),
					match.Similarity(ref, nameLower))
			}
		}

		if best >= threshold {
			matches = append(matches, FuzzyMatch{Person: person, Score: best})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Resolve runs the resolution pipeline for one reference against the shared
// context. It never returns an error for input it can classify; "no match"
// is a normal outcome, and the error return only fires on construction-time
// invariant violations.
func (s *Service) Resolve(reference string, rc *model.ResolutionContext) (model.ResolutionResult, error) {
	// Step 1: exact match.
	exact := ExactMatches(reference, rc.Persons)

	if len(exact) == 1 {
		person := exact[0]
		// An exact match trivially has full string similarity.
		confidence := Score(true, 1.0, "")
		reasoning := fmt.Sprintf(
			"Found exact match for '%s' -> %s (only person with this name). Confidence: %.2f",
			reference, person.PrimaryName(), confidence)
		return model.NewResolvedResult(reference, person.ID, confidence, model.MethodExactMatch, reasoning, &model.MatchDetails{
			ExactMatch:     true,
			BestFuzzyScore: 1.0,
			MatchCount:     1,
		})
	}

	if len(exact) > 1 {
		names := make([]string, 0, len(exact))
		for _, p := range exact {
			names = append(names, p.PrimaryName())
		}
		reasoning := fmt.Sprintf(
			"Multiple exact matches found for '%s': %s. Requires clarification (ambiguous reference).",
			reference, strings.Join(names, ", "))
		return model.NewAmbiguousResult(reference, summarize(exact, nil), reasoning, &model.MatchDetails{
			ExactMatch: true,
			MatchCount: len(exact),
		})
	}

	// Step 2: fuzzy match.
	fuzzy := FuzzyMatches(reference, rc.Persons, rc.FuzzyFirstNameThreshold)

	if len(fuzzy) == 1 {
		m := fuzzy[0]
		confidence := Score(false, m.Score, "")
		reasoning := fmt.Sprintf(
			"Fuzzy matched '%s' to '%s' (similarity: %.2f). Confidence: %.2f. Only match above threshold (%.2f).",
			reference, m.Person.PrimaryName(), m.Score, confidence, rc.FuzzyFirstNameThreshold)
		return model.NewResolvedResult(reference, m.Person.ID, confidence, model.MethodFuzzyMatch, reasoning, &model.MatchDetails{
			BestFuzzyScore: m.Score,
			MatchCount:     1,
		})
	}

	if len(fuzzy) > 1 {
		// Equal scores never yield an arbitrary single winner; the only
		// tie-break is session recency, and only when it is unambiguous.
		if m, ok := recentMentionPick(fuzzy, rc); ok {
			confidence := Score(false, m.Score, contextRecentMention)
			reasoning := fmt.Sprintf(
				"Resolved '%s' to '%s' via recent-mention context (similarity: %.2f). Confidence: %.2f.",
				reference, m.Person.PrimaryName(), m.Score, confidence)
			return model.NewResolvedResult(reference, m.Person.ID, confidence, model.MethodContextualMatch, reasoning, &model.MatchDetails{
				BestFuzzyScore: m.Score,
				MatchCount:     len(fuzzy),
				ContextMatch:   contextRecentMention,
			})
		}

		top := fuzzy
		if len(top) > 3 {
			top = top[:3]
		}
		pairs := make([]string, 0, len(top))
		for _, m := range top {
			pairs = append(pairs, fmt.Sprintf("%s (%.2f)", m.Person.PrimaryName(), m.Score))
		}
		reasoning := fmt.Sprintf(
			"Multiple fuzzy matches found for '%s': %s. Requires clarification.",
			reference, strings.Join(pairs, ", "))

		persons := make([]model.PersonCandidate, 0, len(fuzzy))
		scores := make([]float64, 0, len(fuzzy))
		for _, m := range fuzzy {
			persons = append(persons, m.Person)
			scores = append(scores, m.Score)
		}
		return model.NewAmbiguousResult(reference, summarize(persons, scores), reasoning, &model.MatchDetails{
			BestFuzzyScore: fuzzy[0].Score,
			MatchCount:     len(fuzzy),
		})
	}

	// Step 3: no match.
	reasoning := fmt.Sprintf(
		"No existing person matches '%s'. Checked %d persons with exact and fuzzy matching. Will create new entity.",
		reference, len(rc.Persons))
	return model.NewUnresolvedResult(reference, reasoning, &model.MatchDetails{MatchCount: 0}), nil
}

// recentMentionPick returns the single fuzzy match that is among the
// session's recently mentioned entities, when exactly one is.
func recentMentionPick(fuzzy []FuzzyMatch, rc *model.ResolutionContext) (FuzzyMatch, bool) {
	recent := make(map[string]bool)
	for _, id := range rc.RecentlyMentioned(recentMentionLimit) {
		recent[id] = true
	}

	var picked FuzzyMatch
	found := 0
	for _, m := range fuzzy {
		if recent[m.Person.ID] {
			picked = m
			found++
		}
	}
	return picked, found == 1
}

// summarize builds candidate summaries: id, primary name, company, first
// email, and the similarity score when scores are given (parallel to
// persons).
func summarize(persons []model.PersonCandidate, scores []float64) []model.CandidateSummary {
	summaries := make([]model.CandidateSummary, 0, len(persons))
	for i, p := range persons {
		c := model.CandidateSummary{
			ID:      p.ID,
			Name:    p.PrimaryName(),
			Company: p.Company,
		}
		if len(p.Emails) > 0 {
			c.Email = p.Emails[0]
		}
		if scores != nil {
			c.Similarity = scores[i]
		}
		summaries = append(summaries, c)
	}
	return summaries
}

// Clarifications turns the ambiguous results of a batch into clarification
// requests for the caller to surface to the user.
func Clarifications(results []model.ResolutionResult) []model.Clarification {
	var out []model.Clarification
	for _, r := range results {
		if !r.Ambiguous {
			continue
		}

		opts := make([]model.ClarificationOption, 0, len(r.Candidates))
		for _, c := range r.Candidates {
			var parts []string
			if c.Company != "" {
				parts = append(parts, c.Company)
			}
			if c.Email != "" {
				parts = append(parts, c.Email)
			}
			context := strings.Join(parts, ", ")
			if context == "" {
				context = "no additional context"
			}
			opts = append(opts, model.ClarificationOption{
				EntityID: c.ID,
				Name:     c.Name,
				Context:  context,
			})
		}

		out = append(out, model.Clarification{
			Reference: r.InputReference,
			Options:   opts,
		})
	}
	return out
}
