// Package core wires extraction, person resolution and store sync into one
// pipeline. A note goes in; a classified extraction with resolutions, sync
// results and any pending clarifications comes out.
package core

import (
	"context"
	"fmt"
	"log"

	"github.com/agenthands/dossier/internal/config"
	"github.com/agenthands/dossier/internal/core/extraction"
	"github.com/agenthands/dossier/internal/core/model"
	"github.com/agenthands/dossier/internal/core/resolver"
	syncpkg "github.com/agenthands/dossier/internal/core/sync"
	"github.com/agenthands/dossier/internal/llm"
	"github.com/agenthands/dossier/internal/store"
)

type Dossier struct {
	Driver    store.GraphDriver
	LLM       llm.LLMClient
	Extractor *extraction.Extractor
	Resolver  *resolver.Service
	Syncer    *syncpkg.Syncer
}

func NewDossier(driver store.GraphDriver, llmClient llm.LLMClient, cfg *config.Config, userID string) *Dossier {
	return &Dossier{
		Driver:    driver,
		LLM:       llmClient,
		Extractor: extraction.NewExtractor(llmClient, cfg.Extraction),
		Resolver:  resolver.NewService(driver, cfg.Resolution),
		Syncer:    syncpkg.NewSyncer(driver, userID),
	}
}

func (d *Dossier) BuildIndices(ctx context.Context) error {
	return d.Driver.BuildIndices(ctx)
}

// ProcessNote runs the full pipeline for one note: extract, classify, resolve
// every person reference against the known persons, and (when syncToStore is
// set) merge the batch into the record store. Resolution failures on a single
// reference do not abort the note; the reference falls back to new-entity so
// sync still has a decision for it.
func (d *Dossier) ProcessNote(ctx context.Context, text, noteContext, sourceCode string, session []model.SessionEntity, syncToStore bool) (*model.ClassifiedExtraction, error) {
	extracted, err := d.Extractor.Extract(ctx, text, noteContext)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	result := &model.ClassifiedExtraction{
		Classification: extracted.Classify(),
		ChainOfThought: model.SummarizeReasoning(extracted.Reasoning),
		Extraction:     *extracted,
	}

	resolutions, err := d.ResolveReferences(ctx, extracted, session)
	if err != nil {
		return nil, err
	}
	result.Resolutions = resolutions
	result.Clarifications = resolver.Clarifications(resolutions)

	if syncToStore {
		result.SyncResults = d.Syncer.SyncExtraction(ctx, extracted, sourceCode, resolutions)
	}

	return result, nil
}

// ResolveReferences resolves every distinct person reference in the bundle
// against one shared context loaded in a single store round trip.
func (d *Dossier) ResolveReferences(ctx context.Context, extracted *model.IntelligenceExtraction, session []model.SessionEntity) ([]model.ResolutionResult, error) {
	references := extracted.PersonReferences()
	if len(references) == 0 {
		return nil, nil
	}

	rc, err := d.Resolver.BuildContext(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to build resolution context: %w", err)
	}

	results := make([]model.ResolutionResult, 0, len(references))
	for _, ref := range references {
		r, err := d.Resolver.Resolve(ref, rc)
		if err != nil {
			log.Printf("Resolution failed for '%s', treating as new entity: %v", ref, err)
			r = model.NewUnresolvedResult(ref,
				fmt.Sprintf("Resolution failed for '%s'; treating as new entity.", ref),
				&model.MatchDetails{})
		}
		results = append(results, r)
	}
	return results, nil
}
