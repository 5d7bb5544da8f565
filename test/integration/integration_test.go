//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/dossier/internal/config"
	"github.com/agenthands/dossier/internal/core"
	"github.com/agenthands/dossier/internal/core/model"
	"github.com/agenthands/dossier/internal/core/resolver"
	syncpkg "github.com/agenthands/dossier/internal/core/sync"
	"github.com/agenthands/dossier/internal/llm"
	"github.com/agenthands/dossier/internal/store"
)

func memgraphDriver(t *testing.T) *store.MemgraphDriver {
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("Skipping integration test: MEMGRAPH_URI not set")
	}

	d, err := store.NewMemgraphDriver(uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"))
	require.NoError(t, err)
	return d
}

func cleanup(t *testing.T, d *store.MemgraphDriver, userID string) {
	cypher := `MATCH (n {user_id: $uid}) DETACH DELETE n`
	_, _ = d.ExecuteQuery(context.Background(), cypher, map[string]interface{}{"uid": userID})
}

// TestResolutionFlow seeds persons through the syncer and resolves references
// against them. Driver only, no LLM required.
func TestResolutionFlow(t *testing.T) {
	d := memgraphDriver(t)
	ctx := context.Background()
	defer d.Close(ctx)

	require.NoError(t, d.BuildIndices(ctx))

	userID := fmt.Sprintf("test-user-%s", uuid.New().String())
	defer cleanup(t, d, userID)

	syncer := syncpkg.NewSyncer(d, userID)
	extraction := &model.IntelligenceExtraction{
		Entities: []model.EntityExtraction{
			{Name: "John Smith", EntityType: model.EntityPerson, Confidence: model.ConfidenceHigh,
				Attributes: map[string]interface{}{"company": "Acme"}},
			{Name: "Sarah Connor", EntityType: model.EntityPerson, Confidence: model.ConfidenceHigh},
		},
	}
	results := syncer.SyncExtraction(ctx, extraction, "TEST", nil)
	require.Empty(t, results.Errors)
	require.Len(t, results.EntitiesCreated, 2)

	svc := resolver.NewService(d, config.Default().Resolution)
	rc, err := svc.BuildContext(ctx, nil)
	require.NoError(t, err)

	// Exact match.
	r, err := svc.Resolve("John Smith", rc)
	require.NoError(t, err)
	assert.True(t, r.Resolved)
	assert.Equal(t, model.MethodExactMatch, r.Method)

	// Fuzzy first-name match.
	r, err = svc.Resolve("Jon", rc)
	require.NoError(t, err)
	assert.True(t, r.Resolved)
	assert.Equal(t, model.MethodFuzzyMatch, r.Method)

	// Unknown reference.
	r, err = svc.Resolve("Zara Quinn", rc)
	require.NoError(t, err)
	assert.Equal(t, model.MethodNewEntity, r.Method)
}

// TestSyncIdempotence runs the same extraction twice and verifies the second
// pass updates instead of duplicating.
func TestSyncIdempotence(t *testing.T) {
	d := memgraphDriver(t)
	ctx := context.Background()
	defer d.Close(ctx)

	require.NoError(t, d.BuildIndices(ctx))

	userID := fmt.Sprintf("test-user-%s", uuid.New().String())
	defer cleanup(t, d, userID)

	syncer := syncpkg.NewSyncer(d, userID)
	extraction := &model.IntelligenceExtraction{
		Entities: []model.EntityExtraction{
			{Name: "John Smith", EntityType: model.EntityPerson, Confidence: model.ConfidenceHigh},
			{Name: "Sarah Connor", EntityType: model.EntityPerson, Confidence: model.ConfidenceHigh},
		},
		Relations: []model.RelationExtraction{
			{SourceEntityName: "John Smith", TargetEntityName: "Sarah Connor",
				RelationType: model.RelationColleague, Strength: 5, Confidence: model.ConfidenceMedium},
		},
	}

	first := syncer.SyncExtraction(ctx, extraction, "TEST", nil)
	require.Empty(t, first.Errors)
	assert.Len(t, first.EntitiesCreated, 2)
	require.Len(t, first.RelationsCreated, 1)
	assert.True(t, first.RelationsCreated[0].Created)

	second := syncer.SyncExtraction(ctx, extraction, "TEST", nil)
	require.Empty(t, second.Errors)
	assert.Empty(t, second.EntitiesCreated, "second pass must not duplicate entities")
	assert.Len(t, second.EntitiesUpdated, 2)
	require.Len(t, second.RelationsCreated, 1)
	assert.False(t, second.RelationsCreated[0].Created, "existing relation is a no-op")
}

// TestFullPipeline drives a real LLM end to end. Needs both MEMGRAPH_URI and
// an LLM provider configured.
func TestFullPipeline(t *testing.T) {
	d := memgraphDriver(t)
	ctx := context.Background()
	defer d.Close(ctx)

	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		t.Skip("Skipping full pipeline test: LLM_PROVIDER not set")
	}

	llmCfg := config.LLMConfig{
		Provider: provider,
		Model:    os.Getenv("LLM_MODEL"),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
		APIKey:   os.Getenv("LLM_API_KEY"),
	}
	llmClient, err := llm.NewClient(ctx, llmCfg)
	require.NoError(t, err)

	require.NoError(t, d.BuildIndices(ctx))

	userID := fmt.Sprintf("test-user-%s", uuid.New().String())
	defer cleanup(t, d, userID)

	cfg := config.Default()
	cfg.LLM = llmCfg

	dossier := core.NewDossier(d, llmClient, cfg, userID)

	note1 := "Met John Smith today, he is a software engineer at Acme Corp. His email is john.smith@acme.com."
	result1, err := dossier.ProcessNote(ctx, note1, "", "TEST", nil, true)
	require.NoError(t, err)
	require.NotNil(t, result1.SyncResults)
	assert.NotEmpty(t, result1.Extraction.Entities)
	t.Logf("Note 1: classification=%s entities=%d", result1.Classification, len(result1.Extraction.Entities))

	// The second note refers to John by first name; he should resolve to the
	// identity created by the first note.
	note2 := "Had coffee with John yesterday, he mentioned the Acme reorg."
	result2, err := dossier.ProcessNote(ctx, note2, "", "TEST", nil, true)
	require.NoError(t, err)

	foundJohn := false
	for _, r := range result2.Resolutions {
		t.Logf("Resolution: %s -> %s (%s, %.2f)", r.InputReference, r.ResolvedEntityID, r.Method, r.Confidence)
		if r.Resolved {
			foundJohn = true
		}
	}
	assert.True(t, foundJohn, "John should resolve to the existing identity")
}
