package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/dossier/internal/store"
)

type QueryCall struct {
	Query  string
	Params map[string]interface{}
}

// MockDriver returns a scripted result per query constant and can fail a
// specific call of a query to exercise partial-failure paths.
type MockDriver struct {
	Results    map[string]neo4j.EagerResult
	Errs       map[string]error
	FailOnCall map[string]int // query -> nth call (1-based) that fails

	Calls  []QueryCall
	counts map[string]int
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Calls = append(m.Calls, QueryCall{Query: query, Params: params})

	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[query]++

	if err := m.Errs[query]; err != nil {
		return neo4j.EagerResult{}, err
	}
	if n, ok := m.FailOnCall[query]; ok && m.counts[query] == n {
		return neo4j.EagerResult{}, fmt.Errorf("simulated failure on call %d", n)
	}
	return m.Results[query], nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

func (m *MockDriver) CallCount(query string) int {
	return m.counts[query]
}

func uuidResult(id string) neo4j.EagerResult {
	return neo4j.EagerResult{
		Records: []*neo4j.Record{{
			Keys:   []string{"uuid"},
			Values: []interface{}{id},
		}},
	}
}

func dataResult(data string) neo4j.EagerResult {
	return neo4j.EagerResult{
		Records: []*neo4j.Record{{
			Keys:   []string{"data"},
			Values: []interface{}{data},
		}},
	}
}

func identifierResult(id, value string) neo4j.EagerResult {
	return neo4j.EagerResult{
		Records: []*neo4j.Record{{
			Keys:   []string{"uuid", "value"},
			Values: []interface{}{id, value},
		}},
	}
}

// newTestSyncer wires a syncer with sequential ids and a fixed clock. The
// source lookup succeeds by default so most tests need no source scripting.
func newTestSyncer(driver *MockDriver) *Syncer {
	if driver.Results == nil {
		driver.Results = make(map[string]neo4j.EagerResult)
	}
	if _, ok := driver.Results[store.GetSourceByCodeQuery]; !ok {
		driver.Results[store.GetSourceByCodeQuery] = uuidResult("src-1")
	}

	s := NewSyncer(driver, "user-1")
	n := 0
	s.UUIDGenerator = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s.Now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return s
}
