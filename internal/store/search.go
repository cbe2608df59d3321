package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/memkeep/memkeep/internal/keywords"
	"github.com/memkeep/memkeep/internal/memerr"
	"github.com/memkeep/memkeep/internal/model"
)

const (
	// MaxQueryLimit caps the result count a single query may request.
	MaxQueryLimit = 100

	// DefaultQueryLimit applies when no limit is given.
	DefaultQueryLimit = 10

	// DefaultWindowDays is the default recency window for queries.
	DefaultWindowDays = 30

	// crossPartitionSubLimit bounds how many results each partition
	// contributes to a cross-project query before the merge.
	crossPartitionSubLimit = 10
)

// QueryParams holds parameters for a relevance-ranked search.
type QueryParams struct {
	Query         string
	AgentID       string            // optional filter
	Type          model.ContentType // optional filter
	MinImportance int
	Limit         int
	WindowDays    int
}

// Result is a memory scored against the query.
type Result struct {
	model.Memory
	Relevance float64 `json:"relevance"`
}

// Query ranks the partition's memories against a free-text query.
// Relevance is the fraction of query keywords that match a stored
// keyword by bidirectional substring containment. A query with no
// extractable keywords matches every candidate with relevance 1.
// Results are ordered by relevance x importance, newest first on ties.
func (p *Partition) Query(ctx context.Context, params QueryParams) ([]Result, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	candidates, err := p.fetchCandidates(ctx, params)
	if err != nil {
		return nil, err
	}

	qkws := keywords.Extract(params.Query)

	results := []Result{}
	for _, m := range candidates {
		rel := relevance(qkws, m.Metadata.Keywords)
		if rel == 0 && len(qkws) > 0 {
			continue
		}
		results = append(results, Result{Memory: m, Relevance: rel})
	}

	sort.SliceStable(results, func(i, j int) bool {
		si := results[i].Relevance * float64(results[i].Importance)
		sj := results[j].Relevance * float64(results[j].Importance)
		if si != sj {
			return si > sj
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// QueryAll runs the query independently against every known partition,
// each capped at a small sub-limit, then merges by importance (newest
// first on ties). Relevance is not recombined across partitions.
func (m *Manager) QueryAll(ctx context.Context, params QueryParams) ([]Result, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	projects, err := m.Projects()
	if err != nil {
		return nil, err
	}

	sub := params
	sub.Limit = crossPartitionSubLimit

	merged := []Result{}
	for _, project := range projects {
		p, err := m.Open(project)
		if err != nil {
			return nil, err
		}
		results, err := p.Query(ctx, sub)
		p.Close()
		if err != nil {
			return nil, err
		}
		merged = append(merged, results...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Importance != merged[j].Importance {
			return merged[i].Importance > merged[j].Importance
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// fetchCandidates pulls non-deleted plaintext memories within the
// recency window that pass the structural filters.
func (p *Partition) fetchCandidates(ctx context.Context, params QueryParams) ([]model.Memory, error) {
	days := params.WindowDays
	if days <= 0 {
		days = DefaultWindowDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	where := []string{"deleted_at IS NULL", "encrypted = 0", "created_at >= ?"}
	args := []interface{}{cutoff}

	if params.MinImportance > 0 {
		where = append(where, "importance >= ?")
		args = append(args, params.MinImportance)
	}
	if params.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, params.AgentID)
	}
	if params.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(params.Type))
	}

	query := fmt.Sprintf(`
		SELECT id, agent_id, content, iv, encrypted, type, importance, keywords, meta, created_at, updated_at, deleted_at
		FROM memories WHERE %s
		ORDER BY created_at DESC`, strings.Join(where, " AND "))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "query memories: %v", err)
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		m, err := p.scanMemory(rows)
		if err != nil {
			return nil, errors.Wrapf(memerr.ErrStorage, "scan memory: %v", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// relevance is the fraction of query keywords found among the stored
// keywords, where "found" means either keyword contains the other.
func relevance(queryKws, storedKws []string) float64 {
	if len(queryKws) == 0 {
		return 1
	}

	matched := 0
	for _, qk := range queryKws {
		for _, sk := range storedKws {
			if strings.Contains(qk, sk) || strings.Contains(sk, qk) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(queryKws))
}
