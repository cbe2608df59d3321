package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/memkeep/memkeep/internal/memerr"
	"github.com/memkeep/memkeep/internal/model"
)

// MaxTimelineDays caps the timeline recency window.
const MaxTimelineDays = 365

// TimelineParams holds parameters for chronological browsing.
type TimelineParams struct {
	AgentID    string // optional filter
	WindowDays int
}

// dateFormat keys timeline groups by UTC calendar date.
const dateFormat = "2006-01-02"

// Timeline groups the partition's non-deleted memories in the window by
// UTC calendar date. Dates without records are absent; within a date,
// memories are ordered newest first.
func (p *Partition) Timeline(ctx context.Context, params TimelineParams) (map[string][]model.Memory, error) {
	days := params.WindowDays
	if days <= 0 {
		days = DefaultWindowDays
	}
	if days > MaxTimelineDays {
		days = MaxTimelineDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	where := []string{"deleted_at IS NULL", "created_at >= ?"}
	args := []interface{}{cutoff}

	if params.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, params.AgentID)
	}

	query := fmt.Sprintf(`
		SELECT id, agent_id, content, iv, encrypted, type, importance, keywords, meta, created_at, updated_at, deleted_at
		FROM memories WHERE %s
		ORDER BY created_at DESC`, strings.Join(where, " AND "))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "query timeline: %v", err)
	}
	defer rows.Close()

	groups := map[string][]model.Memory{}
	for rows.Next() {
		m, err := p.scanMemory(rows)
		if err != nil {
			return nil, errors.Wrapf(memerr.ErrStorage, "scan memory: %v", err)
		}
		day := m.CreatedAt.UTC().Format(dateFormat)
		groups[day] = append(groups[day], m)
	}
	return groups, rows.Err()
}

// TimelineDates returns the group keys of a timeline result, newest
// date first.
func TimelineDates(groups map[string][]model.Memory) []string {
	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}
