package store

import (
	"context"
	"os"
	"path/filepath"
)

// PartitionStats holds per-project counts.
type PartitionStats struct {
	Project   string `json:"project"`
	SizeBytes int64  `json:"size_bytes"`
	Total     int    `json:"total"`
	Active    int    `json:"active"`
	Encrypted int    `json:"encrypted"`
}

// Stats aggregates counts across all known partitions.
type Stats struct {
	Root       string           `json:"root"`
	Partitions []PartitionStats `json:"partitions"`
}

// Stats returns counts for every known partition.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	projects, err := m.Projects()
	if err != nil {
		return nil, err
	}

	st := &Stats{Root: m.root}
	for _, project := range projects {
		p, err := m.Open(project)
		if err != nil {
			return nil, err
		}

		ps := PartitionStats{Project: project}
		if info, err := os.Stat(filepath.Join(m.root, project, "memories.db")); err == nil {
			ps.SizeBytes = info.Size()
		}
		p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&ps.Total)
		p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE deleted_at IS NULL`).Scan(&ps.Active)
		p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE encrypted = 1`).Scan(&ps.Encrypted)
		p.Close()

		st.Partitions = append(st.Partitions, ps)
	}
	return st, nil
}
