package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/memkeep/memkeep/internal/memerr"
	"github.com/memkeep/memkeep/internal/model"
)

const (
	// CompressLength is the truncation target for aged content, in runes.
	CompressLength = 200

	// CompressBatch bounds how many records one Compress call touches.
	CompressBatch = 100
)

// Cleanup hard-deletes records older than olderThanDays whose importance
// is at most maxImportance, including soft-deleted ones, and returns the
// number removed. Blind-index rows of removed records go with them.
func (p *Partition) Cleanup(ctx context.Context, olderThanDays, maxImportance int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrapf(memerr.ErrStorage, "begin cleanup: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM blind_indexes WHERE memory_id IN
		 (SELECT id FROM memories WHERE created_at < ? AND importance <= ?)`,
		cutoff, maxImportance)
	if err != nil {
		return 0, errors.Wrapf(memerr.ErrStorage, "cleanup blind indexes: %v", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM memories WHERE created_at < ? AND importance <= ?`,
		cutoff, maxImportance)
	if err != nil {
		return 0, errors.Wrapf(memerr.ErrStorage, "cleanup memories: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrapf(memerr.ErrStorage, "commit cleanup: %v", err)
	}

	n, _ := res.RowsAffected()
	return int(n), nil
}

// Compress truncates the content of aged plaintext records to
// CompressLength plus an ellipsis, flagging each visited record so it is
// never processed twice. At most CompressBatch records are examined per
// call. Returns the number of records actually truncated.
func (p *Partition) Compress(ctx context.Context, olderThanDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)

	rows, err := p.db.QueryContext(ctx,
		`SELECT id, agent_id, content, iv, encrypted, type, importance, keywords, meta, created_at, updated_at, deleted_at
		 FROM memories
		 WHERE deleted_at IS NULL AND encrypted = 0 AND created_at < ?
		   AND (meta IS NULL OR meta NOT LIKE '%"compressed":true%')
		 ORDER BY created_at ASC
		 LIMIT ?`, cutoff, CompressBatch)
	if err != nil {
		return 0, errors.Wrapf(memerr.ErrStorage, "select for compression: %v", err)
	}

	var batch []model.Memory
	for rows.Next() {
		m, err := p.scanMemory(rows)
		if err != nil {
			rows.Close()
			return 0, errors.Wrapf(memerr.ErrStorage, "scan memory: %v", err)
		}
		batch = append(batch, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, errors.Wrapf(memerr.ErrStorage, "select for compression: %v", err)
	}

	compressed := 0
	now := time.Now().UTC().Format(time.RFC3339)
	for _, m := range batch {
		runes := []rune(m.Content)

		meta := m.Metadata
		meta.Compressed = true
		meta.OriginalLength = len(runes)

		content := m.Content
		if len(runes) > CompressLength {
			content = string(runes[:CompressLength]) + "..."
			compressed++
		}

		metaJSON, err := encodeMeta(meta)
		if err != nil {
			return compressed, err
		}
		_, err = p.db.ExecContext(ctx,
			`UPDATE memories SET content = ?, meta = ?, updated_at = ? WHERE id = ?`,
			content, metaJSON, now, m.ID)
		if err != nil {
			return compressed, errors.Wrapf(memerr.ErrStorage, "compress memory %s: %v", m.ID, err)
		}
	}

	return compressed, nil
}
