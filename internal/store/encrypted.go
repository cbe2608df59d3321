package store

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"

	"github.com/memkeep/memkeep/internal/memerr"
	"github.com/memkeep/memkeep/internal/model"
)

// EncryptedPutParams holds a sealed memory and its blind-index tokens.
// The caller encrypts and derives tokens; the store never sees the
// plaintext or the keys.
type EncryptedPutParams struct {
	Blob       []byte // ciphertext with trailing auth tag
	IV         []byte
	Tokens     []string
	AgentID    string
	Type       model.ContentType
	Importance int
	Metadata   model.Metadata
}

// PutEncrypted stores a sealed memory plus one blind-index row per
// token. Validation matches Put except content bounds apply to the
// ciphertext blob.
func (p *Partition) PutEncrypted(ctx context.Context, params EncryptedPutParams) (*model.Memory, error) {
	if len(params.Blob) == 0 {
		return nil, errors.Wrap(memerr.ErrValidation, "ciphertext is empty")
	}
	if !ValidIdent(params.AgentID) {
		return nil, errors.Wrapf(memerr.ErrValidation, "invalid agent id %q", params.AgentID)
	}
	if !model.ValidTypes[params.Type] {
		return nil, errors.Wrapf(memerr.ErrValidation, "unknown content type %q", params.Type)
	}
	if params.Importance != 0 && (params.Importance < 1 || params.Importance > 10) {
		return nil, errors.Wrapf(memerr.ErrValidation, "importance %d out of range [1,10]", params.Importance)
	}

	now := time.Now().UTC()
	id := p.newID()

	importance := params.Importance
	if importance == 0 {
		importance = model.ClampImportance(typeWeight[params.Type])
	}

	content := base64.StdEncoding.EncodeToString(params.Blob)
	iv := base64.StdEncoding.EncodeToString(params.IV)

	meta := params.Metadata
	meta.Keywords = nil // plaintext keywords never persist for sealed rows
	metaJSON, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "begin encrypted put: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (id, agent_id, content, iv, encrypted, type, importance, keywords, meta, created_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?, '[]', ?, ?)`,
		id, params.AgentID, content, iv, string(params.Type), importance,
		metaJSON, now.Format(time.RFC3339))
	if err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "insert encrypted memory: %v", err)
	}

	for _, token := range params.Tokens {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO blind_indexes (memory_id, token) VALUES (?, ?)`,
			id, token)
		if err != nil {
			return nil, errors.Wrapf(memerr.ErrStorage, "insert blind index: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "commit encrypted put: %v", err)
	}

	return &model.Memory{
		ID:         id,
		AgentID:    params.AgentID,
		Project:    p.project,
		Content:    content,
		IV:         iv,
		Encrypted:  true,
		Type:       params.Type,
		Importance: importance,
		Metadata:   meta,
		CreatedAt:  now,
	}, nil
}

// QueryEncrypted returns non-deleted sealed memories whose blind-index
// rows contain token, ordered by importance then recency. Blind matching
// is boolean, so no relevance score applies.
func (p *Partition) QueryEncrypted(ctx context.Context, token string, limit int) ([]model.Memory, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT m.id, m.agent_id, m.content, m.iv, m.encrypted, m.type, m.importance, m.keywords, m.meta, m.created_at, m.updated_at, m.deleted_at
		 FROM memories m
		 INNER JOIN blind_indexes b ON b.memory_id = m.id
		 WHERE b.token = ? AND m.deleted_at IS NULL AND m.encrypted = 1
		 ORDER BY m.importance DESC, m.created_at DESC
		 LIMIT ?`, token, limit)
	if err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "query blind index: %v", err)
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

// DecodeSealed splits a stored encrypted row back into its raw blob and
// nonce for decryption.
func DecodeSealed(m *model.Memory) (blob, iv []byte, err error) {
	if !m.Encrypted {
		return nil, nil, errors.Wrapf(memerr.ErrValidation, "memory %s is not encrypted", m.ID)
	}
	blob, err = base64.StdEncoding.DecodeString(m.Content)
	if err != nil {
		return nil, nil, errors.Wrapf(memerr.ErrStorage, "decode ciphertext: %v", err)
	}
	iv, err = base64.StdEncoding.DecodeString(m.IV)
	if err != nil {
		return nil, nil, errors.Wrapf(memerr.ErrStorage, "decode iv: %v", err)
	}
	return blob, iv, nil
}
