package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/memkeep/memkeep/internal/keywords"
	"github.com/memkeep/memkeep/internal/memerr"
	"github.com/memkeep/memkeep/internal/model"
)

// PutParams holds parameters for storing a memory. Importance 0 means
// unset; a heuristic default is computed from content length and type.
type PutParams struct {
	Content    string
	AgentID    string
	Type       model.ContentType
	Importance int
	Metadata   model.Metadata
}

// typeWeight is the base importance per content type. Higher-stakes
// types start higher; the length bonus in defaultImportance keeps the
// heuristic monotonic in both inputs.
var typeWeight = map[model.ContentType]int{
	model.TypeSecurity:     7,
	model.TypeGoal:         6,
	model.TypeInsight:      6,
	model.TypeDecision:     5,
	model.TypeError:        5,
	model.TypeMilestone:    5,
	model.TypePreference:   4,
	model.TypeConversation: 3,
}

func defaultImportance(content string, t model.ContentType) int {
	bonus := len(content) / 1000
	if bonus > 3 {
		bonus = 3
	}
	return model.ClampImportance(typeWeight[t] + bonus)
}

func validatePut(p PutParams) error {
	if p.Content == "" {
		return errors.Wrap(memerr.ErrValidation, "content is empty")
	}
	if utf8.RuneCountInString(p.Content) > model.MaxContentLength {
		return errors.Wrapf(memerr.ErrValidation, "content exceeds %d characters", model.MaxContentLength)
	}
	if !ValidIdent(p.AgentID) {
		return errors.Wrapf(memerr.ErrValidation, "invalid agent id %q", p.AgentID)
	}
	if !model.ValidTypes[p.Type] {
		return errors.Wrapf(memerr.ErrValidation, "unknown content type %q", p.Type)
	}
	if p.Importance != 0 && (p.Importance < 1 || p.Importance > 10) {
		return errors.Wrapf(memerr.ErrValidation, "importance %d out of range [1,10]", p.Importance)
	}
	return nil
}

// Put stores a memory in the partition. Keywords are extracted from the
// content and stored alongside it for search. Two identical Put calls
// produce two distinct records.
func (p *Partition) Put(ctx context.Context, params PutParams) (*model.Memory, error) {
	if err := validatePut(params); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	id := p.newID()

	importance := params.Importance
	if importance == 0 {
		importance = defaultImportance(params.Content, params.Type)
	}

	meta := params.Metadata
	meta.Keywords = keywords.Extract(params.Content)

	kwJSON, _ := json.Marshal(meta.Keywords)
	metaJSON, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO memories (id, agent_id, content, encrypted, type, importance, keywords, meta, created_at)
		 VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		id, params.AgentID, params.Content, string(params.Type), importance,
		string(kwJSON), metaJSON, now.Format(time.RFC3339))
	if err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "insert memory: %v", err)
	}

	return &model.Memory{
		ID:         id,
		AgentID:    params.AgentID,
		Project:    p.project,
		Content:    params.Content,
		Type:       params.Type,
		Importance: importance,
		Metadata:   meta,
		CreatedAt:  now,
	}, nil
}

// Get retrieves a single memory by id, including soft-deleted ones.
func (p *Partition) Get(ctx context.Context, id string) (*model.Memory, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, agent_id, content, iv, encrypted, type, importance, keywords, meta, created_at, updated_at, deleted_at
		 FROM memories WHERE id = ?`, id)

	m, err := p.scanMemory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(memerr.ErrNotFound, "memory %s", id)
		}
		return nil, errors.Wrapf(memerr.ErrStorage, "get memory: %v", err)
	}
	return &m, nil
}

// Delete soft-deletes a memory so it no longer appears in query or
// timeline results.
func (p *Partition) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE memories SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return errors.Wrapf(memerr.ErrStorage, "delete memory: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(memerr.ErrNotFound, "memory %s", id)
	}
	return nil
}

// encodeMeta serializes metadata without the keywords, which live in
// their own column.
func encodeMeta(meta model.Metadata) (string, error) {
	meta.Keywords = nil
	b, err := json.Marshal(meta)
	if err != nil {
		return "", errors.Wrapf(memerr.ErrValidation, "encode metadata: %v", err)
	}
	return string(b), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (p *Partition) scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var iv, kwJSON, metaJSON, updatedAt, deletedAt sql.NullString
	var encrypted int
	var typ, createdAt string

	err := row.Scan(&m.ID, &m.AgentID, &m.Content, &iv, &encrypted, &typ,
		&m.Importance, &kwJSON, &metaJSON, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return m, err
	}

	m.Project = p.project
	m.Type = model.ContentType(typ)
	m.Encrypted = encrypted != 0
	if iv.Valid {
		m.IV = iv.String
	}
	if metaJSON.Valid && metaJSON.String != "" {
		json.Unmarshal([]byte(metaJSON.String), &m.Metadata)
	}
	if kwJSON.Valid && kwJSON.String != "" {
		json.Unmarshal([]byte(kwJSON.String), &m.Metadata.Keywords)
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if updatedAt.Valid {
		t, _ := time.Parse(time.RFC3339, updatedAt.String)
		m.UpdatedAt = &t
	}
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339, deletedAt.String)
		m.DeletedAt = &t
	}

	return m, nil
}
