// Package store persists memories into per-project SQLite partitions and
// implements search, timeline, and maintenance over them.
package store

import (
	"database/sql"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/memkeep/memkeep/internal/memerr"
)

// identPattern is the allow-list for project and agent identifiers.
var identPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidIdent reports whether s is an acceptable project or agent id.
func ValidIdent(s string) bool {
	return identPattern.MatchString(s)
}

// Manager maps project names to storage partitions under a root data
// directory. Partitions are created lazily on first write and never
// deleted automatically.
type Manager struct {
	root string
}

// NewManager returns a Manager rooted at dir. The directory itself is
// created on first partition open, not here.
func NewManager(dir string) *Manager {
	return &Manager{root: dir}
}

// Root returns the data directory the manager operates on.
func (m *Manager) Root() string {
	return m.root
}

// Partition is a single project's storage unit. It wraps a short-lived
// database handle: acquire with Manager.Open, use for one logical
// operation, and Close on every exit path.
type Partition struct {
	project string
	db      *sql.DB
	entropy *rand.Rand
}

// Open validates the project name and opens (creating if absent) its
// partition. Directory creation and schema migration are idempotent, so
// two concurrent first-writers to a new project converge on the same
// valid partition.
func (m *Manager) Open(project string) (*Partition, error) {
	if !ValidIdent(project) {
		return nil, errors.Wrapf(memerr.ErrValidation, "invalid project %q", project)
	}

	dir := filepath.Join(m.root, project)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "create partition dir: %v", err)
	}

	dbPath := filepath.Join(dir, "memories.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrapf(memerr.ErrStorage, "open partition: %v", err)
	}

	p := &Partition{
		project: project,
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := p.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrapf(memerr.ErrStorage, "migrate partition: %v", err)
	}

	return p, nil
}

// Projects lists all project names with an existing partition, in
// directory order.
func (m *Manager) Projects() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(memerr.ErrStorage, "read data dir: %v", err)
	}

	var projects []string
	for _, e := range entries {
		if !e.IsDir() || !ValidIdent(e.Name()) {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.root, e.Name(), "memories.db")); err == nil {
			projects = append(projects, e.Name())
		}
	}
	return projects, nil
}

// Project returns the partition's project name.
func (p *Partition) Project() string {
	return p.project
}

// Close releases the partition handle.
func (p *Partition) Close() error {
	return p.db.Close()
}

func (p *Partition) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
}

func (p *Partition) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		agent_id    TEXT NOT NULL,
		content     TEXT NOT NULL,
		iv          TEXT,
		encrypted   INTEGER NOT NULL DEFAULT 0,
		type        TEXT NOT NULL,
		importance  INTEGER NOT NULL,
		keywords    TEXT,
		meta        TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT,
		deleted_at  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_deleted ON memories(deleted_at);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(type);
	CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance);

	CREATE TABLE IF NOT EXISTS blind_indexes (
		memory_id  TEXT NOT NULL REFERENCES memories(id),
		token      TEXT NOT NULL,
		PRIMARY KEY (memory_id, token)
	);
	CREATE INDEX IF NOT EXISTS idx_blind_token ON blind_indexes(token);
	`
	_, err := p.db.Exec(schema)
	return err
}
