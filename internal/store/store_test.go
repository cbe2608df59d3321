package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/memkeep/memkeep/internal/memerr"
	"github.com/memkeep/memkeep/internal/model"
)

func newTestPartition(t *testing.T) *Partition {
	t.Helper()
	mgr := NewManager(t.TempDir())
	p, err := mgr.Open("testproj")
	if err != nil {
		t.Fatalf("open partition: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

// backdate rewrites a record's creation time for age-sensitive tests.
func backdate(t *testing.T, p *Partition, id string, age time.Duration) {
	t.Helper()
	ts := time.Now().UTC().Add(-age).Format(time.RFC3339)
	if _, err := p.db.Exec(`UPDATE memories SET created_at = ? WHERE id = ?`, ts, id); err != nil {
		t.Fatalf("backdate: %v", err)
	}
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	p := newTestPartition(t)

	mem, err := p.Put(ctx, PutParams{
		Content: "the auth service rejects tokens older than an hour",
		AgentID: "agent-1",
		Type:    model.TypeInsight,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if mem.ID == "" {
		t.Error("expected non-empty ID")
	}
	if mem.Importance < 1 || mem.Importance > 10 {
		t.Errorf("importance %d out of range", mem.Importance)
	}
	if len(mem.Metadata.Keywords) == 0 {
		t.Error("expected extracted keywords")
	}

	got, err := p.Get(ctx, mem.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != mem.Content {
		t.Errorf("content mismatch: %q", got.Content)
	}
	if got.Type != model.TypeInsight {
		t.Errorf("type mismatch: %q", got.Type)
	}
	if len(got.Metadata.Keywords) != len(mem.Metadata.Keywords) {
		t.Errorf("keywords not persisted: %v", got.Metadata.Keywords)
	}
}

func TestPutValidation(t *testing.T) {
	ctx := context.Background()
	p := newTestPartition(t)

	cases := []struct {
		name   string
		params PutParams
	}{
		{"empty content", PutParams{AgentID: "a", Type: model.TypeGoal}},
		{"oversized content", PutParams{Content: strings.Repeat("x", model.MaxContentLength+1), AgentID: "a", Type: model.TypeGoal}},
		{"bad agent id", PutParams{Content: "ok", AgentID: "no spaces!", Type: model.TypeGoal}},
		{"unknown type", PutParams{Content: "ok", AgentID: "a", Type: "rumor"}},
		{"importance too high", PutParams{Content: "ok", AgentID: "a", Type: model.TypeGoal, Importance: 11}},
		{"importance negative", PutParams{Content: "ok", AgentID: "a", Type: model.TypeGoal, Importance: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Put(ctx, tc.params)
			if !errors.Is(err, memerr.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestContentBoundCountsRunes(t *testing.T) {
	ctx := context.Background()
	p := newTestPartition(t)

	// At the limit in runes even though well past it in bytes.
	atLimit := strings.Repeat("é", model.MaxContentLength)
	if _, err := p.Put(ctx, PutParams{Content: atLimit, AgentID: "a", Type: model.TypeGoal}); err != nil {
		t.Fatalf("content of %d runes rejected: %v", model.MaxContentLength, err)
	}

	over := strings.Repeat("é", model.MaxContentLength+1)
	if _, err := p.Put(ctx, PutParams{Content: over, AgentID: "a", Type: model.TypeGoal}); !errors.Is(err, memerr.ErrValidation) {
		t.Fatalf("expected ErrValidation for %d runes, got %v", model.MaxContentLength+1, err)
	}
}

func TestInvalidProject(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, err := mgr.Open("../escape")
	if !errors.Is(err, memerr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDefaultImportanceMonotonic(t *testing.T) {
	short := defaultImportance("brief", model.TypeConversation)
	long := defaultImportance(strings.Repeat("word ", 1000), model.TypeConversation)
	if long < short {
		t.Errorf("importance not monotonic in length: %d < %d", long, short)
	}

	casual := defaultImportance("same text here", model.TypeConversation)
	critical := defaultImportance("same text here", model.TypeSecurity)
	if critical <= casual {
		t.Errorf("security should outrank conversation: %d <= %d", critical, casual)
	}

	for _, typ := range []model.ContentType{model.TypeSecurity, model.TypeGoal, model.TypeConversation} {
		v := defaultImportance(strings.Repeat("x", model.MaxContentLength), typ)
		if v < 1 || v > 10 {
			t.Errorf("importance %d out of range for %s", v, typ)
		}
	}
}

func TestDuplicateContentDistinctIDs(t *testing.T) {
	ctx := context.Background()
	p := newTestPartition(t)

	a, err := p.Put(ctx, PutParams{Content: "identical", AgentID: "a", Type: model.TypeGoal})
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Put(ctx, PutParams{Content: "identical", AgentID: "a", Type: model.TypeGoal})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Errorf("identical content must not dedup: both got id %s", a.ID)
	}
}

func TestConcurrentFirstWriters(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := NewManager(root).Open("fresh")
			if err != nil {
				errs <- err
				return
			}
			defer p.Close()
			_, err = p.Put(ctx, PutParams{Content: "first write", AgentID: "racer", Type: model.TypeGoal})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent first write: %v", err)
		}
	}

	p, err := NewManager(root).Open("fresh")
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	results, err := p.Query(ctx, QueryParams{Query: ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 records after racing writers, got %d", len(results))
	}
}

func TestDeleteHidesRecord(t *testing.T) {
	ctx := context.Background()
	p := newTestPartition(t)

	mem, _ := p.Put(ctx, PutParams{Content: "ephemeral note about deployments", AgentID: "a", Type: model.TypeGoal})
	if err := p.Delete(ctx, mem.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	results, err := p.Query(ctx, QueryParams{Query: "deployments"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("soft-deleted record surfaced in query: %d results", len(results))
	}

	groups, err := p.Timeline(ctx, TimelineParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 0 {
		t.Errorf("soft-deleted record surfaced in timeline: %v", groups)
	}

	// The record itself still exists for direct lookup.
	got, err := p.Get(ctx, mem.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("expected deletion timestamp")
	}

	if err := p.Delete(ctx, "01XXXXXXXXXXXXXXXXXXXXXXXX"); !errors.Is(err, memerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for absent id, got %v", err)
	}
}

func TestProjects(t *testing.T) {
	mgr := NewManager(t.TempDir())

	projects, err := mgr.Projects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 0 {
		t.Fatalf("expected no projects, got %v", projects)
	}

	for _, name := range []string{"alpha", "beta"} {
		p, err := mgr.Open(name)
		if err != nil {
			t.Fatal(err)
		}
		p.Close()
	}

	projects, err = mgr.Projects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 {
		t.Errorf("expected 2 projects, got %v", projects)
	}
}
