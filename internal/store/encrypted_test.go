package store

import (
	"context"
	"errors"
	"testing"

	"github.com/memkeep/memkeep/internal/memerr"
	"github.com/memkeep/memkeep/internal/model"
)

func TestPutEncryptedAndQuery(t *testing.T) {
	ctx := context.Background()
	p := newTestPartition(t)

	mem, err := p.PutEncrypted(ctx, EncryptedPutParams{
		Blob:       []byte("ciphertext-with-tag"),
		IV:         []byte("0123456789ab"),
		Tokens:     []string{"tok-alpha", "tok-beta"},
		AgentID:    "agent-1",
		Type:       model.TypeSecurity,
		Importance: 7,
	})
	if err != nil {
		t.Fatalf("put encrypted: %v", err)
	}
	if !mem.Encrypted {
		t.Error("expected encrypted flag")
	}
	if len(mem.Metadata.Keywords) != 0 {
		t.Errorf("plaintext keywords stored for sealed row: %v", mem.Metadata.Keywords)
	}

	matches, err := p.QueryEncrypted(ctx, "tok-alpha", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].ID != mem.ID {
		t.Fatalf("token lookup failed: %v", matches)
	}

	blob, iv, err := DecodeSealed(&matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != "ciphertext-with-tag" || string(iv) != "0123456789ab" {
		t.Error("blob or iv did not round-trip through storage")
	}

	// Unknown token matches nothing; boolean matching, no partial hits.
	none, err := p.QueryEncrypted(ctx, "tok-gamma", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestQueryEncryptedOrdering(t *testing.T) {
	ctx := context.Background()
	p := newTestPartition(t)

	put := func(importance int) string {
		m, err := p.PutEncrypted(ctx, EncryptedPutParams{
			Blob:       []byte("blob"),
			IV:         []byte("0123456789ab"),
			Tokens:     []string{"shared"},
			AgentID:    "a",
			Type:       model.TypeInsight,
			Importance: importance,
		})
		if err != nil {
			t.Fatal(err)
		}
		return m.ID
	}
	low := put(2)
	high := put(9)

	matches, err := p.QueryEncrypted(ctx, "shared", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != high || matches[1].ID != low {
		t.Errorf("expected importance-descending order, got %s then %s", matches[0].ID, matches[1].ID)
	}
}

func TestPutEncryptedValidation(t *testing.T) {
	ctx := context.Background()
	p := newTestPartition(t)

	_, err := p.PutEncrypted(ctx, EncryptedPutParams{
		IV: []byte("0123456789ab"), AgentID: "a", Type: model.TypeGoal,
	})
	if !errors.Is(err, memerr.ErrValidation) {
		t.Errorf("empty blob: expected ErrValidation, got %v", err)
	}

	_, err = p.PutEncrypted(ctx, EncryptedPutParams{
		Blob: []byte("x"), IV: []byte("0123456789ab"), AgentID: "bad agent", Type: model.TypeGoal,
	})
	if !errors.Is(err, memerr.ErrValidation) {
		t.Errorf("bad agent: expected ErrValidation, got %v", err)
	}
}

func TestDeletedEncryptedExcluded(t *testing.T) {
	ctx := context.Background()
	p := newTestPartition(t)

	mem, err := p.PutEncrypted(ctx, EncryptedPutParams{
		Blob: []byte("blob"), IV: []byte("0123456789ab"), Tokens: []string{"tok"},
		AgentID: "a", Type: model.TypeGoal, Importance: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Delete(ctx, mem.ID); err != nil {
		t.Fatal(err)
	}

	matches, err := p.QueryEncrypted(ctx, "tok", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("soft-deleted sealed record surfaced: %d matches", len(matches))
	}
}
