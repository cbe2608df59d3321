// Package model defines the core memory data types.
package model

import "time"

// ContentType categorizes what a memory captures.
type ContentType string

const (
	TypeInsight      ContentType = "insight"
	TypePreference   ContentType = "preference"
	TypeError        ContentType = "error"
	TypeGoal         ContentType = "goal"
	TypeDecision     ContentType = "decision"
	TypeSecurity     ContentType = "security"
	TypeMilestone    ContentType = "milestone"
	TypeConversation ContentType = "conversation"
)

// ValidTypes are the allowed content types.
var ValidTypes = map[ContentType]bool{
	TypeInsight:      true,
	TypePreference:   true,
	TypeError:        true,
	TypeGoal:         true,
	TypeDecision:     true,
	TypeSecurity:     true,
	TypeMilestone:    true,
	TypeConversation: true,
}

// Metadata carries the known per-memory attributes plus an open-ended
// extension map for caller-defined keys.
type Metadata struct {
	Keywords       []string          `json:"keywords,omitempty"`
	Source         string            `json:"source,omitempty"`
	Compressed     bool              `json:"compressed,omitempty"`
	OriginalLength int               `json:"original_length,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// Memory represents a stored memory entry. When Encrypted is set, Content
// holds the base64 ciphertext+tag blob and IV the base64 nonce; keywords
// are never stored in plaintext for encrypted entries.
type Memory struct {
	ID         string      `json:"id"`
	AgentID    string      `json:"agent_id"`
	Project    string      `json:"project"`
	Content    string      `json:"content"`
	IV         string      `json:"iv,omitempty"`
	Encrypted  bool        `json:"encrypted,omitempty"`
	Type       ContentType `json:"type"`
	Importance int         `json:"importance"`
	Metadata   Metadata    `json:"metadata"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
	DeletedAt  *time.Time  `json:"deleted_at,omitempty"`
}

// MaxContentLength bounds stored content size in characters.
const MaxContentLength = 10000

// ClampImportance forces v into the valid [1,10] range.
func ClampImportance(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
