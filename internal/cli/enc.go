package cli

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/memkeep/memkeep/internal/model"
	"github.com/memkeep/memkeep/internal/store"
)

func init() {
	encStore := &cobra.Command{
		Use:   "enc-store [content]",
		Short: "Store a memory encrypted with blind indexes",
		Long:  "Seal content with the local key and store it with per-keyword blind-index tokens, so it can be found later without server-side plaintext.",
		Run:   runEncStore,
	}
	encStore.Flags().StringP("project", "p", "", "Project (required)")
	encStore.Flags().StringP("agent", "a", "", "Agent id (default: generated)")
	encStore.Flags().StringP("type", "t", "conversation", "Content type")
	encStore.Flags().IntP("importance", "i", 0, "Importance 1-10")
	encStore.MarkFlagRequired("project")
	RootCmd.AddCommand(encStore)

	encQuery := &cobra.Command{
		Use:   "enc-query [keyword]",
		Short: "Search encrypted memories by exact keyword",
		Long:  "Match the whole lowercased query against single-keyword blind indexes, then decrypt the hits. Multi-word queries will almost always miss.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runEncQuery,
	}
	encQuery.Flags().StringP("project", "p", "", "Project (required)")
	encQuery.Flags().IntP("limit", "l", store.DefaultQueryLimit, "Max results")
	encQuery.MarkFlagRequired("project")
	RootCmd.AddCommand(encQuery)
}

func runEncStore(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	agent, _ := cmd.Flags().GetString("agent")
	typ, _ := cmd.Flags().GetString("type")
	importance, _ := cmd.Flags().GetInt("importance")

	content := strings.TrimSpace(readContent(args))
	if content == "" {
		exitErr("enc-store", fmt.Errorf("content is required (positional arg or stdin)"))
	}
	if utf8.RuneCountInString(content) > model.MaxContentLength {
		exitErr("enc-store", fmt.Errorf("content exceeds %d characters", model.MaxContentLength))
	}
	if agent == "" {
		agent = defaultAgent()
	}

	cfg := loadConfig()
	codec, err := openCodec(cfg)
	if err != nil {
		exitErr("open codec", err)
	}

	sealed, err := codec.Encrypt(content)
	if err != nil {
		exitErr("encrypt", err)
	}

	p, err := openManager(cfg).Open(project)
	if err != nil {
		exitErr("open partition", err)
	}
	defer p.Close()

	mem, err := p.PutEncrypted(cmd.Context(), store.EncryptedPutParams{
		Blob:       sealed.Blob,
		IV:         sealed.IV,
		Tokens:     sealed.Tokens,
		AgentID:    agent,
		Type:       model.ContentType(typ),
		Importance: importance,
	})
	if err != nil {
		exitErr("enc-store", err)
	}

	printJSON(map[string]interface{}{
		"id":         mem.ID,
		"project":    mem.Project,
		"type":       mem.Type,
		"importance": mem.Importance,
		"tokens":     len(sealed.Tokens),
		"created_at": mem.CreatedAt,
	})
}

// encResult is a decrypted hit from the blind-index table.
type encResult struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	Importance int       `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
}

func runEncQuery(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	cfg := loadConfig()
	codec, err := openCodec(cfg)
	if err != nil {
		exitErr("open codec", err)
	}

	p, err := openManager(cfg).Open(project)
	if err != nil {
		exitErr("open partition", err)
	}
	defer p.Close()

	matches, err := p.QueryEncrypted(cmd.Context(), codec.QueryToken(query), limit)
	if err != nil {
		exitErr("enc-query", err)
	}

	results := []encResult{}
	for _, m := range matches {
		blob, iv, err := store.DecodeSealed(&m)
		if err != nil {
			exitErr("enc-query", err)
		}
		plaintext, err := codec.Decrypt(blob, iv)
		if err != nil {
			exitErr("decrypt", err)
		}
		results = append(results, encResult{
			ID:         m.ID,
			AgentID:    m.AgentID,
			Content:    plaintext,
			Type:       string(m.Type),
			Importance: m.Importance,
			CreatedAt:  m.CreatedAt,
		})
	}

	printJSON(results)
}
