package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/memkeep/memkeep/internal/model"
	"github.com/memkeep/memkeep/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "store [content]",
		Short: "Store a memory",
		Long:  "Store a memory in a project partition. Content can be a positional arg or piped via stdin.",
		Run:   runStore,
	}

	cmd.Flags().StringP("project", "p", "", "Project (required)")
	cmd.Flags().StringP("agent", "a", "", "Agent id (default: generated)")
	cmd.Flags().StringP("type", "t", "conversation", "Type: insight, preference, error, goal, decision, security, milestone, conversation")
	cmd.Flags().IntP("importance", "i", 0, "Importance 1-10 (default: computed from content)")
	cmd.Flags().String("source", "", "Provenance note stored in metadata")

	cmd.MarkFlagRequired("project")

	RootCmd.AddCommand(cmd)
}

// readContent takes content from args or, when piped, from stdin.
func readContent(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}

// defaultAgent generates a throwaway agent identity for CLI calls that
// do not supply one.
func defaultAgent() string {
	return "cli-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func runStore(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	agent, _ := cmd.Flags().GetString("agent")
	typ, _ := cmd.Flags().GetString("type")
	importance, _ := cmd.Flags().GetInt("importance")
	source, _ := cmd.Flags().GetString("source")

	content := strings.TrimSpace(readContent(args))
	if content == "" {
		exitErr("store", fmt.Errorf("content is required (positional arg or stdin)"))
	}
	if agent == "" {
		agent = defaultAgent()
	}

	cfg := loadConfig()
	p, err := openManager(cfg).Open(project)
	if err != nil {
		exitErr("open partition", err)
	}
	defer p.Close()

	mem, err := p.Put(cmd.Context(), store.PutParams{
		Content:    content,
		AgentID:    agent,
		Type:       model.ContentType(typ),
		Importance: importance,
		Metadata:   model.Metadata{Source: source},
	})
	if err != nil {
		exitErr("store", err)
	}

	printJSON(mem)
}
