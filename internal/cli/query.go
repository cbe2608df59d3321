package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/memkeep/memkeep/internal/model"
	"github.com/memkeep/memkeep/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Search memories by relevance",
		Long:  "Rank a project's memories against a free-text query. Use --all to search every partition.",
		Run:   runQuery,
	}

	cmd.Flags().StringP("project", "p", "", "Project to search")
	cmd.Flags().Bool("all", false, "Search all partitions")
	cmd.Flags().StringP("agent", "a", "", "Filter by agent id")
	cmd.Flags().StringP("type", "t", "", "Filter by content type")
	cmd.Flags().Int("min-importance", 0, "Minimum importance")
	cmd.Flags().IntP("limit", "l", store.DefaultQueryLimit, "Max results")
	cmd.Flags().IntP("days", "w", store.DefaultWindowDays, "Recency window in days")

	RootCmd.AddCommand(cmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	all, _ := cmd.Flags().GetBool("all")
	agent, _ := cmd.Flags().GetString("agent")
	typ, _ := cmd.Flags().GetString("type")
	minImportance, _ := cmd.Flags().GetInt("min-importance")
	limit, _ := cmd.Flags().GetInt("limit")
	days, _ := cmd.Flags().GetInt("days")

	params := store.QueryParams{
		Query:         strings.Join(args, " "),
		AgentID:       agent,
		Type:          model.ContentType(typ),
		MinImportance: minImportance,
		Limit:         limit,
		WindowDays:    days,
	}

	cfg := loadConfig()
	mgr := openManager(cfg)

	var results []store.Result
	var err error
	if all {
		results, err = mgr.QueryAll(cmd.Context(), params)
	} else {
		if project == "" {
			exitErr("query", errProjectRequired)
		}
		var p *store.Partition
		p, err = mgr.Open(project)
		if err != nil {
			exitErr("open partition", err)
		}
		defer p.Close()
		results, err = p.Query(cmd.Context(), params)
	}
	if err != nil {
		exitErr("query", err)
	}

	printJSON(results)
}
