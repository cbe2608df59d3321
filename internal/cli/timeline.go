package cli

import (
	"github.com/spf13/cobra"

	"github.com/memkeep/memkeep/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Browse a project's memories by calendar day",
		Run:   runTimeline,
	}

	cmd.Flags().StringP("project", "p", "", "Project (required)")
	cmd.Flags().StringP("agent", "a", "", "Filter by agent id")
	cmd.Flags().IntP("days", "w", store.DefaultWindowDays, "Recency window in days (max 365)")

	cmd.MarkFlagRequired("project")

	RootCmd.AddCommand(cmd)
}

func runTimeline(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	agent, _ := cmd.Flags().GetString("agent")
	days, _ := cmd.Flags().GetInt("days")

	cfg := loadConfig()
	p, err := openManager(cfg).Open(project)
	if err != nil {
		exitErr("open partition", err)
	}
	defer p.Close()

	groups, err := p.Timeline(cmd.Context(), store.TimelineParams{
		AgentID:    agent,
		WindowDays: days,
	})
	if err != nil {
		exitErr("timeline", err)
	}

	printJSON(groups)
}
