package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-partition record counts",
		Run:   runStats,
	}
	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	st, err := openManager(cfg).Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	printJSON(st)
}
