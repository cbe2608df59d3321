package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/memkeep/memkeep/internal/sweep"
)

func init() {
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Hard-delete low-value aged memories in one project",
		Run:   runCleanup,
	}
	cleanup.Flags().StringP("project", "p", "", "Project (required)")
	cleanup.Flags().Int("days", 0, "Age threshold in days (default: config cleanup_age_days)")
	cleanup.Flags().Int("max-importance", 0, "Importance ceiling (default: config cleanup_max_importance)")
	cleanup.MarkFlagRequired("project")
	RootCmd.AddCommand(cleanup)

	compress := &cobra.Command{
		Use:   "compress",
		Short: "Truncate long aged memories in one project",
		Run:   runCompress,
	}
	compress.Flags().StringP("project", "p", "", "Project (required)")
	compress.Flags().Int("days", 0, "Age threshold in days (default: config compress_age_days)")
	compress.MarkFlagRequired("project")
	RootCmd.AddCommand(compress)

	maintain := &cobra.Command{
		Use:   "maintain",
		Short: "Run a full maintenance pass across every project",
		Long:  "Cleanup then compression on every known partition. Per-project failures are logged and skipped. With --watch, keep running and repeat on the configured schedule.",
		Run:   runMaintain,
	}
	maintain.Flags().Bool("watch", false, "Keep running and sweep on the configured interval")
	RootCmd.AddCommand(maintain)
}

func runCleanup(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	days, _ := cmd.Flags().GetInt("days")
	maxImportance, _ := cmd.Flags().GetInt("max-importance")

	cfg := loadConfig()
	if days <= 0 {
		days = cfg.CleanupAgeDays
	}
	if maxImportance <= 0 {
		maxImportance = cfg.CleanupMaxScore
	}

	p, err := openManager(cfg).Open(project)
	if err != nil {
		exitErr("open partition", err)
	}
	defer p.Close()

	removed, err := p.Cleanup(cmd.Context(), days, maxImportance)
	if err != nil {
		exitErr("cleanup", err)
	}

	printJSON(map[string]int{"removed": removed})
}

func runCompress(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	days, _ := cmd.Flags().GetInt("days")

	cfg := loadConfig()
	if days <= 0 {
		days = cfg.CompressAgeDays
	}

	p, err := openManager(cfg).Open(project)
	if err != nil {
		exitErr("open partition", err)
	}
	defer p.Close()

	compressed, err := p.Compress(cmd.Context(), days)
	if err != nil {
		exitErr("compress", err)
	}

	printJSON(map[string]int{"compressed": compressed})
}

func runMaintain(cmd *cobra.Command, args []string) {
	watch, _ := cmd.Flags().GetBool("watch")
	cfg := loadConfig()

	sweeper := sweep.New(openManager(cfg), sweep.Policy{
		CleanupAgeDays:  cfg.CleanupAgeDays,
		CleanupMaxScore: cfg.CleanupMaxScore,
		CompressAgeDays: cfg.CompressAgeDays,
	}, cfg.SweepInterval(), newLogger(cfg))

	if watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		sweeper.Run(ctx)
		return
	}

	report := sweeper.RunOnce(cmd.Context())
	printJSON(report)
}
