package cli

import (
	"github.com/spf13/cobra"

	"github.com/memkeep/memkeep/internal/blindex"
)

func init() {
	cmd := &cobra.Command{
		Use:   "key-status",
		Short: "Show the encryption key file status",
		Run:   runKeyStatus,
	}
	RootCmd.AddCommand(cmd)
}

func runKeyStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	printJSON(blindex.Status(cfg.KeyPath()))
}
