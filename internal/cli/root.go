// Package cli implements the memkeep CLI commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/memkeep/memkeep/internal/blindex"
	"github.com/memkeep/memkeep/internal/config"
	"github.com/memkeep/memkeep/internal/logging"
	"github.com/memkeep/memkeep/internal/store"
)

var (
	dataDirFlag string
	configFlag  string
	logLevel    string
)

var errProjectRequired = errors.New("a project is required (use --project or --all)")

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memkeep",
	Short: "Project-partitioned memory store for AI agents",
	Long:  "Store, search, and browse short tagged memories, one SQLite partition per project. Optional searchable encryption via blind indexes.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data-dir", "d", "", "Data directory (default: $MEMKEEP_DATA_DIR or ~/.memkeep)")
	RootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file path (default: $MEMKEEP_CONFIG)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func loadConfig() config.Config {
	path := configFlag
	if path == "" {
		path = os.Getenv("MEMKEEP_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitErr("load config", err)
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(cfg.LogLevel)
}

func openManager(cfg config.Config) *store.Manager {
	return store.NewManager(cfg.DataDir)
}

func openCodec(cfg config.Config) (*blindex.Codec, error) {
	key, err := blindex.LoadOrCreateKey(cfg.KeyPath())
	if err != nil {
		return nil, err
	}
	return blindex.NewCodec(key)
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
