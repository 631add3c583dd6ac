package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/persiq/internal/config"
	"github.com/nfrund/persiq/internal/logging"
	"github.com/nfrund/persiq/storage"
)

var (
	dirFlag  string
	modeFlag string
)

var rootCmd = &cobra.Command{
	Use:   "persiq",
	Short: "Inspect and drain persiq storage directories",
	Long: `persiq is a command-line interface for disk-backed message storage.

Available commands:
  peek     Print the front message without removing it
  pop      Remove the front message and print it
  len      Print the number of stored messages
  drain    Pop and print messages until the storage is empty
  watch    Follow a storage directory and drain entries as they arrive

Use "persiq [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	logging.New()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cfg := config.New()
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", cfg.Dir, "storage directory (PERSIQ_DIR)")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", cfg.Mode, "storage mode: fifo or latest (PERSIQ_MODE)")
}

// openStorage builds the storage selected by the persistent flags.
func openStorage() (storage.Storage, error) {
	if dirFlag == "" {
		return nil, errors.New("--dir is required (or set PERSIQ_DIR)")
	}

	fs := afero.NewOsFs()
	switch modeFlag {
	case "fifo":
		return storage.NewQueue(fs, dirFlag)
	case "latest":
		return storage.NewLatest(fs, dirFlag)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", modeFlag)
	}
}
