package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/persiq/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a storage directory and drain entries as they arrive",
	Long: `watch drains the storage, then blocks on filesystem notifications and
drains again whenever a new entry is published. Stop with SIGINT or
SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStorage()
		if err != nil {
			return err
		}

		notifier, err := storage.NewNotifier(dirFlag)
		if err != nil {
			return err
		}
		defer notifier.Close()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

		// Catch up on the existing backlog before waiting for events.
		if err := drain(st, os.Stdout); err != nil {
			return err
		}

		for {
			select {
			case <-quit:
				return nil
			case _, ok := <-notifier.Arrivals():
				if !ok {
					return nil
				}
				if err := drain(st, os.Stdout); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
