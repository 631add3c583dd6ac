package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/persiq/storage"
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Pop and print messages until the storage is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStorage()
		if err != nil {
			return err
		}
		return drain(st, os.Stdout)
	},
}

// drain pops every stored message in order and writes each one,
// newline-terminated, to w.
func drain(st storage.Storage, w io.Writer) error {
	for {
		msg, ok, err := st.Front()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, err := st.PopFront(); err != nil {
			return err
		}
		if _, err := w.Write(append(msg, '\n')); err != nil {
			return err
		}
	}
}

func init() {
	rootCmd.AddCommand(drainCmd)
}
