package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var popCmd = &cobra.Command{
	Use:   "pop",
	Short: "Remove the front message and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStorage()
		if err != nil {
			return err
		}

		msg, ok, err := st.Front()
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("storage is empty")
		}

		if _, err := st.PopFront(); err != nil {
			return err
		}

		_, err = os.Stdout.Write(append(msg, '\n'))
		return err
	},
}

func init() {
	rootCmd.AddCommand(popCmd)
}
