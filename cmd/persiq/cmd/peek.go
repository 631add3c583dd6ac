package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var peekCmd = &cobra.Command{
	Use:   "peek",
	Short: "Print the front message without removing it",
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

		_, err = os.Stdout.Write(append(msg, '\n'))
		return err
	},
}

func init() {
	rootCmd.AddCommand(peekCmd)
}
