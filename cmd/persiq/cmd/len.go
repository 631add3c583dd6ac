package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lenCmd = &cobra.Command{
	Use:   "len",
	Short: "Print the number of stored messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStorage()
		if err != nil {
			return err
		}

		n, err := st.Len()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lenCmd)
}
