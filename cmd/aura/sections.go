package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the server's library sections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true, false)
		if err != nil {
			return err
		}
		defer a.close()

		sections, err := a.client.GetSections(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sections: %w", err)
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), sections)
		}
		if len(sections) == 0 {
			printInfo("No library sections found\n")
			return nil
		}
		for _, s := range sections {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", s.ID, s.Title, s.Type)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
}
