package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/raaihank/pii-scanner/internal/privacy"
)

func newTypesCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the PII types the scanner recognizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Type", "Category", "Pattern")
			for _, info := range privacy.DefaultRegistry().Describe() {
				if category != "" && string(info.Category) != category {
					continue
				}
				if err := table.Append([]string{info.Name, string(info.Category), info.Pattern}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list types in this category (pii, identifiers, behavioral)")
	return cmd
}
