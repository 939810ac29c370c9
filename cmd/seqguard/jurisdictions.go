package main

import (
	"github.com/spf13/cobra"

	"seqguard/internal/analysis/handler"
)

func (c *cli) newJurisdictionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jurisdictions",
		Short: "List the jurisdictions compliance can be evaluated against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := c.rules()
			if err != nil {
				return err
			}
			return c.writeJSON(cmd.OutOrStdout(), handler.JurisdictionsResponse{
				Jurisdictions: rules.Jurisdictions(),
			})
		},
	}
}
