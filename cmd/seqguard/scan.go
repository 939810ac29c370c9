package main

import (
	"github.com/spf13/cobra"

	"seqguard/internal/analysis"
	"seqguard/internal/analysis/handler"
	"seqguard/internal/registry"
)

func (c *cli) newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [sequence|-]",
		Short: "Scan a sequence against the local registry without any network calls",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args, c.v.GetString("in"))
			if err != nil {
				return err
			}
			log := c.logger(cmd)

			reg, err := c.registry()
			if err != nil {
				return err
			}
			rules, err := c.rules()
			if err != nil {
				return err
			}

			service := analysis.NewService(registry.NewScanner(reg, registry.WithLogger(log)), rules, nil,
				analysis.WithLogger(log),
			)
			result, err := service.AnalyzeLocal(cmd.Context(), input)
			if err != nil {
				return err
			}
			return c.writeJSON(cmd.OutOrStdout(), handler.FromLocalResult(result))
		},
	}
	cmd.Flags().StringP("in", "i", "", "read the sequence from a FASTA or plain text file")
	return cmd
}
