package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/gurmeharsomal/media-screening-tool/internal/observability"
)

func newVariantsCmd(a *app) *cobra.Command {
	var (
		name       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "variants",
		Short: "Print the name variants generated for a candidate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runVariants(name, jsonOutput, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Candidate full name (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the variants as a JSON array")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) runVariants(name string, jsonOutput bool, out io.Writer) error {
	items := loadGenerator(a.cfg, a.logger).Generate(name).Items()

	if jsonOutput {
		return json.NewEncoder(out).Encode(items)
	}
	observability.NewPrinter(out).PrintVariants(name, items)
	return nil
}
