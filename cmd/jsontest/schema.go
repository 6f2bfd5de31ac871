package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/jsontest/pkg/testcase"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of a test document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := testcase.GenerateJSONSchema()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
