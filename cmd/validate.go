package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaigi-ai/kaigi/definition"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <definition.json>",
		Short: "Validate a meeting definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := definition.Load(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "definition is valid: %d styles, %d agents, %d steps\n",
				len(def.Styles), len(def.Agents), len(def.Workflow.Steps))
			return err
		},
	}
}
