// Package cmd wires the kaigi command line interface.
package cmd

import "github.com/spf13/cobra"

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kaigi",
		Short:         "kaigi: run simulated multi-agent meetings",
		Long:          "kaigi executes meeting definitions: configured agents discuss a topic step by step, pause for user intervention, and close with a final synthesis.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newRunCmd(),
	)

	return rootCmd
}
