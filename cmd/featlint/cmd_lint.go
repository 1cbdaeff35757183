package main

import "github.com/spf13/cobra"

func newLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check feature relationships across the workspace",
	}
	cmd.AddCommand(
		newPropagateCmd(),
		newNeverImpliesCmd(),
		newNeverEnablesCmd(),
		newOnlyEnablesCmd(),
		newWhyEnabledCmd(),
		newDuplicateDepsCmd(),
		newNoStdCmd(),
	)
	return cmd
}
