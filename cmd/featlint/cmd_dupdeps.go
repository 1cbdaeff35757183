package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/lint"
)

func newDuplicateDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate-deps",
		Short: "Find dependencies declared identically as normal and dev dependencies",
		Args:  cobra.NoArgs,
		RunE:  runDuplicateDeps,
	}
}

func runDuplicateDeps(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	dups := lint.DuplicateDeps(e.model)
	if len(dups) == 0 {
		e.log.Info("no duplicated dependencies")
		return nil
	}
	for _, d := range dups {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), d.String())
	}
	return issuesRemain(cmd)
}
