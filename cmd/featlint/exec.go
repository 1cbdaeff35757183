package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/config"
)

// inheritedArgs returns the global flags a workflow step runs with.
func inheritedArgs(cmd *cobra.Command) ([]string, error) {
	root, _ := cmd.Flags().GetString("root")
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	lvl, _ := cmd.Flags().GetString("log")
	color, _ := cmd.Flags().GetString("color")
	jobs, _ := cmd.Flags().GetInt("jobs")
	quiet, _ := cmd.Flags().GetBool("quiet")
	asJSON, _ := cmd.Flags().GetBool("log-json")
	exitZero, _ := cmd.Flags().GetBool("exit-code-zero")

	args := []string{
		"--root", abs,
		"--log", lvl,
		"--color", color,
		"--jobs", strconv.Itoa(jobs),
	}
	if quiet {
		args = append(args, "--quiet")
	}
	if asJSON {
		args = append(args, "--log-json")
	}
	if exitZero {
		args = append(args, "--exit-code-zero")
	}
	return args, nil
}

// execStep runs one workflow step in-process with a fresh command tree, so
// flag state never leaks between steps.
func execStep(cmd *cobra.Command, inherited []string, step config.Step) error {
	if len(step) == 0 {
		return fmt.Errorf("empty step")
	}
	if step[0] == "run" {
		return fmt.Errorf("workflows cannot run other workflows; use $name.index references")
	}

	child := newRootCmd()
	child.SetArgs(append(append([]string{}, inherited...), step...))
	child.SetOut(cmd.OutOrStdout())
	child.SetErr(cmd.ErrOrStderr())
	child.SetIn(cmd.InOrStdin())
	return child.ExecuteContext(cmd.Context())
}
