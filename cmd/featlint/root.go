package main

import (
	"errors"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "featlint",
		Short: "Lint and fix feature propagation across a multi-package workspace",
		Long: `featlint checks that optional features are passed on consistently through
the dependency graph of a workspace and rewrites feature lists canonically.

Without a subcommand the "default" workflow of featlint.yaml is run.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runDefault,
	}

	pf := cmd.PersistentFlags()
	pf.String("root", ".", "Workspace root directory (holds workspace.yaml)")
	pf.String("config", "", "Path to featlint.yaml (searched under the root by default)")
	pf.Bool("check-cfg-compatibility", true, "Fail when the config requires a newer featlint")
	pf.String("log", "info", "Log level: debug, info, warn, error")
	pf.Bool("log-json", false, "Write logs as JSON")
	pf.BoolP("quiet", "q", false, "Only log errors")
	pf.String("color", "auto", "Color output: auto, always, never")
	pf.Bool("exit-code-zero", false, "Exit with status 0 even when issues remain")
	pf.Int("jobs", runtime.NumCPU(), "Number of manifests to load in parallel")

	cmd.AddCommand(
		newLintCmd(),
		newTraceCmd(),
		newFormatCmd(),
		newRunCmd(),
		newDebugCmd(),
		newInitCmd(),
	)

	return cmd
}

// runDefault runs the default workflow, or prints help when no config file
// exists.
func runDefault(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if errors.Is(err, config.ErrNotFound) {
		log, lerr := newLogger(cmd)
		if lerr != nil {
			return lerr
		}
		log.Info("no config file found; see 'featlint init'")
		return cmd.Help()
	}
	if err != nil {
		return err
	}
	return runWorkflow(cmd, cfg, config.DefaultWorkflow)
}
