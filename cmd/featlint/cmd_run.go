package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/config"
	"github.com/fbkclanna/featlint/internal/ui"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [WORKFLOW]",
		Short: "Run a workflow from featlint.yaml",
		Long: `Run the steps of a workflow defined in featlint.yaml, in order, stopping at
the first step that fails. Without an argument the "default" workflow runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}
	cmd.Flags().Bool("list", false, "List the workflows instead of running one")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	list, _ := cmd.Flags().GetBool("list")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if list {
		tbl := ui.NewTable(cmd.OutOrStdout(), nil, "WORKFLOW", "STEPS")
		for _, name := range cfg.WorkflowNames() {
			wf, _ := cfg.Workflow(name)
			tbl.Row(name, len(wf))
		}
		return tbl.Flush()
	}

	name := config.DefaultWorkflow
	if len(args) == 1 {
		name = args[0]
	}
	return runWorkflow(cmd, cfg, name)
}

// runWorkflow runs every step of the named workflow and prints the config's
// help text when a step fails.
func runWorkflow(cmd *cobra.Command, cfg *config.File, name string) error {
	wf, ok := cfg.Workflow(name)
	if !ok {
		return fmt.Errorf("workflow %q not found (available: %s)", name, strings.Join(cfg.WorkflowNames(), ", "))
	}
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	palette, err := newPalette(cmd)
	if err != nil {
		return err
	}
	inherited, err := inheritedArgs(cmd)
	if err != nil {
		return err
	}

	log.Info("running workflow", "name", name, "steps", len(wf), "config", cfg.Path)
	progress := ui.NewProgress(cmd.ErrOrStderr(), palette, len(wf))
	for _, step := range wf {
		start := time.Now()
		err := execStep(cmd, inherited, step)
		progress.Done(stepLabel(step), err, time.Since(start))
		if err == nil {
			continue
		}

		if help := cfg.FormatHelp(); help != "" {
			progress.Log("\n%s", help)
		}
		return &exitError{code: 1, err: fmt.Errorf("workflow %q: step '%s' failed: %w", name, stepLabel(step), err)}
	}
	return nil
}

// stepLabel names a step by its first two arguments.
func stepLabel(step config.Step) string {
	return strings.Join(step[:min(2, len(step))], " ")
}
