package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/config"
	"github.com/fbkclanna/featlint/internal/graph"
	"github.com/fbkclanna/featlint/internal/logging"
	"github.com/fbkclanna/featlint/internal/model"
	"github.com/fbkclanna/featlint/internal/ui"
	"github.com/fbkclanna/featlint/internal/workspace"
)

// exitError carries a process exit status. A nil err means the command
// already reported everything it had to say.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// issuesRemain is returned when a lint found problems it did not fix.
func issuesRemain(cmd *cobra.Command) error {
	if zero, _ := cmd.Flags().GetBool("exit-code-zero"); zero {
		return nil
	}
	return &exitError{code: 1}
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	lvl, _ := cmd.Flags().GetString("log")
	quiet, _ := cmd.Flags().GetBool("quiet")
	asJSON, _ := cmd.Flags().GetBool("log-json")

	level, err := logging.ParseLevel(lvl)
	if err != nil {
		return nil, err
	}
	if quiet {
		level = logging.LevelError
	}
	return logging.New(logging.Config{Level: level, Output: cmd.ErrOrStderr(), JSON: asJSON}), nil
}

func newPalette(cmd *cobra.Command) (*ui.Palette, error) {
	s, _ := cmd.Flags().GetString("color")
	mode, err := ui.ParseColorMode(s)
	if err != nil {
		return nil, err
	}
	return ui.NewPalette(cmd.OutOrStdout(), mode), nil
}

// env is the loaded state most commands work on.
type env struct {
	log     *slog.Logger
	palette *ui.Palette
	ws      *workspace.Context
	model   *model.Workspace
	graph   *graph.FeatureGraph
}

// loadEnv loads the workspace and builds the feature graph.
func loadEnv(cmd *cobra.Command) (*env, error) {
	root, _ := cmd.Flags().GetString("root")
	jobs, _ := cmd.Flags().GetInt("jobs")

	log, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	palette, err := newPalette(cmd)
	if err != nil {
		return nil, err
	}

	ctx, err := workspace.Load(cmd.Context(), root, workspace.Options{Jobs: jobs, Logger: log})
	if err != nil {
		return nil, err
	}
	ws, err := ctx.Model()
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(ws)
	if err != nil {
		return nil, err
	}
	log.Debug("built feature graph", "nodes", g.NumNodes(), "edges", g.NumEdges())
	return &env{log: log, palette: palette, ws: ctx, model: ws, graph: g}, nil
}

// loadConfig loads --config or the first config file found under --root.
func loadConfig(cmd *cobra.Command) (*config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	root, _ := cmd.Flags().GetString("root")
	check, _ := cmd.Flags().GetBool("check-cfg-compatibility")

	if path == "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving workspace root: %w", err)
		}
		if path, err = config.Search(abs); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if check {
		if err := cfg.CheckCompatibility(version); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// unescapeDelimiter turns the two-character sequences \n and \t into the
// characters they name, so delimiters can be passed from a shell.
func unescapeDelimiter(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
}
