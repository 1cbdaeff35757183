package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/config"
	"github.com/fbkclanna/featlint/internal/ui"
	"github.com/fbkclanna/featlint/internal/workspace"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a featlint.yaml with check and default workflows",
		Long: `Create featlint.yaml in the workspace root. On a terminal the features to
propagate are asked for interactively; otherwise pass --features or --yes.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
	cmd.Flags().StringSlice("features", nil, "Features to propagate")
	cmd.Flags().BoolP("yes", "y", false, "Accept the suggested features without asking")
	cmd.Flags().Bool("no-format", false, "Do not add a formatting step")
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	root, _ := cmd.Flags().GetString("root")
	features, _ := cmd.Flags().GetStringSlice("features")
	yes, _ := cmd.Flags().GetBool("yes")
	noFormat, _ := cmd.Flags().GetBool("no-format")
	force, _ := cmd.Flags().GetBool("force")

	path := filepath.Join(root, config.WellKnownNames[0])
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	withFormat := !noFormat
	if len(features) == 0 {
		suggested := strings.Join(suggestFeatures(cmd), ",")
		switch {
		case yes:
			features = splitFeatures(suggested)
		case ui.IsTerminal(os.Stdin):
			answer, err := promptInput("Features to propagate (comma separated)", suggested, validateFeatures)
			if err != nil {
				return fmt.Errorf("interactive setup: %w", err)
			}
			features = splitFeatures(answer)
			if !noFormat {
				if withFormat, err = promptConfirm("Also check feature formatting?", true); err != nil {
					return fmt.Errorf("interactive setup: %w", err)
				}
			}
		default:
			return fmt.Errorf("interactive init requires a TTY; use --features or --yes")
		}
	}
	if err := validateFeatures(strings.Join(features, ",")); err != nil {
		return err
	}

	if err := config.Save(path, buildConfig(features, withFormat)); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// buildConfig assembles a config whose check workflow reports and whose
// default workflow fixes.
func buildConfig(features []string, withFormat bool) *config.File {
	check := config.Workflow{
		{"lint", "propagate-feature", "--features", strings.Join(features, ",")},
	}
	def := config.Workflow{{"$check.0", "--fix"}}
	if withFormat {
		check = append(check, config.Step{"format", "features"})
		def = append(def, config.Step{"$check.1", "--fix"})
	}

	f := &config.File{
		Version:   config.Version{Format: config.FormatVersion},
		Workflows: map[string]config.Workflow{"check": check, config.DefaultWorkflow: def},
		Help: &config.Help{
			Text: "Feature lists are checked by featlint. Run 'featlint' to fix them.\n",
		},
	}
	if version != "dev" {
		f.Version.Binary = version
	}
	return f
}

// suggestFeatures returns feature names declared by at least two members,
// falling back to std when the workspace cannot be loaded.
func suggestFeatures(cmd *cobra.Command) []string {
	root, _ := cmd.Flags().GetString("root")
	ctx, err := workspace.Load(cmd.Context(), root, workspace.Options{})
	if err != nil {
		return []string{"std"}
	}
	counts := map[string]int{}
	for _, p := range ctx.Packages {
		for _, f := range p.FeatureNames() {
			counts[f]++
		}
	}
	var out []string
	for f, n := range counts {
		if n >= 2 && f != "default" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{"std"}
	}
	sort.Strings(out)
	return out
}
