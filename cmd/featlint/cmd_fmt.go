package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/rewrite"
)

func newFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "format",
		Aliases: []string{"fmt", "f"},
		Short:   "Format manifests",
	}
	cmd.AddCommand(newFormatFeaturesCmd())
	return cmd
}

func newFormatFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "features",
		Aliases: []string{"feature", "f"},
		Short:   "Sort, deduplicate, and wrap feature lists",
		Args:    cobra.NoArgs,
		RunE:    runFormatFeatures,
	}
	f := cmd.Flags()
	f.Bool("fix", false, "Write the formatted lists back")
	f.String("mode", "canonicalize", "Default mode: none, sort, canonicalize")
	f.StringSlice("mode-per-feature", nil, "FEATURE:MODE overrides")
	f.StringSlice("ignore-feature", nil, "Features that are never formatted")
	f.Int("line-width", 80, "Maximal width of an inline list")
	f.Bool("print-paths", false, "Print the manifest path of each unformatted package")
	f.Bool("diff", false, "Print a unified diff of the formatting")
	return cmd
}

func formatPolicy(cmd *cobra.Command) (rewrite.Policy, error) {
	p := rewrite.DefaultPolicy()
	f := cmd.Flags()

	mode, _ := f.GetString("mode")
	var err error
	if p.Default, err = rewrite.ParseMode(mode); err != nil {
		return p, err
	}
	if p.LineWidth, _ = f.GetInt("line-width"); p.LineWidth <= 0 {
		return p, fmt.Errorf("--line-width must be positive")
	}

	perFeature, _ := f.GetStringSlice("mode-per-feature")
	for _, s := range perFeature {
		name, m, ok := strings.Cut(s, ":")
		if !ok || name == "" {
			return p, fmt.Errorf("invalid --mode-per-feature %q (expected FEATURE:MODE)", s)
		}
		mode, err := rewrite.ParseMode(m)
		if err != nil {
			return p, err
		}
		if p.Modes == nil {
			p.Modes = map[string]rewrite.Mode{}
		}
		p.Modes[name] = mode
	}

	ignore, _ := f.GetStringSlice("ignore-feature")
	for _, name := range ignore {
		if p.Ignore == nil {
			p.Ignore = map[string]bool{}
		}
		p.Ignore[name] = true
	}
	return p, nil
}

func runFormatFeatures(cmd *cobra.Command, _ []string) error {
	fix, _ := cmd.Flags().GetBool("fix")
	printPaths, _ := cmd.Flags().GetBool("print-paths")
	showDiff, _ := cmd.Flags().GetBool("diff")

	policy, err := formatPolicy(cmd)
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	names := e.ws.PackageNames()
	e.log.Info("checking packages", "count", len(names))
	changes, err := rewrite.FormatPlan(e.ws, names, policy)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		e.log.Info("all feature lists formatted", "packages", len(names))
		return nil
	}

	var offenders []string
	for _, ch := range changes {
		if len(offenders) == 0 || offenders[len(offenders)-1] != ch.Package {
			offenders = append(offenders, ch.Package)
		}
	}
	_, _ = fmt.Fprintf(out, "Found %s package%s with unformatted features:\n",
		e.palette.Warn(fmt.Sprint(len(offenders))), plural(len(offenders)))
	for _, name := range offenders {
		line := "  " + e.palette.Name(name)
		if pkg, ok := e.ws.Package(name); ok && printPaths {
			line += " " + e.palette.Muted(e.ws.RelPath(pkg.Path))
		}
		_, _ = fmt.Fprintln(out, line)
	}

	if showDiff {
		d, err := e.ws.Diff(changes, policy)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, d)
	}

	if !fix {
		_, _ = fmt.Fprintln(out, "Run again with --fix to format them.")
		return issuesRemain(cmd)
	}

	applied := e.ws.Apply(changes, policy)
	_, _ = fmt.Fprintf(out, "Formatted %s package%s.\n",
		e.palette.OK(fmt.Sprint(len(applied.Written))), plural(len(applied.Written)))
	if err := applied.Err(); err != nil {
		return &exitError{code: 1, err: err}
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
