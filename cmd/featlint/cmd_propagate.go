package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fbkclanna/featlint/internal/lint"
	"github.com/fbkclanna/featlint/internal/rewrite"
)

func newPropagateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propagate-feature",
		Short: "Check that features are passed on to every dependency exposing them",
		Long: `Check that every package passes each of the given features on to all of its
dependencies that expose a feature of the same name.

A package that lacks a feature its dependencies expose is reported as
"required by"; with --fix an empty feature is declared. A package that declares
the feature but does not forward it is reported as "must propagate"; with
--fix the missing dep/feature (or dep?/feature for optional dependencies)
entries are added.`,
		Args: cobra.NoArgs,
		RunE: runPropagate,
	}
	f := cmd.Flags()
	f.StringSlice("features", nil, "Features to check (comma separated)")
	f.StringSliceP("packages", "p", nil, "Only check these packages")
	f.StringSlice("dep-kinds", nil, "Per dependency kind settings, e.g. dev:ignore,build:check")
	f.StringSlice("ignore-missing-propagate", nil, "Ignore PKG/FEATURE:DEP/FEATURE pairs")
	f.StringSlice("feature-enables-dep", nil, "FEATURE:DEP pairs that must enable the dependency even when optional")
	f.String("left-side-feature-missing", "fix", "Packages missing the feature: fix, report, ignore")
	f.String("dep-outside-workspace", "check", "Dependencies outside the workspace: check, ignore")
	f.Bool("fix", false, "Write the fixes to the manifests")
	f.String("fix-package", "", "Only fix this package")
	f.String("fix-dependency", "", "Only fix missing propagation to this dependency")
	f.Bool("show-path", false, "Show the manifest path of each package")
	f.Bool("diff", false, "Print a unified diff of the fixes")
	f.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "feature" {
			name = "features"
		}
		return pflag.NormalizedName(name)
	})
	_ = cmd.MarkFlagRequired("features")
	return cmd
}

func propagateOptions(cmd *cobra.Command) (lint.PropagateOptions, error) {
	var opts lint.PropagateOptions
	f := cmd.Flags()
	opts.Features, _ = f.GetStringSlice("features")
	opts.Packages, _ = f.GetStringSlice("packages")
	opts.Fix, _ = f.GetBool("fix")
	opts.FixPackage, _ = f.GetString("fix-package")
	opts.FixDependency, _ = f.GetString("fix-dependency")

	kinds, _ := f.GetStringSlice("dep-kinds")
	var err error
	if opts.Kinds, err = lint.ParseKindFilter(kinds); err != nil {
		return opts, err
	}

	pairs, _ := f.GetStringSlice("ignore-missing-propagate")
	for _, s := range pairs {
		p, err := lint.ParseIgnorePair(s)
		if err != nil {
			return opts, err
		}
		opts.IgnoreMissing = append(opts.IgnoreMissing, p)
	}

	enables, _ := f.GetStringSlice("feature-enables-dep")
	for _, s := range enables {
		e, err := lint.ParseEnablesDep(s)
		if err != nil {
			return opts, err
		}
		opts.FeatureEnablesDep = append(opts.FeatureEnablesDep, e)
	}

	left, _ := f.GetString("left-side-feature-missing")
	if opts.LeftSideMissing, err = lint.ParseMuteSetting(left); err != nil {
		return opts, fmt.Errorf("--left-side-feature-missing: %w", err)
	}
	outside, _ := f.GetString("dep-outside-workspace")
	if opts.OutsideWorkspace, err = lint.ParseIgnoreSetting(outside); err != nil {
		return opts, fmt.Errorf("--dep-outside-workspace: %w", err)
	}
	return opts, nil
}

func runPropagate(cmd *cobra.Command, _ []string) error {
	showPath, _ := cmd.Flags().GetBool("show-path")
	showDiff, _ := cmd.Flags().GetBool("diff")

	opts, err := propagateOptions(cmd)
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fix := opts.Fix
	// A diff needs the edits even when nothing is written.
	opts.Fix = fix || showDiff
	edits := rewrite.NewEditMap()
	res, err := lint.Propagate(e.graph, opts, edits)
	if err != nil {
		return err
	}
	if err := lint.WriteReport(out, res, showPath); err != nil {
		return err
	}

	fixed := 0
	if opts.Fix && edits.Len() > 0 {
		policy := rewrite.DefaultPolicy()
		changes, err := rewrite.Plan(e.ws, edits, policy)
		if err != nil {
			return err
		}
		if showDiff {
			d, err := e.ws.Diff(changes, policy)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(out, d)
		}
		if fix {
			applied := e.ws.Apply(changes, policy)
			for _, name := range applied.FailedPackages() {
				e.log.Error("could not write fixes", "package", name, "error", applied.Failed[name])
			}
			e.log.Debug("wrote manifests", "count", len(applied.Written))
			fixed = res.Fixed(applied.FailedPackages()...)
		}
	}

	issues := res.Issues()
	summary := lint.Summary(issues, fixed, fix)
	if summary == "" {
		e.log.Info("no propagation issues", "features", opts.Features)
		return nil
	}
	if fixed == issues {
		_, _ = fmt.Fprintln(out, e.palette.OK(summary))
		return nil
	}
	_, _ = fmt.Fprintln(out, e.palette.Warn(summary))
	return issuesRemain(cmd)
}
