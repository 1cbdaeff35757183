package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/lint"
)

func newNeverImpliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "never-implies",
		Short: "Check that enabling one feature never enables another",
		Args:  cobra.NoArgs,
		RunE:  runNeverImplies,
	}
	cmd.Flags().String("precondition", "", "Feature that is enabled")
	cmd.Flags().String("stays-disabled", "", "Feature that must stay disabled")
	cmd.Flags().String("path-delimiter", " -> ", "Delimiter between path elements (\\n and \\t are unescaped)")
	_ = cmd.MarkFlagRequired("precondition")
	_ = cmd.MarkFlagRequired("stays-disabled")
	return cmd
}

func runNeverImplies(cmd *cobra.Command, _ []string) error {
	pre, _ := cmd.Flags().GetString("precondition")
	stays, _ := cmd.Flags().GetString("stays-disabled")
	delim, _ := cmd.Flags().GetString("path-delimiter")

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	e.log.Info("checking implication", "precondition", pre, "stays-disabled", stays)

	imp, err := lint.NeverImplies(e.graph, pre, stays)
	if err != nil {
		return err
	}
	if imp == nil {
		e.log.Info("no path found", "from", pre, "to", stays)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Feature '%s' implies '%s' via path:\n  %s\n",
		pre, stays, imp.Format(unescapeDelimiter(delim)))
	return issuesRemain(cmd)
}

func newNeverEnablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "never-enables",
		Short: "Check that a feature never directly enables another",
		Args:  cobra.NoArgs,
		RunE:  runNeverEnables,
	}
	cmd.Flags().String("precondition", "", "Feature whose activation list is checked")
	cmd.Flags().String("stays-disabled", "", "Feature it must not enable")
	_ = cmd.MarkFlagRequired("precondition")
	_ = cmd.MarkFlagRequired("stays-disabled")
	return cmd
}

func runNeverEnables(cmd *cobra.Command, _ []string) error {
	pre, _ := cmd.Flags().GetString("precondition")
	stays, _ := cmd.Flags().GetString("stays-disabled")

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	offenders := lint.NeverEnables(e.graph, pre, stays)
	if len(offenders) == 0 {
		e.log.Info("no package enables the feature", "precondition", pre, "stays-disabled", stays)
		return nil
	}
	var b strings.Builder
	for _, o := range offenders {
		fmt.Fprintf(&b, "package '%s'\n  feature '%s'\n", o.Package, pre)
		if o.Self {
			fmt.Fprintf(&b, "    enables feature '%s' on itself\n", stays)
		}
		if len(o.Deps) > 0 {
			fmt.Fprintf(&b, "    enables feature '%s' on dependencies:\n", stays)
			for _, d := range o.Deps {
				b.WriteString("      " + d + "\n")
			}
		}
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), b.String())
	return issuesRemain(cmd)
}

func newOnlyEnablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "only-enables",
		Short: "Check that only one feature enables a dependency feature",
		Args:  cobra.NoArgs,
		RunE:  runOnlyEnables,
	}
	cmd.Flags().String("precondition", "", "The only feature allowed to enable it")
	cmd.Flags().String("only-enables", "", "Dependency feature to guard")
	_ = cmd.MarkFlagRequired("precondition")
	_ = cmd.MarkFlagRequired("only-enables")
	return cmd
}

func runOnlyEnables(cmd *cobra.Command, _ []string) error {
	pre, _ := cmd.Flags().GetString("precondition")
	only, _ := cmd.Flags().GetString("only-enables")

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	found := lint.OnlyEnables(e.graph, pre, only)
	for _, en := range found {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), en.String())
	}
	if len(found) > 0 {
		return issuesRemain(cmd)
	}
	return nil
}

func newWhyEnabledCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "why-enabled",
		Short: "List the features that directly enable a feature",
		Args:  cobra.NoArgs,
		RunE:  runWhyEnabled,
	}
	cmd.Flags().StringP("package", "p", "", "Package declaring the feature")
	cmd.Flags().String("feature", "", "Feature to explain")
	_ = cmd.MarkFlagRequired("package")
	_ = cmd.MarkFlagRequired("feature")
	return cmd
}

func runWhyEnabled(cmd *cobra.Command, _ []string) error {
	pkg, _ := cmd.Flags().GetString("package")
	feature, _ := cmd.Flags().GetString("feature")

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	by, err := lint.WhyEnabled(e.graph, pkg, feature)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(by) == 0 {
		_, _ = fmt.Fprintf(out, "Feature %s/%s is not enabled by any other feature\n", pkg, feature)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Feature %s/%s is enabled by:\n", pkg, feature)
	for _, n := range by {
		_, _ = fmt.Fprintln(out, "  "+n)
	}
	return nil
}
