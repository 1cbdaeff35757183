package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/lint"
)

func newNoStdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "no-std",
		Short: "Check packages that build without the standard library",
	}
	cmd.AddCommand(newDefaultFeaturesDisabledCmd())
	return cmd
}

func newDefaultFeaturesDisabledCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "default-features-of-nostd-dependencies-disabled",
		Short: "Check that no-std packages disable default features of their no-std dependencies",
		Long: `Packages marked "no-std: true" must depend on other no-std packages with
"default-features: false", since default features commonly enable std. Only
normal dependencies are checked. With --fix the key is written into the
dependency entry.`,
		Args: cobra.NoArgs,
		RunE: runDefaultFeaturesDisabled,
	}
	cmd.Flags().BoolP("fix", "f", false, "Write default-features: false into the manifests")
	return cmd
}

func runDefaultFeaturesDisabled(cmd *cobra.Command, _ []string) error {
	fix, _ := cmd.Flags().GetBool("fix")

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	issues := lint.NoStdDefaultFeatures(e.model)
	if len(issues) == 0 {
		e.log.Info("no-std dependencies already disable default features")
		return nil
	}

	out := cmd.OutOrStdout()
	byPkg := map[string][]string{}
	for _, i := range issues {
		_, _ = fmt.Fprintln(out, i.String())
		byPkg[i.Package] = append(byPkg[i.Package], i.Dep)
	}
	if !fix {
		_, _ = fmt.Fprintln(out, lint.NoStdSummary(issues, false))
		return issuesRemain(cmd)
	}

	res := e.ws.DisableDefaultFeatures(byPkg)
	if err := res.Err(); err != nil {
		return err
	}
	e.log.Debug("wrote manifests", "packages", res.Written)
	_, _ = fmt.Fprintln(out, lint.NoStdSummary(issues, true))
	return nil
}
