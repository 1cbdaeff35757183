package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/graph"
	"github.com/fbkclanna/featlint/internal/model"
	"github.com/fbkclanna/featlint/internal/ui"
)

func newDebugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "debug",
		Short:  "Print workspace statistics and graph build timing",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE:   runDebug,
	}
	cmd.Flags().Bool("no-benchmark", false, "Skip timing the graph build")
	cmd.Flags().Bool("no-root", false, "Do not print the workspace root")
	cmd.Flags().Bool("packages", false, "Print a table of all members")
	return cmd
}

func runDebug(cmd *cobra.Command, _ []string) error {
	noBench, _ := cmd.Flags().GetBool("no-benchmark")
	noRoot, _ := cmd.Flags().GetBool("no-root")
	showPkgs, _ := cmd.Flags().GetBool("packages")

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !noRoot {
		_, _ = fmt.Fprintf(out, "Root: %s\n", e.ws.Root)
	}
	_, _ = fmt.Fprintf(out, "Num workspace members: %d\n", len(e.model.Members()))
	_, _ = fmt.Fprintf(out, "Num external packages: %d\n", len(e.model.External()))
	_, _ = fmt.Fprintf(out, "Graph nodes: %d, edges: %d\n", e.graph.NumNodes(), e.graph.NumEdges())

	if showPkgs {
		if err := printPackages(cmd, e); err != nil {
			return err
		}
	}

	if !noBench {
		took, runs, err := measureBuild(e.model)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Graph setup time: %s (avg from %d runs)\n", took, runs)
	}
	return nil
}

// printPackages tabulates every member with its dependency counts per kind
// and the packages it depends on.
func printPackages(cmd *cobra.Command, e *env) error {
	headers := []string{"PACKAGE"}
	for _, k := range model.DepKinds {
		headers = append(headers, strings.ToUpper(k.String()))
	}
	headers = append(headers, "DEPENDS ON", "FEATURES", "MANIFEST")

	pg := graph.BuildPackageGraph(e.model)
	tbl := ui.NewTable(cmd.OutOrStdout(), e.palette, headers...)
	for _, p := range e.model.Members() {
		counts := make(map[model.DepKind]int, len(model.DepKinds))
		for _, d := range p.Dependencies {
			counts[d.Kind]++
		}
		deps, err := pg.Dependencies(p.Name)
		if err != nil {
			return err
		}
		depsCell := strings.Join(deps, ",")
		if depsCell == "" {
			depsCell = "-"
		}

		row := []any{p.Name}
		for _, k := range model.DepKinds {
			row = append(row, counts[k])
		}
		row = append(row, depsCell, len(p.Features), p.ManifestPath)
		tbl.Row(row...)
	}
	return tbl.Flush()
}

// measureBuild times graph construction over at least 10 runs or one second,
// whichever takes longer.
func measureBuild(ws *model.Workspace) (time.Duration, int, error) {
	var total time.Duration
	runs := 0
	for runs < 10 || total < time.Second {
		start := time.Now()
		if _, err := graph.Build(ws); err != nil {
			return 0, 0, err
		}
		total += time.Since(start)
		runs++
	}
	return (total / time.Duration(runs)).Round(time.Microsecond), runs, nil
}
