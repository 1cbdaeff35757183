package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/featlint/internal/graph"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace FROM TO",
		Short: "Show how one package depends on another",
		Long: `Print the shortest dependency path from FROM to TO. With --all every
simple path is printed, shortest first, up to --max-paths.`,
		Args: cobra.ExactArgs(2),
		RunE: runTrace,
	}
	cmd.Flags().Bool("all", false, "Print all paths instead of the shortest")
	cmd.Flags().Int("max-paths", 100, "Stop after this many paths with --all")
	cmd.Flags().String("path-delimiter", " -> ", "Delimiter between path elements (\\n and \\t are unescaped)")
	return cmd
}

func runTrace(cmd *cobra.Command, args []string) error {
	from, to := args[0], args[1]
	all, _ := cmd.Flags().GetBool("all")
	maxPaths, _ := cmd.Flags().GetInt("max-paths")
	delim, _ := cmd.Flags().GetString("path-delimiter")
	delim = unescapeDelimiter(delim)

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	pg := graph.BuildPackageGraph(e.model)

	var paths [][]string
	if all {
		if maxPaths <= 0 {
			return fmt.Errorf("--max-paths must be positive")
		}
		if paths, err = pg.AllPaths(from, to, maxPaths); err != nil {
			return err
		}
	} else {
		p, err := pg.ShortestPath(from, to)
		if err != nil {
			return err
		}
		if p != nil {
			paths = [][]string{p}
		}
	}
	if len(paths) == 0 {
		return &exitError{code: 1, err: fmt.Errorf("no path from %s to %s", from, to)}
	}
	e.log.Info("found paths", "count", len(paths))
	for _, p := range paths {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(p, delim))
	}
	return nil
}
