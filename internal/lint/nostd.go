package lint

import (
	"fmt"

	"github.com/fbkclanna/featlint/internal/model"
)

// NoStdIssue is a normal dependency between two no-std packages that keeps
// the target's default features, which usually pull in std.
type NoStdIssue struct {
	Package string
	// Dep is the local name the package uses for the dependency.
	Dep    string
	Target string
}

func (i NoStdIssue) String() string {
	return fmt.Sprintf("Default features not disabled for dependency: %s -> %s", i.Package, i.Target)
}

// NoStdDefaultFeatures finds normal dependencies from a no-std member onto a
// no-std package that leave default features enabled.
func NoStdDefaultFeatures(ws *model.Workspace) []NoStdIssue {
	var out []NoStdIssue
	for _, pkg := range ws.Members() {
		if !pkg.NoStd {
			continue
		}
		for _, d := range pkg.Dependencies {
			if d.Kind != model.Normal || !d.DefaultFeatures {
				continue
			}
			target := ws.Resolve(d)
			if target == nil || !target.NoStd {
				continue
			}
			out = append(out, NoStdIssue{Package: pkg.Name, Dep: d.LocalName(), Target: target.Name})
		}
	}
	return out
}

// NoStdSummary is the closing line of a no-std run.
func NoStdSummary(issues []NoStdIssue, fixed bool) string {
	pkgs := map[string]bool{}
	for _, i := range issues {
		pkgs[i.Package] = true
	}
	s := fmt.Sprintf("Found %d issue%s in %d package%s ", len(issues), plural(len(issues)), len(pkgs), plural(len(pkgs)))
	if fixed {
		return s + "and fixed all of them."
	}
	return s + "and fixed none. Re-run with --fix to apply fixes."
}
