package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fbkclanna/featlint/internal/model"
)

// Duplicate is a dependency declared identically as normal and dev.
type Duplicate struct {
	Package string
	Dep     string
}

func (d Duplicate) String() string {
	return fmt.Sprintf("package '%s' has duplicated '%s' in both dependencies and dev-dependencies", d.Package, d.Dep)
}

// DuplicateDeps finds dev-dependencies that repeat a normal dependency with
// the same declaration.
func DuplicateDeps(ws *model.Workspace) []Duplicate {
	var out []Duplicate
	for _, pkg := range ws.Members() {
		normal := map[string]bool{}
		for _, d := range pkg.Dependencies {
			if d.Kind == model.Normal {
				normal[declKey(d)] = true
			}
		}
		seen := map[string]bool{}
		for _, d := range pkg.Dependencies {
			k := declKey(d)
			if d.Kind == model.Dev && normal[k] && !seen[k] {
				seen[k] = true
				out = append(out, Duplicate{Package: pkg.Name, Dep: d.DisplayName()})
			}
		}
	}
	return out
}

// declKey identifies a declaration regardless of its kind.
func declKey(d model.Dependency) string {
	features := append([]string(nil), d.Features...)
	sort.Strings(features)
	return fmt.Sprintf("%s|%s|%t|%t|%s", d.Name, d.Rename, d.Optional, d.DefaultFeatures, strings.Join(features, ","))
}
