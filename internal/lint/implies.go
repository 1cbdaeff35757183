package lint

import (
	"sort"
	"strings"

	"github.com/fbkclanna/featlint/internal/graph"
	"github.com/fbkclanna/featlint/internal/model"
)

// Implication is a counter-example: a chain of activations leading from a
// precondition feature to a forbidden one.
type Implication struct {
	Precondition string
	Forbidden    string
	Path         []string
}

// Format joins the path with delim.
func (i *Implication) Format(delim string) string {
	return strings.Join(i.Path, delim)
}

// NeverImplies searches for any path from a feature named precondition to a
// feature named forbidden. It returns nil when none exists. Starting nodes are
// tried in package declaration order and each search is breadth-first, so
// the result is the first shortest path of the first package that has one.
func NeverImplies(g *graph.FeatureGraph, precondition, forbidden string) (*Implication, error) {
	if len(g.Workspace().All()) == 0 {
		return nil, nil
	}
	starts := g.NodesNamed(precondition)
	if len(starts) == 0 {
		return nil, graph.NewQueryError(graph.ErrUnknownFeature, precondition, g.FeatureNames())
	}
	if len(g.NodesNamed(forbidden)) == 0 {
		return nil, graph.NewQueryError(graph.ErrUnknownFeature, forbidden, g.FeatureNames())
	}

	isForbidden := func(n *graph.Node) bool {
		return n.Kind == graph.FeatureNode && n.Feature == forbidden
	}
	for _, start := range starts {
		if path := g.FindPath(start, isForbidden, nil); path != nil {
			return &Implication{Precondition: precondition, Forbidden: forbidden, Path: g.Strings(path)}, nil
		}
	}
	return nil, nil
}

// Offender is a package whose precondition feature directly enables the
// forbidden feature on itself or on dependencies.
type Offender struct {
	Package string
	// Self is set when the package enables the feature locally.
	Self bool
	// Deps are display names of the dependencies it is enabled on, sorted.
	Deps []string
}

// NeverEnables lists members whose precondition feature directly enables
// forbidden, either locally or on a dependency.
func NeverEnables(g *graph.FeatureGraph, precondition, forbidden string) []Offender {
	var out []Offender
	for _, pkg := range g.Workspace().Members() {
		f, ok := pkg.Feature(precondition)
		if !ok {
			continue
		}
		o := Offender{Package: pkg.Name}
		seen := map[string]bool{}
		for _, a := range f.Activations {
			switch {
			case a.Kind == model.Local && a.Feature == forbidden:
				o.Self = true
			case (a.Kind == model.Strong || a.Kind == model.Weak) && a.Feature == forbidden:
				d, _ := pkg.Dependency(a.Dep)
				if name := d.DisplayName(); !seen[name] {
					seen[name] = true
					o.Deps = append(o.Deps, name)
				}
			}
		}
		if o.Self || len(o.Deps) > 0 {
			sort.Strings(o.Deps)
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}

// Enablement records that Package/Feature enables Dep/DepFeature.
type Enablement struct {
	Package    string
	Feature    string
	Dep        string
	DepFeature string
}

func (e Enablement) String() string {
	return e.Package + "/" + e.Feature + " enables " + e.Dep + "/" + e.DepFeature
}

// OnlyEnables lists features other than precondition that enable the feature
// named only on a dependency.
func OnlyEnables(g *graph.FeatureGraph, precondition, only string) []Enablement {
	var out []Enablement
	for _, pkg := range g.Workspace().Members() {
		for _, d := range pkg.Dependencies {
			target := g.Workspace().Resolve(d)
			if !g.Exposes(target.Name, only) {
				continue
			}
			for _, f := range pkg.Features {
				if f.Name == precondition {
					continue
				}
				for _, a := range f.Activations {
					if a.Targets(d.LocalName(), only) {
						out = append(out, Enablement{Package: pkg.Name, Feature: f.Name, Dep: d.LocalName(), DepFeature: only})
						break
					}
				}
			}
		}
	}
	return dedupEnablements(out)
}

func dedupEnablements(in []Enablement) []Enablement {
	seen := make(map[Enablement]bool, len(in))
	out := in[:0]
	for _, e := range in {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// WhyEnabled returns the nodes with an edge into pkg/feature.
func WhyEnabled(g *graph.FeatureGraph, pkg, feature string) ([]string, error) {
	p, ok := g.Workspace().Package(pkg)
	if !ok {
		names := make([]string, 0, len(g.Workspace().All()))
		for _, q := range g.Workspace().All() {
			names = append(names, q.Name)
		}
		return nil, graph.NewQueryError(graph.ErrUnknownPackage, pkg, names)
	}
	id, ok := g.Lookup(pkg, feature)
	if !ok {
		names := make([]string, 0, len(p.Features))
		for _, f := range p.Features {
			names = append(names, f.Name)
		}
		return nil, graph.NewQueryError(graph.ErrUnknownFeature, feature, names)
	}

	preds := g.Predecessors(id)
	out := make([]string, len(preds))
	for i, n := range preds {
		out[i] = g.Node(n).String()
	}
	sort.Strings(out)
	return out, nil
}
