package lint

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fbkclanna/featlint/internal/graph"
	"github.com/fbkclanna/featlint/internal/model"
	"github.com/fbkclanna/featlint/internal/rewrite"
)

// PropagateOptions configures Propagate.
type PropagateOptions struct {
	// Features to check. Duplicates are allowed.
	Features []string
	// Packages limits the check to these members. Empty means every member.
	Packages []string
	Kinds    KindFilter
	// IgnoreMissing suppresses individual package/feature to dependency pairs.
	IgnoreMissing []IgnorePair
	// FeatureEnablesDep forces strong activations for optional dependencies.
	FeatureEnablesDep []EnablesDep
	// LeftSideMissing governs packages that lack a feature their
	// dependencies expose.
	LeftSideMissing MuteSetting
	// OutsideWorkspace governs dependencies on external packages.
	OutsideWorkspace IgnoreSetting
	Fix              bool
	// FixPackage restricts fixes to one package.
	FixPackage string
	// FixDependency restricts fixes to one dependency, by package or local
	// name.
	FixDependency string
}

// FindingKind tells the two propagation findings apart.
type FindingKind int

const (
	// RequiredBy: the package lacks a feature its dependencies expose.
	RequiredBy FindingKind = iota
	// MustPropagate: the package declares the feature but does not pass it
	// on to every dependency exposing it.
	MustPropagate
)

func (k FindingKind) String() string {
	if k == RequiredBy {
		return "required-by"
	}
	return "must-propagate"
}

// Finding is one propagation violation.
type Finding struct {
	Package      string
	ManifestPath string
	Feature      string
	Kind         FindingKind
	// Deps are the display names of the offending dependencies, sorted.
	Deps []string
	// Issues counted for this finding.
	Issues int
	// Fixed is the number of issues with a recorded edit.
	Fixed int
}

// PropagateResult is the outcome of Propagate.
type PropagateResult struct {
	// Findings in feature order, then package name order.
	Findings []Finding
}

// Issues returns the total number of issues.
func (r *PropagateResult) Issues() int {
	n := 0
	for _, f := range r.Findings {
		n += f.Issues
	}
	return n
}

// Fixed returns the number of issues with a recorded edit, not counting
// packages listed in failed.
func (r *PropagateResult) Fixed(failed ...string) int {
	skip := make(map[string]bool, len(failed))
	for _, p := range failed {
		skip[p] = true
	}
	n := 0
	for _, f := range r.Findings {
		if !skip[f.Package] {
			n += f.Fixed
		}
	}
	return n
}

type depRef struct {
	dep    *model.Dependency
	target *model.Package
}

// Propagate checks that every in-scope package passes the requested features
// on to each dependency that exposes them. With Fix set, edits go to edits.
func Propagate(g *graph.FeatureGraph, opts PropagateOptions, edits *rewrite.EditMap) (*PropagateResult, error) {
	ws := g.Workspace()
	scope, err := scopePackages(ws, opts.Packages)
	if err != nil {
		return nil, err
	}

	res := &PropagateResult{}
	for _, feature := range uniqueSorted(opts.Features) {
		for _, pkg := range scope {
			requiredBy, missing := propagateOne(g, pkg, feature, opts)

			if len(requiredBy) > 0 {
				f := Finding{
					Package:      pkg.Name,
					ManifestPath: pkg.ManifestPath,
					Feature:      feature,
					Kind:         RequiredBy,
					Deps:         displayNames(requiredBy),
					Issues:       1,
				}
				if opts.Fix && opts.LeftSideMissing == MuteFix && fixesPackage(opts, pkg.Name) {
					edits.EnsureFeature(pkg.Name, feature)
					f.Fixed = 1
				}
				res.Findings = append(res.Findings, f)
			}

			if len(missing) > 0 {
				f := Finding{
					Package:      pkg.Name,
					ManifestPath: pkg.ManifestPath,
					Feature:      feature,
					Kind:         MustPropagate,
					Deps:         displayNames(missing),
					Issues:       len(missing),
				}
				if opts.Fix && fixesPackage(opts, pkg.Name) {
					for _, ref := range missing {
						if !fixesDependency(opts, ref.dep) {
							continue
						}
						weak := ref.dep.Optional && !enablesDep(opts, feature, ref.dep)
						edits.Add(pkg.Name, feature, model.FormatActivation(ref.dep.LocalName(), feature, weak))
						f.Fixed++
					}
				}
				res.Findings = append(res.Findings, f)
			}
		}
	}
	return res, nil
}

// propagateOne evaluates one package for one feature. It returns the
// dependencies that require the feature on a package lacking it, and the
// dependencies the declared feature fails to reach.
func propagateOne(g *graph.FeatureGraph, pkg *model.Package, feature string, opts PropagateOptions) (requiredBy, missing []depRef) {
	ws := g.Workspace()
	declared := pkg.Declares(feature)
	var self *model.Feature
	if declared {
		self, _ = pkg.Feature(feature)
	}

	seen := make(map[string]bool, len(pkg.Dependencies))
	for i := range pkg.Dependencies {
		d := &pkg.Dependencies[i]
		if !opts.Kinds.Checks(d.Kind) || seen[d.LocalName()] {
			continue
		}
		target := ws.Resolve(*d)
		if target.External && opts.OutsideWorkspace == Ignore {
			continue
		}
		if !g.Exposes(target.Name, feature) || ignored(opts, pkg.Name, target.Name, feature) {
			continue
		}
		seen[d.LocalName()] = true

		if !declared {
			if opts.LeftSideMissing != MuteIgnore {
				requiredBy = append(requiredBy, depRef{d, target})
			}
			continue
		}
		if propagates(g, self, d, target, feature) {
			continue
		}
		missing = append(missing, depRef{d, target})
	}
	return requiredBy, missing
}

// propagates reports whether feature already reaches the dependency, either
// through an entry of the feature's own list or through the dependency's
// default features enabling it internally.
func propagates(g *graph.FeatureGraph, self *model.Feature, d *model.Dependency, target *model.Package, feature string) bool {
	for _, a := range self.Activations {
		if a.Targets(d.LocalName(), feature) {
			return true
		}
	}
	if !d.DefaultFeatures {
		return false
	}
	from, ok := g.Lookup(target.Name, "default")
	if !ok {
		return false
	}
	to, ok := g.Lookup(target.Name, feature)
	if !ok {
		return false
	}
	return g.Reachable(from, to, func(_ *graph.Node, e graph.Edge) bool { return e.Local })
}

func scopePackages(ws *model.Workspace, names []string) ([]*model.Package, error) {
	members := ws.Members()
	var scope []*model.Package
	if len(names) == 0 {
		scope = append(scope, members...)
	} else {
		for _, n := range uniqueSorted(names) {
			p, ok := ws.Member(n)
			if !ok {
				return nil, graph.NewQueryError(graph.ErrUnknownPackage, n, memberNames(ws))
			}
			scope = append(scope, p)
		}
	}
	sort.SliceStable(scope, func(i, j int) bool { return scope[i].Name < scope[j].Name })
	return scope, nil
}

func memberNames(ws *model.Workspace) []string {
	names := make([]string, 0, len(ws.Members()))
	for _, p := range ws.Members() {
		names = append(names, p.Name)
	}
	return names
}

func ignored(opts PropagateOptions, pkg, dep, feature string) bool {
	for _, p := range opts.IgnoreMissing {
		if p.Package == pkg && p.Feature == feature && p.Dep == dep && p.DepFeature == feature {
			return true
		}
	}
	return false
}

func enablesDep(opts PropagateOptions, feature string, d *model.Dependency) bool {
	for _, e := range opts.FeatureEnablesDep {
		if e.Feature == feature && (e.Dep == d.LocalName() || e.Dep == d.Name) {
			return true
		}
	}
	return false
}

func fixesPackage(opts PropagateOptions, pkg string) bool {
	return opts.FixPackage == "" || opts.FixPackage == pkg
}

func fixesDependency(opts PropagateOptions, d *model.Dependency) bool {
	return opts.FixDependency == "" || opts.FixDependency == d.LocalName() || opts.FixDependency == d.Name
}

func displayNames(refs []depRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.dep.DisplayName()
	}
	sort.Strings(out)
	return out
}

func uniqueSorted(in []string) []string {
	set := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := set[s]; ok {
			continue
		}
		set[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// WriteReport renders the findings grouped per package and feature. With
// showPath set, manifest paths follow the package name.
func WriteReport(w io.Writer, r *PropagateResult, showPath bool) error {
	var b strings.Builder
	for i := 0; i < len(r.Findings); {
		head := r.Findings[i]
		name := fmt.Sprintf("'%s'", head.Package)
		if showPath && head.ManifestPath != "" {
			name += fmt.Sprintf(" (%s)", head.ManifestPath)
		}
		fmt.Fprintf(&b, "package %s\n  feature '%s'\n", name, head.Feature)

		for ; i < len(r.Findings) && r.Findings[i].Package == head.Package && r.Findings[i].Feature == head.Feature; i++ {
			f := r.Findings[i]
			switch f.Kind {
			case RequiredBy:
				suffix := "ies"
				if len(f.Deps) == 1 {
					suffix = "y"
				}
				fmt.Fprintf(&b, "    is required by %d dependenc%s:\n", len(f.Deps), suffix)
			case MustPropagate:
				b.WriteString("    must propagate to:\n")
			}
			for _, d := range f.Deps {
				b.WriteString("      " + d + "\n")
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Summary returns the closing line of a propagation report, or "" when
// nothing was found.
func Summary(issues, fixed int, fix bool) string {
	if issues == 0 && fixed == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Found ")
	if issues > 0 {
		fmt.Fprintf(&b, "%d issue%s", issues, plural(issues))
	}
	if fix {
		if issues > 0 {
			b.WriteString(" and")
		}
		fmt.Fprintf(&b, " fixed %d", fixed)
		if fixed > 0 && fixed == issues {
			b.WriteString(" (all fixed)")
		}
		if fixed < issues {
			fmt.Fprintf(&b, " (%d could not be fixed)", issues-fixed)
		}
	} else {
		b.WriteString(" (run with `--fix` to fix)")
	}
	b.WriteString(".")
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
