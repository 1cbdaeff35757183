package lint

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbkclanna/featlint/internal/graph"
	"github.com/fbkclanna/featlint/internal/model"
	"github.com/fbkclanna/featlint/internal/rewrite"
)

func dep(name string) model.Dependency {
	return model.Dependency{Name: name, DefaultFeatures: true}
}

func feat(name string, entries ...string) model.RawFeature {
	return model.RawFeature{Name: name, Activations: entries}
}

func build(t *testing.T, pkgs ...model.RawPackage) *graph.FeatureGraph {
	t.Helper()
	ws, err := model.New(model.Snapshot{Packages: pkgs})
	require.NoError(t, err)
	g, err := graph.Build(ws)
	require.NoError(t, err)
	return g
}

func fixOpts(features ...string) PropagateOptions {
	return PropagateOptions{Features: features, LeftSideMissing: MuteFix, Fix: true}
}

func TestPropagate_Scenarios(t *testing.T) {
	optional := func(d model.Dependency) model.Dependency { d.Optional = true; return d }
	renamed := optional(dep("B"))
	renamed.Rename = "b"

	tests := []struct {
		name      string
		dep       model.Dependency
		wantEntry string
		wantName  string
	}{
		{"strong", dep("B"), "B/F0", "B"},
		{"optional is weak", optional(dep("B")), "B?/F0", "B"},
		{"renamed optional", renamed, "b?/F0", "b (renamed from B)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t,
				model.RawPackage{Name: "A", Dependencies: []model.Dependency{tt.dep}, Features: []model.RawFeature{feat("F0")}},
				model.RawPackage{Name: "B", Features: []model.RawFeature{feat("F0")}},
			)
			edits := rewrite.NewEditMap()
			res, err := Propagate(g, fixOpts("F0"), edits)
			require.NoError(t, err)

			require.Len(t, res.Findings, 1)
			f := res.Findings[0]
			assert.Equal(t, MustPropagate, f.Kind)
			assert.Equal(t, "A", f.Package)
			assert.Equal(t, []string{tt.wantName}, f.Deps)
			assert.Equal(t, 1, res.Issues())
			assert.Equal(t, 1, res.Fixed())
			assert.Equal(t, []string{tt.wantEntry}, edits.Entries(rewrite.Key{Package: "A", Feature: "F0"}))
		})
	}
}

func TestPropagate_ChainScope(t *testing.T) {
	g := build(t,
		model.RawPackage{Name: "A", Dependencies: []model.Dependency{dep("B")}, Features: []model.RawFeature{feat("F0")}},
		model.RawPackage{Name: "B", Dependencies: []model.Dependency{dep("C")}},
		model.RawPackage{Name: "C", Features: []model.RawFeature{feat("F0")}},
	)

	res, err := Propagate(g, PropagateOptions{Features: []string{"F0"}, Packages: []string{"B"}, LeftSideMissing: MuteFix}, rewrite.NewEditMap())
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, RequiredBy, res.Findings[0].Kind)
	assert.Equal(t, []string{"C"}, res.Findings[0].Deps)

	var out bytes.Buffer
	require.NoError(t, WriteReport(&out, res, false))
	assert.Equal(t, "package 'B'\n  feature 'F0'\n    is required by 1 dependency:\n      C\n", out.String())

	res, err = Propagate(g, PropagateOptions{Features: []string{"F0"}, Packages: []string{"A"}, LeftSideMissing: MuteFix}, rewrite.NewEditMap())
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
}

func TestPropagate_RequiredByFixCreatesStubOnly(t *testing.T) {
	g := build(t,
		model.RawPackage{Name: "A", Dependencies: []model.Dependency{dep("B")}},
		model.RawPackage{Name: "B", Features: []model.RawFeature{feat("std")}},
	)
	edits := rewrite.NewEditMap()
	res, err := Propagate(g, fixOpts("std"), edits)
	require.NoError(t, err)

	key := rewrite.Key{Package: "A", Feature: "std"}
	assert.True(t, edits.Creates(key))
	assert.Empty(t, edits.Entries(key))
	assert.Equal(t, 1, res.Issues())
	assert.Equal(t, 1, res.Fixed())
}

func TestPropagate_LeftSidePolicies(t *testing.T) {
	pkgs := []model.RawPackage{
		{Name: "A", Dependencies: []model.Dependency{dep("B")}},
		{Name: "B", Features: []model.RawFeature{feat("std")}},
	}

	opts := fixOpts("std")
	opts.LeftSideMissing = MuteIgnore
	res, err := Propagate(build(t, pkgs...), opts, rewrite.NewEditMap())
	require.NoError(t, err)
	assert.Empty(t, res.Findings)

	opts.LeftSideMissing = MuteReport
	edits := rewrite.NewEditMap()
	res, err = Propagate(build(t, pkgs...), opts, edits)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Issues())
	assert.Equal(t, 0, res.Fixed())
	assert.Zero(t, edits.Len())
}

func TestPropagate_KindFilter(t *testing.T) {
	devDep := dep("D")
	devDep.Kind = model.Dev
	buildDep := dep("E")
	buildDep.Kind = model.Build

	pkgs := []model.RawPackage{
		{Name: "A", Dependencies: []model.Dependency{dep("B"), devDep, buildDep}, Features: []model.RawFeature{feat("std")}},
		{Name: "B", Features: []model.RawFeature{feat("std")}},
		{Name: "D", Features: []model.RawFeature{feat("std")}},
		{Name: "E", Features: []model.RawFeature{feat("std")}},
	}

	res, err := Propagate(build(t, pkgs...), PropagateOptions{Features: []string{"std"}}, rewrite.NewEditMap())
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, []string{"B", "D", "E"}, res.Findings[0].Deps)

	kinds, err := ParseKindFilter([]string{"dev:ignore", "normal:check"})
	require.NoError(t, err)
	res, err = Propagate(build(t, pkgs...), PropagateOptions{Features: []string{"std"}, Kinds: kinds}, rewrite.NewEditMap())
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, []string{"B", "E"}, res.Findings[0].Deps)
}

func TestPropagate_FeatureEnablesDep(t *testing.T) {
	d := dep("B")
	d.Optional = true
	g := build(t,
		model.RawPackage{Name: "A", Dependencies: []model.Dependency{d}, Features: []model.RawFeature{feat("std")}},
		model.RawPackage{Name: "B", Features: []model.RawFeature{feat("std")}},
	)
	opts := fixOpts("std")
	opts.FeatureEnablesDep = []EnablesDep{{Feature: "std", Dep: "B"}}

	edits := rewrite.NewEditMap()
	_, err := Propagate(g, opts, edits)
	require.NoError(t, err)
	assert.Equal(t, []string{"B/std"}, edits.Entries(rewrite.Key{Package: "A", Feature: "std"}))
}

func TestPropagate_AlreadyPropagated(t *testing.T) {
	d := dep("C")
	d.Optional = true
	g := build(t,
		model.RawPackage{
			Name:         "A",
			Dependencies: []model.Dependency{dep("B"), d},
			Features:     []model.RawFeature{feat("std", "B/std", "C?/std")},
		},
		model.RawPackage{Name: "B", Features: []model.RawFeature{feat("std")}},
		model.RawPackage{Name: "C", Features: []model.RawFeature{feat("std")}},
	)
	res, err := Propagate(g, fixOpts("std", "std"), rewrite.NewEditMap())
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
	assert.Equal(t, "", Summary(res.Issues(), res.Fixed(), true))
}

func TestPropagate_DefaultFeaturesReach(t *testing.T) {
	g := build(t,
		model.RawPackage{Name: "A", Dependencies: []model.Dependency{dep("B")}, Features: []model.RawFeature{feat("std")}},
		model.RawPackage{Name: "B", Features: []model.RawFeature{feat("default", "std"), feat("std")}},
	)
	res, err := Propagate(g, PropagateOptions{Features: []string{"std"}}, rewrite.NewEditMap())
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
}

func TestPropagate_IgnoreAndOutside(t *testing.T) {
	ws, err := model.New(model.Snapshot{
		Packages: []model.RawPackage{
			{Name: "A", Dependencies: []model.Dependency{dep("B"), dep("serde")}, Features: []model.RawFeature{feat("std")}},
			{Name: "B", Features: []model.RawFeature{feat("std")}},
		},
	})
	require.NoError(t, err)
	g, err := graph.Build(ws)
	require.NoError(t, err)

	res, err := Propagate(g, PropagateOptions{Features: []string{"std"}}, rewrite.NewEditMap())
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, []string{"B", "serde"}, res.Findings[0].Deps)

	pair, err := ParseIgnorePair("A/std:B/std")
	require.NoError(t, err)
	res, err = Propagate(g, PropagateOptions{
		Features:         []string{"std"},
		IgnoreMissing:    []IgnorePair{pair},
		OutsideWorkspace: Ignore,
	}, rewrite.NewEditMap())
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
}

func TestPropagate_FixFilters(t *testing.T) {
	g := build(t,
		model.RawPackage{Name: "A", Dependencies: []model.Dependency{dep("B"), dep("C")}, Features: []model.RawFeature{feat("std")}},
		model.RawPackage{Name: "B", Features: []model.RawFeature{feat("std")}},
		model.RawPackage{Name: "C", Features: []model.RawFeature{feat("std")}},
	)
	opts := fixOpts("std")
	opts.FixDependency = "C"
	edits := rewrite.NewEditMap()
	res, err := Propagate(g, opts, edits)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Issues())
	assert.Equal(t, 1, res.Fixed())
	assert.Equal(t, []string{"C/std"}, edits.Entries(rewrite.Key{Package: "A", Feature: "std"}))
	assert.Equal(t, "Found 2 issues and fixed 1 (1 could not be fixed).", Summary(res.Issues(), res.Fixed(), true))
	assert.Equal(t, 0, res.Fixed("A"))

	opts.FixDependency = ""
	opts.FixPackage = "Z"
	edits = rewrite.NewEditMap()
	_, err = Propagate(g, opts, edits)
	require.NoError(t, err)
	assert.Zero(t, edits.Len())
}

func TestPropagate_UnknownScope(t *testing.T) {
	g := build(t, model.RawPackage{Name: "runtime"})
	_, err := Propagate(g, PropagateOptions{Features: []string{"std"}, Packages: []string{"runtim"}}, rewrite.NewEditMap())
	var qe *graph.QueryError
	require.True(t, errors.As(err, &qe))
	assert.ErrorIs(t, err, graph.ErrUnknownPackage)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Found 1 issue (run with `--fix` to fix).", Summary(1, 0, false))
	assert.Equal(t, "Found 3 issues and fixed 3 (all fixed).", Summary(3, 3, true))
}

func TestNeverImplies(t *testing.T) {
	g := build(t,
		model.RawPackage{
			Name:         "a",
			Dependencies: []model.Dependency{dep("b")},
			Features:     []model.RawFeature{feat("std", "b/std"), feat("runtime-benchmarks")},
		},
		model.RawPackage{
			Name:         "b",
			Dependencies: []model.Dependency{dep("a")},
			Features:     []model.RawFeature{feat("std", "a/std", "runtime-benchmarks"), feat("runtime-benchmarks")},
		},
	)

	imp, err := NeverImplies(g, "std", "runtime-benchmarks")
	require.NoError(t, err)
	require.NotNil(t, imp)
	assert.Equal(t, []string{"a/std", "b/std", "b/runtime-benchmarks"}, imp.Path)
	assert.Equal(t, "a/std -> b/std -> b/runtime-benchmarks", imp.Format(" -> "))

	imp, err = NeverImplies(g, "runtime-benchmarks", "std")
	require.NoError(t, err)
	assert.Nil(t, imp)
}

func TestNeverImplies_Errors(t *testing.T) {
	g := build(t, model.RawPackage{Name: "a", Features: []model.RawFeature{feat("std")}})
	_, err := NeverImplies(g, "sdt", "std")
	assert.ErrorIs(t, err, graph.ErrUnknownFeature)
	_, err = NeverImplies(g, "std", "nope")
	assert.ErrorIs(t, err, graph.ErrUnknownFeature)

	empty := build(t)
	imp, err := NeverImplies(empty, "std", "nope")
	require.NoError(t, err)
	assert.Nil(t, imp)
}

func TestNeverEnablesAndOnlyEnables(t *testing.T) {
	g := build(t,
		model.RawPackage{
			Name:         "a",
			Dependencies: []model.Dependency{dep("b")},
			Features: []model.RawFeature{
				feat("std", "b/runtime-benchmarks", "runtime-benchmarks"),
				feat("runtime-benchmarks", "b/runtime-benchmarks"),
				feat("try-runtime", "b/runtime-benchmarks"),
			},
		},
		model.RawPackage{Name: "b", Features: []model.RawFeature{feat("runtime-benchmarks")}},
	)

	offenders := NeverEnables(g, "std", "runtime-benchmarks")
	require.Len(t, offenders, 1)
	assert.Equal(t, Offender{Package: "a", Self: true, Deps: []string{"b"}}, offenders[0])

	got := OnlyEnables(g, "runtime-benchmarks", "runtime-benchmarks")
	var lines []string
	for _, e := range got {
		lines = append(lines, e.String())
	}
	assert.Equal(t, []string{
		"a/std enables b/runtime-benchmarks",
		"a/try-runtime enables b/runtime-benchmarks",
	}, lines)
}

func TestWhyEnabled(t *testing.T) {
	g := build(t,
		model.RawPackage{
			Name:         "a",
			Dependencies: []model.Dependency{dep("b")},
			Features:     []model.RawFeature{feat("std", "b/std"), feat("full", "std")},
		},
		model.RawPackage{Name: "b", Features: []model.RawFeature{feat("std")}},
	)

	by, err := WhyEnabled(g, "b", "std")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/std"}, by)

	by, err = WhyEnabled(g, "a", "std")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/full"}, by)

	_, err = WhyEnabled(g, "c", "std")
	assert.ErrorIs(t, err, graph.ErrUnknownPackage)
	_, err = WhyEnabled(g, "b", "alloc")
	assert.ErrorIs(t, err, graph.ErrUnknownFeature)
}

func TestDuplicateDeps(t *testing.T) {
	devB := dep("b")
	devB.Kind = model.Dev
	devC := dep("c")
	devC.Kind = model.Dev
	devC.Features = []string{"std"}

	ws, err := model.New(model.Snapshot{Packages: []model.RawPackage{
		{Name: "a", Dependencies: []model.Dependency{dep("b"), dep("c"), devB, devC}},
		{Name: "b"},
		{Name: "c", Features: []model.RawFeature{feat("std")}},
	}})
	require.NoError(t, err)

	dups := DuplicateDeps(ws)
	require.Len(t, dups, 1)
	assert.Equal(t, "package 'a' has duplicated 'b' in both dependencies and dev-dependencies", dups[0].String())
}

func TestNoStdDefaultFeatures(t *testing.T) {
	noDefaults := dep("b")
	noDefaults.DefaultFeatures = false
	renamed := dep("c")
	renamed.Rename = "see"
	devC := dep("c")
	devC.Kind = model.Dev

	ws, err := model.New(model.Snapshot{
		Packages: []model.RawPackage{
			{Name: "a", NoStd: true, Dependencies: []model.Dependency{renamed, dep("std-only"), dep("core")}},
			{Name: "b", NoStd: true},
			{Name: "c", NoStd: true},
			{Name: "d", NoStd: true, Dependencies: []model.Dependency{noDefaults, devC}},
			{Name: "e", Dependencies: []model.Dependency{dep("b")}},
			{Name: "std-only"},
		},
		External: []model.RawExternal{{Name: "core", NoStd: true}},
	})
	require.NoError(t, err)

	issues := NoStdDefaultFeatures(ws)
	assert.Equal(t, []NoStdIssue{
		{Package: "a", Dep: "see", Target: "c"},
		{Package: "a", Dep: "core", Target: "core"},
	}, issues)
	assert.Equal(t, "Default features not disabled for dependency: a -> c", issues[0].String())

	assert.Equal(t, "Found 2 issues in 1 package and fixed none. Re-run with --fix to apply fixes.", NoStdSummary(issues, false))
	assert.Equal(t, "Found 2 issues in 1 package and fixed all of them.", NoStdSummary(issues, true))
}

func TestParseOptions(t *testing.T) {
	_, err := ParseKindFilter([]string{"dev"})
	assert.Error(t, err)
	_, err = ParseKindFilter([]string{"weird:check"})
	assert.Error(t, err)

	_, err = ParseIgnorePair("A/std")
	assert.Error(t, err)

	e, err := ParseEnablesDep("std:B")
	require.NoError(t, err)
	assert.Equal(t, EnablesDep{Feature: "std", Dep: "B"}, e)

	m, err := ParseMuteSetting("Report")
	require.NoError(t, err)
	assert.Equal(t, MuteReport, m)
}
