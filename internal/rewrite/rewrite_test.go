package rewrite

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(values ...string) List {
	l := List{}
	for _, v := range values {
		l.Entries = append(l.Entries, Entry{Value: v})
	}
	return l
}

func TestCanonicalize_SortAndDedup(t *testing.T) {
	in := entries("c/std", "b?/std", "b/std", "c/std", "alloc")
	out := Canonicalize("std", in, ModeCanonicalize, DefaultPolicy())

	assert.Equal(t, []string{"alloc", "b/std", "b?/std", "c/std"}, out.Values())
	assert.True(t, out.Inline)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	lists := []List{
		entries(),
		entries("z", "a", "a"),
		{Entries: []Entry{
			{Value: "b/std", Head: []string{"# keep b"}},
			{Value: "a/std", Line: "# trailing"},
			{Value: "b/std", Line: "# second"},
		}},
		entries(strings.Repeat("x", 40)+"/std", strings.Repeat("y", 40)+"/std"),
	}
	for i, in := range lists {
		for _, mode := range []Mode{ModeNone, ModeSort, ModeCanonicalize} {
			t.Run(fmt.Sprintf("%d-%s", i, mode), func(t *testing.T) {
				p := DefaultPolicy()
				once := Canonicalize("std", in, mode, p)
				twice := Canonicalize("std", once, mode, p)
				assert.Equal(t, once, twice)
				assert.Equal(t, Render("std", once, p), Render("std", twice, p))
			})
		}
	}
}

func TestCanonicalize_CommentsTravel(t *testing.T) {
	in := List{Entries: []Entry{
		{Value: "c/std", Head: []string{"# about c"}},
		{Value: "a/std", Line: "# about a"},
		{Value: "c/std", Line: "# dup"},
	}}
	out := Canonicalize("std", in, ModeCanonicalize, DefaultPolicy())

	require.Len(t, out.Entries, 2)
	assert.Equal(t, Entry{Value: "a/std", Line: "# about a"}, out.Entries[0])
	assert.Equal(t, "c/std", out.Entries[1].Value)
	assert.Equal(t, []string{"# about c"}, out.Entries[1].Head)
	assert.Equal(t, "# dup", out.Entries[1].Line)
	assert.False(t, out.Inline, "comments force block layout")

	want := "  std:\n" +
		"    - \"a/std\" # about a\n" +
		"    # about c\n" +
		"    - \"c/std\" # dup\n"
	assert.Equal(t, want, Render("std", out, DefaultPolicy()))
}

func TestCanonicalize_WrapPolicy(t *testing.T) {
	p := DefaultPolicy()
	short := Canonicalize("std", entries("b/std", "a/std"), ModeCanonicalize, p)
	assert.Equal(t, "  std: [ \"a/std\", \"b/std\" ]\n", Render("std", short, p))

	p.LineWidth = 20
	long := Canonicalize("std", entries("b/std", "a/std"), ModeCanonicalize, p)
	assert.False(t, long.Inline)
	assert.Equal(t, "  std:\n    - \"a/std\"\n    - \"b/std\"\n", Render("std", long, p))
}

func TestCanonicalize_SortKeepsLayout(t *testing.T) {
	in := entries("b", "a")
	in.Inline = false
	out := Canonicalize("x", in, ModeSort, DefaultPolicy())
	assert.False(t, out.Inline)
	assert.Equal(t, []string{"a", "b"}, out.Values())
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "  std: []\n", Render("std", List{}, DefaultPolicy()))
	assert.Equal(t, "    \"with space\": []\n", Render("with space", List{Indent: "    "}, DefaultPolicy()))
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"none": ModeNone, "Sort": ModeSort, "canonicalize": ModeCanonicalize} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("fancy")
	assert.Error(t, err)
}

func TestPolicy_ModeFor(t *testing.T) {
	p := DefaultPolicy()
	p.Modes = map[string]Mode{"std": ModeSort}
	p.Ignore = map[string]bool{"runtime-benchmarks": true}

	assert.Equal(t, ModeSort, p.ModeFor("std"))
	assert.Equal(t, ModeNone, p.ModeFor("runtime-benchmarks"))
	assert.Equal(t, ModeCanonicalize, p.ModeFor("default"))
}

type fakeSource map[string]map[string]List

func (f fakeSource) FeatureList(pkg, feature string) (List, bool, error) {
	l, ok := f[pkg][feature]
	return l, ok, nil
}

func (f fakeSource) FeatureNames(pkg string) ([]string, error) {
	var names []string
	for n := range f[pkg] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func TestPlan_MergesEdits(t *testing.T) {
	src := fakeSource{"a": {"std": entries("c/std")}}
	edits := NewEditMap()
	edits.Add("a", "std", "b/std")
	edits.Add("a", "std", "b/std")
	edits.Add("a", "std", "c/std")
	edits.EnsureFeature("a", "runtime")

	changes, err := Plan(src, edits, DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "runtime", changes[0].Feature)
	assert.True(t, changes[0].Created)
	assert.Empty(t, changes[0].After.Entries)

	assert.Equal(t, "std", changes[1].Feature)
	assert.False(t, changes[1].Created)
	assert.Equal(t, []string{"b/std", "c/std"}, changes[1].After.Values())
}

func TestPlan_Deterministic(t *testing.T) {
	build := func(order []string) []Change {
		edits := NewEditMap()
		for _, pkg := range order {
			edits.Add(pkg, "std", "z/std")
			edits.Add(pkg, "std", "y/std")
		}
		changes, err := Plan(fakeSource{}, edits, DefaultPolicy())
		require.NoError(t, err)
		return changes
	}
	assert.Equal(t, build([]string{"b", "a", "c"}), build([]string{"c", "b", "a"}))
}

func TestFormatPlan(t *testing.T) {
	tidy := Canonicalize("std", entries("a/std"), ModeCanonicalize, DefaultPolicy())
	tidy.Text = Render("std", tidy, DefaultPolicy())

	messy := entries("b", "a", "a")
	messy.Text = "  messy: [b, a, a]\n"

	src := fakeSource{"p": {"std": tidy, "messy": messy, "skip": entries("z", "y")}}
	p := DefaultPolicy()
	p.Ignore = map[string]bool{"skip": true}

	changes, err := FormatPlan(src, []string{"p"}, p)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "messy", changes[0].Feature)
	assert.Equal(t, []string{"a", "b"}, changes[0].After.Values())
}

func TestFormatPlan_SortMode(t *testing.T) {
	sorted := List{
		Entries:    []Entry{{Value: "a", Raw: "'a'"}, {Value: "b", Raw: "b"}},
		Indent:     "    ",
		ItemIndent: "      ",
		Text:       "    std:\n      - 'a'\n      - b\n",
	}
	unsorted := List{
		Entries:    []Entry{{Value: "b", Raw: "b"}, {Value: "a", Raw: "'a'"}},
		Indent:     "    ",
		ItemIndent: "      ",
		Text:       "    std:\n      - b\n      - 'a'\n",
	}
	p := DefaultPolicy()
	p.Default = ModeSort

	changes, err := FormatPlan(fakeSource{"p": {"std": sorted}}, []string{"p"}, p)
	require.NoError(t, err)
	assert.Empty(t, changes, "already sorted lists are left alone")

	changes, err = FormatPlan(fakeSource{"p": {"std": unsorted}}, []string{"p"}, p)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, sorted.Text, Render("std", changes[0].After, p))

	p.Default = ModeCanonicalize
	canon := Canonicalize("std", unsorted, ModeCanonicalize, p)
	assert.Equal(t, "    std: [ \"a\", \"b\" ]\n", Render("std", canon, p))
}

func TestEditMap_KeysSorted(t *testing.T) {
	m := NewEditMap()
	m.Add("b", "std", "x/std")
	m.EnsureFeature("a", "z")
	m.Add("a", "std", "x/std")

	assert.Equal(t, []Key{{"a", "std"}, {"a", "z"}, {"b", "std"}}, m.Keys())
	assert.True(t, m.Creates(Key{"a", "z"}))
	assert.False(t, m.Creates(Key{"a", "std"}))
	assert.Equal(t, 3, m.Len())
}
