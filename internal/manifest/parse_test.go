package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fbkclanna/featlint/internal/rewrite"
)

func TestParse_valid(t *testing.T) {
	data := []byte(`
version: 1
name: foo
members: ["crates/*", "tools/cli"]
exclude: ["crates/legacy"]
external:
  - name: serde
    features: [std, derive]
  - name: log
`)
	ws, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws.Name != "foo" {
		t.Errorf("name = %q, want %q", ws.Name, "foo")
	}
	if len(ws.Members) != 2 {
		t.Errorf("members count = %d, want 2", len(ws.Members))
	}
	if len(ws.External) != 2 {
		t.Fatalf("external count = %d, want 2", len(ws.External))
	}
	if ws.External[0].IsOpaque() || len(*ws.External[0].Features) != 2 {
		t.Errorf("serde should declare 2 features, got %+v", ws.External[0])
	}
	if !ws.External[1].IsOpaque() {
		t.Error("log should be opaque")
	}
}

func TestParse_invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing version", `
name: foo
members: ["a"]
`},
		{"missing name", `
version: 1
members: ["a"]
`},
		{"no members", `
version: 1
name: foo
`},
		{"absolute member", `
version: 1
name: foo
members: ["/tmp/a"]
`},
		{"escaping member", `
version: 1
name: foo
members: ["../outside"]
`},
		{"bad glob", `
version: 1
name: foo
members: ["crates/[a"]
`},
		{"duplicate external", `
version: 1
name: foo
members: ["a"]
external:
  - name: serde
  - name: serde
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSaveLoad_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), WorkspaceFile)
	features := []string{"std"}
	ws := &Workspace{
		Version:  1,
		Name:     "demo",
		Members:  []string{"crates/*"},
		External: []External{{Name: "serde", Features: &features}},
	}
	if err := Save(path, ws); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, ws) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, ws)
	}
}

const pkgSource = `name: a
# deps
dependencies:
  - name: b
    optional: true
features:
  default: [ "std" ]
  std:
    # bound to b
    - "b?/std" # weak
    - "alloc"

  # about alloc
  alloc: []
  # trailing
dev-dependencies:
  - name: c
    default-features: false
`

func TestParsePackage(t *testing.T) {
	p, err := ParsePackage([]byte(pkgSource))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "a" {
		t.Errorf("name = %q", p.Name)
	}
	if len(p.Dependencies) != 1 || !p.Dependencies[0].Optional || !p.Dependencies[0].UsesDefaultFeatures() {
		t.Errorf("dependencies = %+v", p.Dependencies)
	}
	if len(p.DevDependencies) != 1 || p.DevDependencies[0].UsesDefaultFeatures() {
		t.Errorf("dev-dependencies = %+v", p.DevDependencies)
	}
	if got := p.FeatureNames(); !reflect.DeepEqual(got, []string{"default", "std", "alloc"}) {
		t.Errorf("features = %v", got)
	}

	def, _ := p.Feature("default")
	if !def.List.Inline || !reflect.DeepEqual(def.List.Values(), []string{"std"}) {
		t.Errorf("default = %+v", def.List)
	}

	std, _ := p.Feature("std")
	if std.KeyLine != 8 || std.EndLine != 11 {
		t.Errorf("std spans %d..%d, want 8..11", std.KeyLine, std.EndLine)
	}
	want := []rewrite.Entry{
		{Value: "b?/std", Head: []string{"# bound to b"}, Line: "# weak"},
		{Value: "alloc"},
	}
	if !reflect.DeepEqual(std.List.Entries, want) {
		t.Errorf("std entries = %+v", std.List.Entries)
	}
	if std.List.Indent != "  " {
		t.Errorf("indent = %q", std.List.Indent)
	}

	alloc, _ := p.Feature("alloc")
	if alloc.KeyLine != 14 || alloc.EndLine != 14 {
		t.Errorf("alloc spans %d..%d, want 14..14", alloc.KeyLine, alloc.EndLine)
	}
}

func TestParsePackage_invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "features: {}\n"},
		{"features not a mapping", "name: a\nfeatures: [std]\n"},
		{"list not a sequence", "name: a\nfeatures:\n  std: yes\n"},
		{"duplicate dependency", "name: a\ndependencies:\n  - name: b\n  - name: b\n"},
		{"dependency without name", "name: a\ndependencies:\n  - optional: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePackage([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSplice_replaceAndAppend(t *testing.T) {
	p, err := ParsePackage([]byte(pkgSource))
	if err != nil {
		t.Fatal(err)
	}
	std, _ := p.Feature("std")
	policy := rewrite.DefaultPolicy()
	after := rewrite.Canonicalize("std", std.List, rewrite.ModeCanonicalize, policy)

	out, err := p.Splice([]Replacement{
		{Feature: "std", Text: rewrite.Render("std", after, policy)},
		{Feature: "runtime", Text: rewrite.Render("runtime", rewrite.List{Indent: p.FeatureIndent()}, policy)},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := strings.Replace(pkgSource,
		"  std:\n    # bound to b\n    - \"b?/std\" # weak\n    - \"alloc\"\n",
		"  std:\n    - \"alloc\"\n    # bound to b\n    - \"b?/std\" # weak\n", 1)
	want = strings.Replace(want, "  alloc: []\n", "  alloc: []\n  runtime: []\n", 1)
	if string(out) != want {
		t.Errorf("splice mismatch:\n got:\n%s\nwant:\n%s", out, want)
	}

	// The rewritten manifest parses back to the same canonical list.
	again, err := ParsePackage(out)
	if err != nil {
		t.Fatal(err)
	}
	std2, _ := again.Feature("std")
	if std2.List.Text != rewrite.Render("std", after, policy) {
		t.Errorf("text after splice = %q", std2.List.Text)
	}
	if !reflect.DeepEqual(std2.List.Entries, after.Entries) {
		t.Errorf("entries after splice = %+v", std2.List.Entries)
	}
}

func TestSplice_createsSection(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"absent", "name: a\n", "name: a\nfeatures:\n  std: []\n"},
		{"empty mapping", "name: a\nfeatures: {}\n", "name: a\nfeatures:\n  std: []\n"},
		{"null", "name: a\nfeatures:\ndependencies: []\n", "name: a\nfeatures:\n  std: []\ndependencies: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePackage([]byte(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			out, err := p.Splice([]Replacement{{Feature: "std", Text: "  std: []\n"}})
			if err != nil {
				t.Fatal(err)
			}
			if string(out) != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestSplice_flowMapping(t *testing.T) {
	p, err := ParsePackage([]byte("name: a\nfeatures: {std: []}\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Splice([]Replacement{{Feature: "std", Text: "  std: [ \"x\" ]\n"}})
	if !errors.Is(err, ErrFlowFeatures) {
		t.Fatalf("err = %v, want ErrFlowFeatures", err)
	}
}

func TestWriteSplice(t *testing.T) {
	path := filepath.Join(t.TempDir(), PackageFile)
	if err := os.WriteFile(path, []byte("name: a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPackage(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.WriteSplice([]Replacement{{Feature: "std", Text: "  std: []\n"}}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "name: a\nfeatures:\n  std: []\n" {
		t.Errorf("file = %q", data)
	}
}

func TestDisableDefaultFeatures(t *testing.T) {
	src := `name: a
no-std: true
dependencies:
  - name: b
    optional: true
  - name: c
    rename: see
    default-features: true # keep for now
  - {name: flow}
dev-dependencies:
  - name: d
`
	p, err := ParsePackage([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if !p.NoStd {
		t.Error("no-std not decoded")
	}

	out, err := p.DisableDefaultFeatures([]string{"see", "b", "b"})
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Replace(src, "  - name: b\n", "  - name: b\n    default-features: false\n", 1)
	want = strings.Replace(want, "default-features: true # keep", "default-features: false # keep", 1)
	if string(out) != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}

	again, err := ParsePackage(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range again.Dependencies[:2] {
		if d.UsesDefaultFeatures() {
			t.Errorf("%s still uses default features", d.Name)
		}
	}

	if _, err := p.DisableDefaultFeatures([]string{"flow"}); !errors.Is(err, ErrFlowDependency) {
		t.Errorf("flow entry: err = %v", err)
	}
	if _, err := p.DisableDefaultFeatures([]string{"d"}); err == nil {
		t.Error("dev dependency should not be addressable")
	}
}
