package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sample = `
version:
  format: 1
  binary: 0.3.0
workflows:
  check:
    - [lint, propagate-feature, --features, "std,runtime-benchmarks"]
    - [format, features]
  default:
    - [$check.0, --fix]
    - [$check.1, --fix]
help:
  text: |
    Run 'featlint' to fix feature propagation.
  links:
    - https://example.com/featlint
`

func TestParse_valid(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Version.Format != 1 || f.Version.Binary != "0.3.0" {
		t.Errorf("version = %+v", f.Version)
	}
	if got := f.WorkflowNames(); !reflect.DeepEqual(got, []string{"check", "default"}) {
		t.Errorf("workflows = %v", got)
	}
	wf, ok := f.Workflow(DefaultWorkflow)
	if !ok {
		t.Fatal("default workflow not found")
	}
	want := Workflow{
		{"lint", "propagate-feature", "--features", "std,runtime-benchmarks", "--fix"},
		{"format", "features", "--fix"},
	}
	if !reflect.DeepEqual(wf, want) {
		t.Errorf("default = %v, want %v", wf, want)
	}
	check, _ := f.Workflow("check")
	if len(check[0]) != 4 {
		t.Errorf("referenced step modified: %v", check[0])
	}
}

func TestParse_nestedReferences(t *testing.T) {
	f, err := Parse([]byte(`
version: {format: 1}
workflows:
  a:
    - [x]
  b:
    - [$a.0, y]
  c:
    - [$b.0, z]
`))
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Workflows["c"][0]; !reflect.DeepEqual(got, Step{"x", "y", "z"}) {
		t.Errorf("c.0 = %v", got)
	}
}

func TestParse_invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad format", "version: {format: 2}\n", "unsupported config format"},
		{"missing format", "workflows: {}\n", "unsupported config format"},
		{"unknown workflow", "version: {format: 1}\nworkflows:\n  a: [[$nope.0]]\n", "unknown workflow"},
		{"out of range", "version: {format: 1}\nworkflows:\n  a: [[x]]\n  b: [[$a.3]]\n", "out of range"},
		{"bad index", "version: {format: 1}\nworkflows:\n  a: [[$a.x]]\n", "invalid index"},
		{"no index", "version: {format: 1}\nworkflows:\n  a: [[$a]]\n", "$name.index"},
		{"cycle", "version: {format: 1}\nworkflows:\n  a: [[$b.0]]\n  b: [[$a.0]]\n", "cyclic"},
		{"yaml", "version: [\n", "parsing config YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		required string
		binary   string
		ok       bool
	}{
		{"", "0.1.0", true},
		{"0.3.0", "0.3.0", true},
		{"0.3.0", "1.0.0", true},
		{"0.3.0", "0.2.9", false},
		{"^0.3", "0.4.0", false},
		{"~1.2", "1.2.7", true},
		{"0.3.0", "dev", true},
	}
	for _, tt := range tests {
		f := &File{Version: Version{Format: 1, Binary: tt.required}}
		err := f.CheckCompatibility(tt.binary)
		if (err == nil) != tt.ok {
			t.Errorf("require %q, binary %q: err = %v, want ok=%v", tt.required, tt.binary, err, tt.ok)
		}
	}

	f := &File{Version: Version{Format: 1, Binary: "not a version"}}
	if err := f.CheckCompatibility("1.0.0"); err == nil {
		t.Error("expected error for invalid requirement")
	}
}

func TestFormatHelp(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	want := "Run 'featlint' to fix feature propagation.\n\nFor more information, see:\n  - https://example.com/featlint"
	if got := f.FormatHelp(); got != want {
		t.Errorf("help = %q", got)
	}
	if (&File{}).FormatHelp() != "" {
		t.Error("help without section should be empty")
	}
}

func TestSearch(t *testing.T) {
	root := t.TempDir()
	if _, err := Search(root); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	nested := filepath.Join(root, ".config", ".featlint.yaml")
	if err := os.MkdirAll(filepath.Dir(nested), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(nested, []byte("version: {format: 1}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Search(root)
	if err != nil || got != nested {
		t.Fatalf("Search = %q, %v", got, err)
	}

	top := filepath.Join(root, "featlint.yaml")
	if err := os.WriteFile(top, []byte("version: {format: 1}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got, _ := Search(root); got != top {
		t.Errorf("Search = %q, want %q", got, top)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "featlint.yaml")
	f := &File{
		Version:   Version{Format: 1, Binary: "0.1.0"},
		Workflows: map[string]Workflow{"default": {{"lint", "duplicate-deps"}}},
	}
	if err := Save(path, f); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Path != path {
		t.Errorf("path = %q", loaded.Path)
	}
	if !reflect.DeepEqual(loaded.Workflows, f.Workflows) {
		t.Errorf("workflows = %v", loaded.Workflows)
	}
}
