package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// WorkspaceFile and PackageFile are the manifest file names.
const (
	WorkspaceFile = "workspace.yaml"
	PackageFile   = "package.yaml"
)

// Save validates and writes a workspace manifest to disk.
func Save(path string, ws *Workspace) error {
	if err := validate(ws); err != nil {
		return err
	}
	data, err := yaml.Marshal(ws)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Load reads and validates a workspace.yaml file.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates workspace.yaml content.
func Parse(data []byte) (*Workspace, error) {
	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("parsing manifest YAML: %w", err)
	}
	if err := validate(&ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func validate(ws *Workspace) error {
	if ws.Version != 1 {
		return fmt.Errorf("unsupported manifest version: %d (expected 1)", ws.Version)
	}
	if ws.Name == "" {
		return fmt.Errorf("manifest: name is required")
	}
	if len(ws.Members) == 0 {
		return fmt.Errorf("manifest: members must list at least one pattern")
	}
	for i, m := range ws.Members {
		if err := validatePattern(m, fmt.Sprintf("members[%d]", i)); err != nil {
			return err
		}
	}
	for i, m := range ws.Exclude {
		if err := validatePattern(m, fmt.Sprintf("exclude[%d]", i)); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(ws.External))
	for i, e := range ws.External {
		if e.Name == "" {
			return fmt.Errorf("manifest: external[%d].name is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("manifest: duplicate external package %q", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

func validatePattern(p, label string) error {
	if err := validatePath(p, label); err != nil {
		return err
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
		return fmt.Errorf("manifest: %s: invalid glob pattern: %s", label, p)
	}
	return nil
}

// validatePath ensures a path is relative and does not escape the workspace.
func validatePath(p, label string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("manifest: %s: absolute path is not allowed: %s", label, p)
	}
	cleaned := filepath.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("manifest: %s: path must not escape workspace (contains ..): %s", label, p)
	}
	return nil
}

// LoadPackage reads and validates a package.yaml file.
func LoadPackage(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading package manifest: %w", err)
	}
	p, err := ParsePackage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// ParsePackage parses and validates package.yaml content.
func ParsePackage(data []byte) (*Package, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing package YAML: %w", err)
	}
	p := &Package{src: data}
	if err := doc.Decode(p); err != nil {
		return nil, fmt.Errorf("decoding package manifest: %w", err)
	}
	if err := p.parseFeatures(&doc); err != nil {
		return nil, fmt.Errorf("package manifest: %w", err)
	}
	p.parseDeps(&doc)
	if err := validatePackage(p); err != nil {
		return nil, err
	}
	return p, nil
}

func validatePackage(p *Package) error {
	if p.Name == "" {
		return fmt.Errorf("package manifest: name is required")
	}
	sections := []struct {
		label string
		deps  []Dependency
	}{
		{"dependencies", p.Dependencies},
		{"dev-dependencies", p.DevDependencies},
		{"build-dependencies", p.BuildDependencies},
	}
	for _, s := range sections {
		seen := make(map[string]bool, len(s.deps))
		for i, d := range s.deps {
			if d.Name == "" {
				return fmt.Errorf("package manifest: %s[%d].name is required", s.label, i)
			}
			local := d.Name
			if d.Rename != "" {
				local = d.Rename
			}
			if seen[local] {
				return fmt.Errorf("package manifest: %s: duplicate dependency %q", s.label, local)
			}
			seen[local] = true
		}
	}
	seen := make(map[string]bool, len(p.features))
	for _, f := range p.features {
		if seen[f.Name] {
			return fmt.Errorf("package manifest: duplicate feature %q", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
