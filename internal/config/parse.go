package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// WellKnownNames are the config file names searched for, in order.
var WellKnownNames = []string{"featlint.yaml", ".featlint.yaml"}

// ErrNotFound is returned by Search when no config file exists.
var ErrNotFound = errors.New("no config file found")

// SearchPaths returns the candidate config paths under root in search order:
// every well-known name in root, then in root/.config.
func SearchPaths(root string) []string {
	var paths []string
	for _, dir := range []string{root, filepath.Join(root, ".config")} {
		for _, name := range WellKnownNames {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths
}

// Search returns the first existing config file under root.
func Search(root string) (string, error) {
	paths := SearchPaths(root)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", p, err)
		}
	}
	return "", fmt.Errorf("%w; searched:\n  %s", ErrNotFound, strings.Join(paths, "\n  "))
}

// Load reads, validates, and resolves a config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied config path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse parses featlint.yaml content and resolves step references.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if f.Version.Format != FormatVersion {
		return nil, fmt.Errorf("unsupported config format version %d (only %d is supported)", f.Version.Format, FormatVersion)
	}
	if err := f.resolve(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save writes the config file to disk.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling config file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // config file needs to be readable
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// WorkflowNames returns the names of all workflows, sorted.
func (f *File) WorkflowNames() []string {
	names := make([]string, 0, len(f.Workflows))
	for n := range f.Workflows {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Workflow looks up a workflow by name.
func (f *File) Workflow(name string) (Workflow, bool) {
	wf, ok := f.Workflows[name]
	return wf, ok
}

// FormatHelp renders the help section, or returns "" when there is none.
func (f *File) FormatHelp() string {
	if f.Help == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(f.Help.Text, "\n"))
	if len(f.Help.Links) > 0 {
		b.WriteString("\n\nFor more information, see:")
		for _, l := range f.Help.Links {
			b.WriteString("\n  - " + l)
		}
	}
	return b.String()
}

// CheckCompatibility fails when the running binary is older than the config
// requires. An empty requirement or a non-release binary version ("dev")
// always passes.
func (f *File) CheckCompatibility(binary string) error {
	req := strings.TrimSpace(f.Version.Binary)
	if req == "" {
		return nil
	}
	cur, err := semver.NewVersion(binary)
	if err != nil {
		return nil
	}

	c, err := constraintFor(req)
	if err != nil {
		return fmt.Errorf("invalid binary version %q in config: %w", req, err)
	}
	if !c.Check(cur) {
		return fmt.Errorf("config requires featlint %s but this is %s; update featlint or pass --check-cfg-compatibility=false", req, cur)
	}
	return nil
}

// constraintFor treats a bare version as a minimum.
func constraintFor(req string) (*semver.Constraints, error) {
	if v, err := semver.NewVersion(req); err == nil {
		return semver.NewConstraint(">= " + v.String())
	}
	return semver.NewConstraint(req)
}

type stepRef struct {
	workflow string
	index    int
}

func (r stepRef) String() string { return fmt.Sprintf("$%s.%d", r.workflow, r.index) }

func parseRef(arg string) (stepRef, bool, error) {
	rest, ok := strings.CutPrefix(arg, "$")
	if !ok {
		return stepRef{}, false, nil
	}
	name, idx, ok := strings.Cut(rest, ".")
	if !ok || name == "" {
		return stepRef{}, true, fmt.Errorf("step reference %q must have the form $name.index", arg)
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return stepRef{}, true, fmt.Errorf("step reference %q has an invalid index", arg)
	}
	return stepRef{name, i}, true, nil
}

// resolve expands every step reference in place. References may point at
// steps that themselves contain references; cycles are an error.
func (f *File) resolve() error {
	done := map[stepRef]Step{}
	for _, name := range f.WorkflowNames() {
		wf := f.Workflows[name]
		for i := range wf {
			step, err := f.resolveStep(stepRef{name, i}, done, map[stepRef]bool{})
			if err != nil {
				return fmt.Errorf("workflow %q step %d: %w", name, i, err)
			}
			wf[i] = step
		}
	}
	return nil
}

func (f *File) resolveStep(ref stepRef, done map[stepRef]Step, visiting map[stepRef]bool) (Step, error) {
	if s, ok := done[ref]; ok {
		return s, nil
	}
	wf, ok := f.Workflows[ref.workflow]
	if !ok {
		return nil, fmt.Errorf("unknown workflow in %s", ref)
	}
	if ref.index >= len(wf) {
		return nil, fmt.Errorf("%s is out of range (workflow has %d steps)", ref, len(wf))
	}
	if visiting[ref] {
		return nil, fmt.Errorf("cyclic step reference %s", ref)
	}
	visiting[ref] = true
	defer delete(visiting, ref)

	out := Step{}
	for _, arg := range wf[ref.index] {
		inner, isRef, err := parseRef(arg)
		if err != nil {
			return nil, err
		}
		if !isRef {
			out = append(out, arg)
			continue
		}
		expanded, err := f.resolveStep(inner, done, visiting)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	done[ref] = out
	return out, nil
}
