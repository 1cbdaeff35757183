package model

import (
	"fmt"
	"strings"
)

// DepKind classifies a dependency edge.
type DepKind int

const (
	Normal DepKind = iota
	Dev
	Build
)

// DepKinds lists every kind in declaration order.
var DepKinds = []DepKind{Normal, Dev, Build}

func (k DepKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Dev:
		return "dev"
	case Build:
		return "build"
	default:
		return "unknown"
	}
}

// ParseDepKind parses a dependency kind name, case-insensitively.
func ParseDepKind(s string) (DepKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return Normal, nil
	case "dev":
		return Dev, nil
	case "build":
		return Build, nil
	default:
		return 0, fmt.Errorf("unknown dependency kind %q (must be normal, dev, or build)", s)
	}
}

// Dependency is one entry of a package's dependency list.
type Dependency struct {
	// Name of the target package.
	Name string
	// Rename is the local alias used in activation strings, if any.
	Rename   string
	Kind     DepKind
	Optional bool
	// DefaultFeatures reports whether the declaration keeps the target's
	// default feature set.
	DefaultFeatures bool
	// Features requested on the declaration itself.
	Features []string
}

// LocalName returns the name the owning package uses to address the
// dependency.
func (d Dependency) LocalName() string {
	if d.Rename != "" {
		return d.Rename
	}
	return d.Name
}

// DisplayName returns the local name, annotated when the dependency is
// renamed.
func (d Dependency) DisplayName() string {
	if d.Rename != "" && d.Rename != d.Name {
		return fmt.Sprintf("%s (renamed from %s)", d.Rename, d.Name)
	}
	return d.Name
}

// Feature is a declared feature and its parsed activation list.
type Feature struct {
	Name        string
	Activations []Activation
}

// Package is a member of the workspace or an external package.
type Package struct {
	Name         string
	ManifestPath string
	Dependencies []Dependency
	Features     []Feature
	// External packages live outside the workspace and are never modified.
	External bool
	// Opaque external packages have unknown features and are assumed to
	// expose every feature asked about.
	Opaque bool
	// NoStd packages build without the standard library.
	NoStd bool

	features map[string]int
}

// Feature returns the declared feature with the given name.
func (p *Package) Feature(name string) (*Feature, bool) {
	i, ok := p.features[name]
	if !ok {
		return nil, false
	}
	return &p.Features[i], true
}

// Declares reports whether the package declares the feature. Opaque packages
// declare everything.
func (p *Package) Declares(name string) bool {
	if p.Opaque {
		return true
	}
	_, ok := p.features[name]
	return ok
}

// Dependency returns the first dependency addressed by the given local name.
// Normal dependencies win over dev and build ones of the same name.
func (p *Package) Dependency(local string) (*Dependency, bool) {
	var found *Dependency
	for i := range p.Dependencies {
		d := &p.Dependencies[i]
		if d.LocalName() != local {
			continue
		}
		if found == nil || (d.Kind == Normal && found.Kind != Normal) {
			found = d
		}
	}
	return found, found != nil
}

// RawFeature is a feature as supplied by the loader, before parsing.
type RawFeature struct {
	Name        string
	Activations []string
}

// RawPackage is a workspace member as supplied by the loader.
type RawPackage struct {
	Name         string
	ManifestPath string
	Dependencies []Dependency
	Features     []RawFeature
	NoStd        bool
}

// RawExternal is a package outside the workspace. A nil feature list marks it
// opaque.
type RawExternal struct {
	Name     string
	Features []string
	NoStd    bool
}

// Snapshot is the normalized workspace description the core consumes.
type Snapshot struct {
	Packages []RawPackage
	External []RawExternal
}

// Workspace is the resolved, read-only model of one invocation.
type Workspace struct {
	members  []*Package
	external []*Package
	byName   map[string]*Package
}

// Members returns the workspace packages in declaration order.
func (w *Workspace) Members() []*Package { return w.members }

// External returns packages outside the workspace, declared ones first and
// then implicit ones in discovery order.
func (w *Workspace) External() []*Package { return w.external }

// Package looks up a member or external package by name.
func (w *Workspace) Package(name string) (*Package, bool) {
	p, ok := w.byName[name]
	return p, ok
}

// Member looks up a workspace member by name.
func (w *Workspace) Member(name string) (*Package, bool) {
	p, ok := w.byName[name]
	if !ok || p.External {
		return nil, false
	}
	return p, true
}

// All returns members followed by external packages.
func (w *Workspace) All() []*Package {
	out := make([]*Package, 0, len(w.members)+len(w.external))
	out = append(out, w.members...)
	return append(out, w.external...)
}

// Resolve returns the package a dependency points at. Every dependency
// resolves once the workspace is built.
func (w *Workspace) Resolve(d Dependency) *Package {
	return w.byName[d.Name]
}

// New builds the workspace model from a snapshot.
func New(s Snapshot) (*Workspace, error) {
	w := &Workspace{byName: make(map[string]*Package, len(s.Packages)+len(s.External))}

	for _, rp := range s.Packages {
		if _, dup := w.byName[rp.Name]; dup {
			return nil, &ModelError{Package: rp.Name, Err: ErrDuplicatePackage}
		}
		p := &Package{
			Name:         rp.Name,
			ManifestPath: rp.ManifestPath,
			Dependencies: append([]Dependency(nil), rp.Dependencies...),
			NoStd:        rp.NoStd,
			features:     make(map[string]int, len(rp.Features)),
		}
		for _, f := range rp.Features {
			if _, dup := p.features[f.Name]; dup {
				return nil, &ModelError{Package: p.Name, Feature: f.Name, Err: ErrDuplicateFeature}
			}
			p.features[f.Name] = len(p.Features)
			p.Features = append(p.Features, Feature{Name: f.Name})
		}
		w.members = append(w.members, p)
		w.byName[p.Name] = p
	}

	for _, re := range s.External {
		if _, dup := w.byName[re.Name]; dup {
			return nil, &ModelError{Package: re.Name, Err: ErrDuplicatePackage}
		}
		w.addExternal(re.Name, re.Features, re.Features == nil).NoStd = re.NoStd
	}

	for _, p := range w.members {
		for _, d := range p.Dependencies {
			if _, ok := w.byName[d.Name]; !ok {
				w.addExternal(d.Name, nil, true)
			}
		}
	}

	for i, rp := range s.Packages {
		if err := w.parseFeatures(w.members[i], rp.Features); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *Workspace) addExternal(name string, features []string, opaque bool) *Package {
	p := &Package{
		Name:     name,
		External: true,
		Opaque:   opaque,
		features: make(map[string]int, len(features)),
	}
	for _, f := range features {
		if _, dup := p.features[f]; dup {
			continue
		}
		p.features[f] = len(p.Features)
		p.Features = append(p.Features, Feature{Name: f})
	}
	w.external = append(w.external, p)
	w.byName[name] = p
	return p
}

func (w *Workspace) parseFeatures(p *Package, raw []RawFeature) error {
	for _, rf := range raw {
		f := &p.Features[p.features[rf.Name]]
		f.Activations = make([]Activation, 0, len(rf.Activations))
		for _, entry := range rf.Activations {
			a, err := ParseActivation(entry)
			if err != nil {
				return &ModelError{Package: p.Name, Feature: rf.Name, Entry: entry, Err: err}
			}
			a, err = resolveActivation(p, a)
			if err != nil {
				return &ModelError{Package: p.Name, Feature: rf.Name, Entry: entry, Err: err}
			}
			f.Activations = append(f.Activations, a)
		}
	}
	return nil
}

// resolveActivation checks the dependency an activation addresses and turns
// plain names of optional dependencies into Bare entries.
func resolveActivation(p *Package, a Activation) (Activation, error) {
	switch a.Kind {
	case Local:
		if _, ok := p.features[a.Feature]; ok {
			return a, nil
		}
		if d, ok := p.Dependency(a.Feature); ok && d.Optional {
			return Activation{Kind: Bare, Dep: a.Feature, Raw: a.Raw}, nil
		}
		return a, fmt.Errorf("%w: %q is neither a feature nor an optional dependency", ErrUnknownFeature, a.Feature)
	default:
		d, ok := p.Dependency(a.Dep)
		if !ok {
			return a, fmt.Errorf("%w: %q", ErrUnknownDependency, a.Dep)
		}
		if a.Kind == Bare && !d.Optional {
			return a, fmt.Errorf("%w: %q is not optional", ErrUnknownDependency, a.Dep)
		}
		return a, nil
	}
}
