package manifest

import "gopkg.in/yaml.v3"

// Workspace represents the top-level workspace.yaml manifest.
type Workspace struct {
	Version     int        `yaml:"version"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Members     []string   `yaml:"members"`
	Exclude     []string   `yaml:"exclude,omitempty"`
	External    []External `yaml:"external,omitempty"`
}

// External declares a package that lives outside the workspace.
type External struct {
	Name string `yaml:"name"`
	// Features lists what the package exposes. Nil means unknown.
	Features *[]string `yaml:"features,omitempty"`
	NoStd    bool      `yaml:"no-std,omitempty"`
}

// IsOpaque reports whether the external package's features are unknown.
func (e External) IsOpaque() bool { return e.Features == nil }

// Dependency is one entry of a dependency section in package.yaml.
type Dependency struct {
	Name     string `yaml:"name"`
	Rename   string `yaml:"rename,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
	// DefaultFeatures defaults to true.
	DefaultFeatures *bool    `yaml:"default-features,omitempty"`
	Features        []string `yaml:"features,omitempty"`
}

// UsesDefaultFeatures returns the default-features setting (default true).
func (d Dependency) UsesDefaultFeatures() bool {
	if d.DefaultFeatures != nil {
		return *d.DefaultFeatures
	}
	return true
}

// Package represents one package.yaml manifest.
type Package struct {
	Name              string       `yaml:"name"`
	Description       string       `yaml:"description,omitempty"`
	NoStd             bool         `yaml:"no-std,omitempty"`
	Dependencies      []Dependency `yaml:"dependencies,omitempty"`
	DevDependencies   []Dependency `yaml:"dev-dependencies,omitempty"`
	BuildDependencies []Dependency `yaml:"build-dependencies,omitempty"`
	// Features is decoded by hand to keep order, layout, and comments.
	Features yaml.Node `yaml:"features,omitempty"`

	// Path is the file the package was loaded from.
	Path string `yaml:"-"`

	src      []byte
	features []FeatureDecl
	layout   featuresLayout
	deps     []depLoc
}
