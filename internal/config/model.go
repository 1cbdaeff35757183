package config

// DefaultWorkflow is run when no workflow name is given.
const DefaultWorkflow = "default"

// FormatVersion is the only config format this binary understands.
const FormatVersion = 1

// File represents featlint.yaml.
type File struct {
	Version   Version             `yaml:"version"`
	Workflows map[string]Workflow `yaml:"workflows"`
	Help      *Help               `yaml:"help,omitempty"`

	// Path the file was loaded from; empty when parsed from memory.
	Path string `yaml:"-"`
}

// Version records which config format the file uses and the oldest binary
// able to run it. Binary is a semver version or a constraint such as ">=0.2".
type Version struct {
	Format int    `yaml:"format"`
	Binary string `yaml:"binary"`
}

// Workflow is an ordered list of steps.
type Workflow []Step

// Step is the argument vector of one featlint invocation. An argument of the
// form $name.index is replaced by the arguments of step index of workflow
// name when the file is loaded.
type Step []string

// Help is printed when a workflow fails.
type Help struct {
	Text  string   `yaml:"text"`
	Links []string `yaml:"links,omitempty"`
}
