package manifest

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrFlowDependency is returned when a dependency written in flow style has
// to be edited.
var ErrFlowDependency = errors.New("dependency in flow style cannot be edited; rewrite it as a block mapping")

// depLoc is where a normal dependency sits in the manifest text.
type depLoc struct {
	local string
	flow  bool
	// nameLine is the 1-based line holding the name value.
	nameLine int
	// indent is the indentation of the entry's keys.
	indent string
	// defaults is the value of an existing default-features key.
	defaults *yaml.Node
}

// parseDeps records the location of every normal dependency entry.
func (p *Package) parseDeps(doc *yaml.Node) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		seq := root.Content[i+1]
		if root.Content[i].Value != "dependencies" || seq.Kind != yaml.SequenceNode {
			continue
		}
		for _, item := range seq.Content {
			if item.Kind != yaml.MappingNode {
				continue
			}
			loc := depLoc{flow: (item.Style|seq.Style)&yaml.FlowStyle != 0}
			var rename string
			for j := 0; j+1 < len(item.Content); j += 2 {
				k, v := item.Content[j], item.Content[j+1]
				switch k.Value {
				case "name":
					loc.local = v.Value
					loc.nameLine = v.Line
					loc.indent = strings.Repeat(" ", k.Column-1)
				case "rename":
					rename = v.Value
				case "default-features":
					loc.defaults = v
				}
			}
			if rename != "" {
				loc.local = rename
			}
			p.deps = append(p.deps, loc)
		}
	}
}

// DisableDefaultFeatures returns the manifest source with default-features
// set to false on the named normal dependencies, addressed by local name.
// An existing default-features value is overwritten in place; otherwise the
// key is inserted below the name.
func (p *Package) DisableDefaultFeatures(locals []string) ([]byte, error) {
	lines := splitLines(p.src)

	type edit struct {
		line   int
		text   string
		insert bool
	}
	var edits []edit
	done := map[string]bool{}
	for _, local := range locals {
		if done[local] {
			continue
		}
		done[local] = true

		loc, ok := p.depLoc(local)
		if !ok {
			return nil, fmt.Errorf("%s: no normal dependency named %q", p.Name, local)
		}
		if loc.flow {
			return nil, fmt.Errorf("%s: dependency %q: %w", p.Name, local, ErrFlowDependency)
		}
		if v := loc.defaults; v != nil {
			l := lines[v.Line-1]
			start := v.Column - 1
			edits = append(edits, edit{line: v.Line, text: l[:start] + "false" + l[start+len(v.Value):]})
			continue
		}
		edits = append(edits, edit{line: loc.nameLine, text: loc.indent + "default-features: false", insert: true})
	}

	// Bottom-up so earlier line numbers stay valid.
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].line > edits[j].line })
	for _, e := range edits {
		if !e.insert {
			lines[e.line-1] = e.text
			continue
		}
		tail := append([]string{e.text}, lines[e.line:]...)
		lines = append(lines[:e.line], tail...)
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

// WriteDefaultFeaturesOff applies DisableDefaultFeatures and writes the
// manifest back to the file it was loaded from.
func (p *Package) WriteDefaultFeaturesOff(locals []string) error {
	out, err := p.DisableDefaultFeatures(locals)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.Path, out, 0644); err != nil {
		return fmt.Errorf("writing package manifest: %w", err)
	}
	return nil
}

func (p *Package) depLoc(local string) (depLoc, bool) {
	for _, d := range p.deps {
		if d.local == local {
			return d, true
		}
	}
	return depLoc{}, false
}
