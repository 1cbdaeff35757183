package manifest

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fbkclanna/featlint/internal/rewrite"
)

// ErrFlowFeatures is returned when a features mapping written in flow style
// has to be edited.
var ErrFlowFeatures = errors.New("features mapping in flow style cannot be edited; rewrite it as a block mapping")

// FeatureDecl is one feature as written in package.yaml.
type FeatureDecl struct {
	Name string
	List rewrite.List
	// KeyLine and EndLine delimit the feature's text, 1-based and inclusive.
	KeyLine int
	EndLine int
}

type layoutState int

const (
	layoutAbsent layoutState = iota
	// layoutEmpty is a features key with a null or {} value.
	layoutEmpty
	layoutBlock
	layoutFlow
)

type featuresLayout struct {
	state   layoutState
	keyLine int
	// keyIndent is the indentation of the features key itself.
	keyIndent string
	// itemIndent is the indentation of the feature keys below it.
	itemIndent string
	// endLine is the last line belonging to the features section.
	endLine int
}

// FeatureNames returns the declared features in manifest order.
func (p *Package) FeatureNames() []string {
	names := make([]string, len(p.features))
	for i, f := range p.features {
		names[i] = f.Name
	}
	return names
}

// Feature returns the declaration of a feature.
func (p *Package) Feature(name string) (FeatureDecl, bool) {
	for _, f := range p.features {
		if f.Name == name {
			return f, true
		}
	}
	return FeatureDecl{}, false
}

// Decls returns every feature declaration in manifest order.
func (p *Package) Decls() []FeatureDecl { return p.features }

// FeatureIndent returns the indentation used for feature keys, or "" when
// the package declares none yet.
func (p *Package) FeatureIndent() string { return p.layout.itemIndent }

func splitLines(src []byte) []string {
	s := strings.TrimSuffix(string(src), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

// parseFeatures locates the features section in doc and decodes each feature
// together with the comments bound to its entries.
func (p *Package) parseFeatures(doc *yaml.Node) error {
	lines := splitLines(p.src)
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("package manifest must be a mapping")
	}

	var key, val *yaml.Node
	sectionEnd := len(lines)
	for i := 0; i+1 < len(root.Content); i += 2 {
		if key != nil {
			sectionEnd = root.Content[i].Line - 1
			break
		}
		if root.Content[i].Value == "features" {
			key, val = root.Content[i], root.Content[i+1]
		}
	}
	if key == nil {
		return nil
	}

	p.layout = featuresLayout{keyLine: key.Line, keyIndent: strings.Repeat(" ", key.Column-1)}
	switch {
	case val.Kind == yaml.ScalarNode && val.Tag == "!!null":
		p.layout.state = layoutEmpty
		return nil
	case val.Kind != yaml.MappingNode:
		return fmt.Errorf("features must be a mapping")
	case len(val.Content) == 0:
		p.layout.state = layoutEmpty
		return nil
	case val.Style&yaml.FlowStyle != 0:
		p.layout.state = layoutFlow
	default:
		p.layout.state = layoutBlock
	}

	for i := 0; i+1 < len(val.Content); i += 2 {
		k, v := val.Content[i], val.Content[i+1]
		end := sectionEnd
		if i+2 < len(val.Content) {
			end = val.Content[i+2].Line - 1
		}
		end = trimTail(lines, k.Line, end, k.Column-1)

		list, err := decodeList(k, v, lines, end)
		if err != nil {
			return fmt.Errorf("feature %q: %w", k.Value, err)
		}
		if p.layout.state == layoutBlock {
			list.Indent = lines[k.Line-1][:k.Column-1]
			list.Text = strings.Join(lines[k.Line-1:end], "\n") + "\n"
		}
		p.features = append(p.features, FeatureDecl{Name: k.Value, List: list, KeyLine: k.Line, EndLine: end})
		if p.layout.itemIndent == "" {
			p.layout.itemIndent = strings.Repeat(" ", k.Column-1)
		}
	}
	if n := len(p.features); n > 0 {
		p.layout.endLine = p.features[n-1].EndLine
	}
	return nil
}

// trimTail drops trailing blank lines, and comments indented no deeper than
// the key, from the range start..end. Those belong to whatever follows.
func trimTail(lines []string, start, end, keyIndent int) int {
	for end > start {
		l := lines[end-1]
		if isBlank(l) || (isComment(l) && indentOf(l) <= keyIndent) {
			end--
			continue
		}
		break
	}
	return end
}

// decodeList turns a feature's value node into a list, binding full-line
// comments to the entry below them and trailing comments to their entry.
func decodeList(k, v *yaml.Node, lines []string, end int) (rewrite.List, error) {
	var list rewrite.List
	var items []*yaml.Node
	switch {
	case v.Kind == yaml.SequenceNode:
		list.Inline = v.Style&yaml.FlowStyle != 0
		items = v.Content
	case v.Kind == yaml.ScalarNode && v.Tag == "!!null":
		list.Inline = true
	default:
		return list, fmt.Errorf("activation list must be a sequence")
	}

	var pending []string
	if c := strings.TrimSpace(k.LineComment); c != "" {
		pending = append(pending, c)
	}
	if c := strings.TrimSpace(v.LineComment); c != "" && c != strings.TrimSpace(k.LineComment) {
		pending = append(pending, c)
	}

	line := k.Line + 1
	for _, item := range items {
		if item.Kind != yaml.ScalarNode {
			return list, fmt.Errorf("activation entries must be strings")
		}
		for ; line < item.Line && line <= end; line++ {
			if isComment(lines[line-1]) {
				pending = append(pending, strings.TrimSpace(lines[line-1]))
			}
		}
		if item.Line >= line {
			line = item.Line + 1
		}
		if !list.Inline && list.ItemIndent == "" && item.Line > k.Line {
			l := lines[item.Line-1]
			list.ItemIndent = l[:indentOf(l)]
		}
		list.Entries = append(list.Entries, rewrite.Entry{
			Value: item.Value,
			Head:  pending,
			Line:  strings.TrimSpace(item.LineComment),
			Raw:   rawScalar(item),
		})
		pending = nil
	}
	for ; line <= end; line++ {
		if isComment(lines[line-1]) {
			pending = append(pending, strings.TrimSpace(lines[line-1]))
		}
	}
	list.Foot = pending
	if len(list.Foot) > 0 || anyComments(list) {
		list.Inline = false
	}
	return list, nil
}

// rawScalar returns how a plain or single-quoted scalar is written. Double
// quoted and block scalars return "".
func rawScalar(n *yaml.Node) string {
	switch n.Style {
	case 0:
		return n.Value
	case yaml.SingleQuotedStyle:
		return "'" + strings.ReplaceAll(n.Value, "'", "''") + "'"
	default:
		return ""
	}
}

func anyComments(l rewrite.List) bool {
	for _, e := range l.Entries {
		if len(e.Head) > 0 || e.Line != "" {
			return true
		}
	}
	return false
}
