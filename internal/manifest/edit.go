package manifest

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Replacement is the new text of one feature, as produced by rewrite.Render.
type Replacement struct {
	Feature string
	Text    string
}

// Splice returns the manifest source with every replacement applied. Text
// outside the replaced features is kept byte for byte. Features not yet
// declared are appended to the features section, which is created when
// missing.
func (p *Package) Splice(repls []Replacement) ([]byte, error) {
	lines := splitLines(p.src)

	type span struct {
		start, end int // 1-based, inclusive; end < start inserts after end
		text       []string
	}
	var spans []span
	var added []string

	for _, r := range repls {
		text := strings.Split(strings.TrimSuffix(r.Text, "\n"), "\n")
		if decl, ok := p.Feature(r.Feature); ok {
			if p.layout.state == layoutFlow {
				return nil, fmt.Errorf("%s: %w", p.Name, ErrFlowFeatures)
			}
			spans = append(spans, span{start: decl.KeyLine, end: decl.EndLine, text: text})
			continue
		}
		added = append(added, text...)
	}

	if len(added) > 0 {
		switch p.layout.state {
		case layoutBlock:
			spans = append(spans, span{start: p.layout.endLine + 1, end: p.layout.endLine, text: added})
		case layoutEmpty:
			head := []string{p.layout.keyIndent + "features:"}
			old := lines[p.layout.keyLine-1]
			if i := strings.Index(old, "#"); i >= 0 {
				head[0] += " " + strings.TrimSpace(old[i:])
			}
			spans = append(spans, span{start: p.layout.keyLine, end: p.layout.keyLine, text: append(head, added...)})
		case layoutFlow:
			return nil, fmt.Errorf("%s: %w", p.Name, ErrFlowFeatures)
		default:
			text := append([]string{"features:"}, added...)
			spans = append(spans, span{start: len(lines) + 1, end: len(lines), text: text})
		}
	}

	// Apply bottom-up so earlier line numbers stay valid.
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start > spans[j].start })
	for _, s := range spans {
		tail := append([]string(nil), lines[s.end:]...)
		lines = append(append(lines[:s.start-1], s.text...), tail...)
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

// WriteSplice applies the replacements and writes the manifest back to the
// file it was loaded from.
func (p *Package) WriteSplice(repls []Replacement) error {
	out, err := p.Splice(repls)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.Path, out, 0644); err != nil {
		return fmt.Errorf("writing package manifest: %w", err)
	}
	return nil
}

// Source returns the raw manifest text.
func (p *Package) Source() []byte { return p.src }
