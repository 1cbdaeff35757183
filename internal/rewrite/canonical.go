package rewrite

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects how much normalization a feature list receives.
type Mode int

const (
	// ModeNone leaves the list untouched.
	ModeNone Mode = iota
	// ModeSort sorts and deduplicates but keeps the inline/block layout.
	ModeSort
	// ModeCanonicalize sorts, deduplicates and applies the wrap policy.
	ModeCanonicalize
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSort:
		return "sort"
	default:
		return "canonicalize"
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return ModeNone, nil
	case "sort":
		return ModeSort, nil
	case "canonicalize", "canon":
		return ModeCanonicalize, nil
	default:
		return 0, fmt.Errorf("unknown format mode %q (must be none, sort, or canonicalize)", s)
	}
}

// Entry is one activation entry with the comments bound to it.
type Entry struct {
	Value string
	// Head holds full-line comments above the entry, each starting with '#'.
	Head []string
	// Line is the trailing comment on the entry's own line.
	Line string
	// Raw is the scalar as written when it is not double quoted. Sort mode
	// writes it back as is.
	Raw string
}

func (e Entry) hasComments() bool { return len(e.Head) > 0 || e.Line != "" }

// List is the activation list of one feature.
type List struct {
	Entries []Entry
	// Inline lists render as a flow sequence on the key's line.
	Inline bool
	// Foot holds comments after the last entry.
	Foot []string
	// Indent is the indentation of the feature key in its manifest. Empty
	// means the policy's unit.
	Indent string
	// ItemIndent is the indentation of block entries as read. Empty means
	// one policy unit below the key.
	ItemIndent string
	// Text is the verbatim manifest text the list was read from, if any.
	Text string
}

// Values returns the entry values in order.
func (l List) Values() []string {
	out := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = e.Value
	}
	return out
}

// Contains reports whether an entry with the exact value exists.
func (l List) Contains(value string) bool {
	for _, e := range l.Entries {
		if e.Value == value {
			return true
		}
	}
	return false
}

func (l List) hasComments() bool {
	if len(l.Foot) > 0 {
		return true
	}
	for _, e := range l.Entries {
		if e.hasComments() {
			return true
		}
	}
	return false
}

func (l List) clone() List {
	out := List{Inline: l.Inline, Foot: append([]string(nil), l.Foot...), Indent: l.Indent, ItemIndent: l.ItemIndent, Text: l.Text}
	out.Entries = make([]Entry, len(l.Entries))
	for i, e := range l.Entries {
		out.Entries[i] = Entry{Value: e.Value, Head: append([]string(nil), e.Head...), Line: e.Line, Raw: e.Raw}
	}
	return out
}

// Policy configures formatting.
type Policy struct {
	// LineWidth is the budget an inline list must fit in.
	LineWidth int
	// Indent is one indentation unit.
	Indent string
	// Default applies to features without an override.
	Default Mode
	// Modes overrides the mode per feature name.
	Modes map[string]Mode
	// Ignore lists feature names that are never reformatted.
	Ignore map[string]bool
}

// DefaultPolicy returns the standard formatting policy.
func DefaultPolicy() Policy {
	return Policy{LineWidth: 80, Indent: "  ", Default: ModeCanonicalize}
}

// ModeFor returns the mode that applies to a feature.
func (p Policy) ModeFor(feature string) Mode {
	if p.Ignore[feature] {
		return ModeNone
	}
	if m, ok := p.Modes[feature]; ok {
		return m
	}
	return p.Default
}

// Canonicalize normalizes the activation list of feature according to mode.
// Sort mode keeps how each entry is written; canonical mode re-quotes every
// entry and re-indents block lists. It is idempotent: canonicalizing its own
// output returns an equal list.
func Canonicalize(feature string, l List, mode Mode, p Policy) List {
	if mode == ModeNone {
		return l.clone()
	}
	out := dedup(l)
	sort.SliceStable(out.Entries, func(i, j int) bool {
		return out.Entries[i].Value < out.Entries[j].Value
	})
	if mode == ModeCanonicalize {
		out.ItemIndent = ""
		for i := range out.Entries {
			out.Entries[i].Raw = ""
		}
		out.Inline = !out.hasComments() && fits(feature, out, p)
	}
	if out.Inline && out.hasComments() {
		out.Inline = false
	}
	return out
}

// dedup collapses entries with identical text. The survivor keeps the first
// line comment; further line comments become head comments.
func dedup(l List) List {
	out := List{Inline: l.Inline, Foot: append([]string(nil), l.Foot...), Indent: l.Indent, ItemIndent: l.ItemIndent}
	index := make(map[string]int, len(l.Entries))
	for _, e := range l.Entries {
		i, dup := index[e.Value]
		if !dup {
			index[e.Value] = len(out.Entries)
			out.Entries = append(out.Entries, Entry{Value: e.Value, Head: append([]string(nil), e.Head...), Line: e.Line, Raw: e.Raw})
			continue
		}
		s := &out.Entries[i]
		s.Head = append(s.Head, e.Head...)
		switch {
		case s.Line == "":
			s.Line = e.Line
		case e.Line != "" && e.Line != s.Line:
			s.Head = append(s.Head, e.Line)
		}
	}
	return out
}

func fits(feature string, l List, p Policy) bool {
	width := p.LineWidth
	if width <= 0 {
		width = DefaultPolicy().LineWidth
	}
	return len(keyIndent(l, p))+len(renderKey(feature))+2+len(renderInline(l)) <= width
}

func keyIndent(l List, p Policy) string {
	if l.Indent != "" {
		return l.Indent
	}
	return p.indent()
}

func (p Policy) indent() string {
	if p.Indent == "" {
		return "  "
	}
	return p.Indent
}
