package rewrite

import (
	"regexp"
	"strconv"
	"strings"
)

var plainKey = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.+-]*$`)

func renderKey(feature string) string {
	if plainKey.MatchString(feature) {
		return feature
	}
	return strconv.Quote(feature)
}

func renderValue(e Entry) string {
	if e.Raw != "" {
		return e.Raw
	}
	return strconv.Quote(e.Value)
}

func renderInline(l List) string {
	if len(l.Entries) == 0 {
		return "[]"
	}
	quoted := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		quoted[i] = renderValue(e)
	}
	return "[ " + strings.Join(quoted, ", ") + " ]"
}

// Render returns the manifest text for one feature of a features mapping,
// including the trailing newline. The key sits at the list's indentation and
// block entries at their own indentation, or one policy unit deeper.
func Render(feature string, l List, p Policy) string {
	indent := keyIndent(l, p)
	key := indent + renderKey(feature) + ":"

	if l.Inline || (len(l.Entries) == 0 && len(l.Foot) == 0) {
		return key + " " + renderInline(l) + "\n"
	}

	var b strings.Builder
	b.WriteString(key + "\n")
	item := l.ItemIndent
	if item == "" {
		item = indent + p.indent()
	}
	for _, e := range l.Entries {
		for _, h := range e.Head {
			b.WriteString(item + h + "\n")
		}
		b.WriteString(item + "- " + renderValue(e))
		if e.Line != "" {
			b.WriteString(" " + e.Line)
		}
		b.WriteString("\n")
	}
	if len(l.Entries) == 0 {
		b.Reset()
		b.WriteString(key + " []\n")
	}
	for _, f := range l.Foot {
		b.WriteString(item + f + "\n")
	}
	return b.String()
}
