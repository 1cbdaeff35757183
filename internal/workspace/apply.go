package workspace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/fbkclanna/featlint/internal/manifest"
	"github.com/fbkclanna/featlint/internal/rewrite"
)

// ApplyResult reports which manifests were written. A failed write does not
// stop the others.
type ApplyResult struct {
	Written []string
	Failed  map[string]error
}

// FailedPackages returns the names of packages whose write failed, sorted.
func (r *ApplyResult) FailedPackages() []string {
	names := make([]string, 0, len(r.Failed))
	for n := range r.Failed {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Err joins the write failures, or returns nil.
func (r *ApplyResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Failed))
	for _, n := range r.FailedPackages() {
		msgs = append(msgs, fmt.Sprintf("%s: %v", n, r.Failed[n]))
	}
	return fmt.Errorf("failed to write %d manifest(s): %s", len(r.Failed), strings.Join(msgs, "; "))
}

// replacements groups changes per package in sorted package order.
func replacements(changes []rewrite.Change, p rewrite.Policy) ([]string, map[string][]manifest.Replacement) {
	byPkg := map[string][]manifest.Replacement{}
	var order []string
	for _, ch := range changes {
		if _, ok := byPkg[ch.Package]; !ok {
			order = append(order, ch.Package)
		}
		byPkg[ch.Package] = append(byPkg[ch.Package], manifest.Replacement{
			Feature: ch.Feature,
			Text:    rewrite.Render(ch.Feature, ch.After, p),
		})
	}
	sort.Strings(order)
	return order, byPkg
}

// Apply writes the planned changes back to the member manifests.
func (c *Context) Apply(changes []rewrite.Change, p rewrite.Policy) *ApplyResult {
	res := &ApplyResult{Failed: map[string]error{}}
	order, byPkg := replacements(changes, p)
	for _, name := range order {
		pkg, ok := c.byName[name]
		if !ok {
			res.Failed[name] = fmt.Errorf("not a workspace member")
			continue
		}
		if err := pkg.WriteSplice(byPkg[name]); err != nil {
			res.Failed[name] = err
			continue
		}
		res.Written = append(res.Written, name)
	}
	return res
}

// DisableDefaultFeatures writes default-features: false onto normal
// dependencies, given as local names keyed by member.
func (c *Context) DisableDefaultFeatures(deps map[string][]string) *ApplyResult {
	res := &ApplyResult{Failed: map[string]error{}}
	order := make([]string, 0, len(deps))
	for name := range deps {
		order = append(order, name)
	}
	sort.Strings(order)
	for _, name := range order {
		pkg, ok := c.byName[name]
		if !ok {
			res.Failed[name] = fmt.Errorf("not a workspace member")
			continue
		}
		if err := pkg.WriteDefaultFeaturesOff(deps[name]); err != nil {
			res.Failed[name] = err
			continue
		}
		res.Written = append(res.Written, name)
	}
	return res
}

// Diff renders the planned changes as unified diffs against the manifests
// on disk, without writing anything.
func (c *Context) Diff(changes []rewrite.Change, p rewrite.Policy) (string, error) {
	var b strings.Builder
	order, byPkg := replacements(changes, p)
	for _, name := range order {
		pkg, ok := c.byName[name]
		if !ok {
			return "", fmt.Errorf("package %q is not a workspace member", name)
		}
		after, err := pkg.Splice(byPkg[name])
		if err != nil {
			return "", err
		}
		rel := c.RelPath(pkg.Path)
		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        diffLines(string(pkg.Source())),
			B:        diffLines(string(after)),
			FromFile: "a/" + rel,
			ToFile:   "b/" + rel,
			Context:  3,
		})
		if err != nil {
			return "", fmt.Errorf("diffing %s: %w", rel, err)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// diffLines splits s for diffing. difflib.SplitLines terminates its last
// element with a newline, which for newline-terminated text is an empty line
// that does not exist in the file.
func diffLines(s string) []string {
	lines := difflib.SplitLines(s)
	if strings.HasSuffix(s, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}
