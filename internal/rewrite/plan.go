package rewrite

import (
	"fmt"
	"slices"
)

// Source provides the current activation lists of workspace members.
type Source interface {
	// FeatureList returns the list of pkg/feature and whether it is declared.
	FeatureList(pkg, feature string) (List, bool, error)
	// FeatureNames returns the features pkg declares, in manifest order.
	FeatureNames(pkg string) ([]string, error)
}

// Change is the rewrite of one feature list.
type Change struct {
	Package string
	Feature string
	// Created is set when the feature is not declared yet.
	Created bool
	Before  List
	After   List
}

// Plan merges the edit map into the current lists and canonicalizes every
// touched list. Keys whose rendering does not change are dropped.
func Plan(src Source, edits *EditMap, p Policy) ([]Change, error) {
	var changes []Change
	for _, k := range edits.Keys() {
		before, declared, err := src.FeatureList(k.Package, k.Feature)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", k, err)
		}

		after := before.clone()
		for _, v := range edits.Entries(k) {
			if !after.Contains(v) {
				after.Entries = append(after.Entries, Entry{Value: v})
			}
		}
		mode := p.ModeFor(k.Feature)
		if mode == ModeNone && len(after.Entries) != len(before.Entries) {
			mode = ModeSort
		}
		after = Canonicalize(k.Feature, after, mode, p)

		c := Change{Package: k.Package, Feature: k.Feature, Created: !declared, Before: before, After: after}
		if c.Created || c.Changed(p) {
			changes = append(changes, c)
		}
	}
	return changes, nil
}

// FormatPlan canonicalizes every feature of the given packages according to
// the policy and returns the lists that would change.
func FormatPlan(src Source, packages []string, p Policy) ([]Change, error) {
	var changes []Change
	for _, pkg := range packages {
		names, err := src.FeatureNames(pkg)
		if err != nil {
			return nil, fmt.Errorf("reading features of %s: %w", pkg, err)
		}
		for _, f := range names {
			mode := p.ModeFor(f)
			if mode == ModeNone {
				continue
			}
			before, _, err := src.FeatureList(pkg, f)
			if err != nil {
				return nil, fmt.Errorf("reading %s/%s: %w", pkg, f, err)
			}
			c := Change{Package: pkg, Feature: f, Before: before, After: Canonicalize(f, before, mode, p)}
			if c.Changed(p) {
				changes = append(changes, c)
			}
		}
	}
	return changes, nil
}

// Changed reports whether the change is worth writing. Outside canonical
// mode only a different order or set of entries counts; canonical mode also
// counts layout.
func (c Change) Changed(p Policy) bool {
	if p.ModeFor(c.Feature) != ModeCanonicalize {
		return !slices.Equal(c.Before.Values(), c.After.Values())
	}
	before := c.Before.Text
	if before == "" {
		before = Render(c.Feature, c.Before, p)
	}
	return before != Render(c.Feature, c.After, p)
}
