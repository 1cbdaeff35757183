package model

import (
	"fmt"
	"strings"
)

// ActivationKind discriminates the entries of a feature's activation list.
type ActivationKind int

const (
	// Local enables another feature of the same package.
	Local ActivationKind = iota
	// Strong is `dep/feature`: enables the feature and the dependency itself.
	Strong
	// Weak is `dep?/feature`: enables the feature only if the dependency is
	// already enabled by other means.
	Weak
	// Bare is `dep:name` or the plain name of an optional dependency.
	Bare
)

func (k ActivationKind) String() string {
	switch k {
	case Local:
		return "local"
	case Strong:
		return "strong"
	case Weak:
		return "weak"
	case Bare:
		return "bare"
	default:
		return "unknown"
	}
}

// Activation is one parsed entry of a feature's activation list.
type Activation struct {
	Kind ActivationKind
	// Dep is the local (possibly renamed) dependency name. Empty for Local.
	Dep string
	// Feature is the enabled feature. Empty for Bare.
	Feature string
	// Raw is the entry exactly as written in the manifest.
	Raw string
}

// ParseActivation parses the textual form of an activation entry.
//
// A plain name is returned as Local; whether it actually names an optional
// dependency is only known once the owning package is available, see New.
func ParseActivation(raw string) (Activation, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Activation{}, fmt.Errorf("%w: empty entry", ErrMalformedActivation)
	}
	if dep, ok := strings.CutPrefix(s, "dep:"); ok {
		if dep == "" || strings.ContainsAny(dep, "/?:") {
			return Activation{}, fmt.Errorf("%w: %q", ErrMalformedActivation, raw)
		}
		return Activation{Kind: Bare, Dep: dep, Raw: s}, nil
	}
	if dep, feature, ok := strings.Cut(s, "/"); ok {
		kind := Strong
		if d, weak := strings.CutSuffix(dep, "?"); weak {
			kind = Weak
			dep = d
		}
		if dep == "" || feature == "" || strings.ContainsAny(dep, "?/:") || strings.ContainsAny(feature, "?/:") {
			return Activation{}, fmt.Errorf("%w: %q", ErrMalformedActivation, raw)
		}
		return Activation{Kind: kind, Dep: dep, Feature: feature, Raw: s}, nil
	}
	if strings.ContainsAny(s, "?:") {
		return Activation{}, fmt.Errorf("%w: %q", ErrMalformedActivation, raw)
	}
	return Activation{Kind: Local, Feature: s, Raw: s}, nil
}

// String renders the activation in canonical textual form.
func (a Activation) String() string {
	switch a.Kind {
	case Strong:
		return a.Dep + "/" + a.Feature
	case Weak:
		return a.Dep + "?/" + a.Feature
	case Bare:
		if a.Raw != "" && !strings.HasPrefix(a.Raw, "dep:") {
			return a.Raw
		}
		return "dep:" + a.Dep
	default:
		return a.Feature
	}
}

// Targets reports whether the entry addresses feature on the dependency with
// the given local name, either weakly or strongly.
func (a Activation) Targets(dep, feature string) bool {
	return (a.Kind == Strong || a.Kind == Weak) && a.Dep == dep && a.Feature == feature
}

// FormatActivation builds the textual entry that enables feature on the
// dependency with local name dep.
func FormatActivation(dep, feature string, weak bool) string {
	if weak {
		return dep + "?/" + feature
	}
	return dep + "/" + feature
}
