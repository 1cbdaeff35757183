package lint

import (
	"fmt"
	"strings"

	"github.com/fbkclanna/featlint/internal/model"
)

// MuteSetting decides what happens to a class of finding. The zero value
// fixes.
type MuteSetting int

const (
	MuteFix MuteSetting = iota
	MuteReport
	MuteIgnore
)

func (m MuteSetting) String() string {
	switch m {
	case MuteIgnore:
		return "ignore"
	case MuteReport:
		return "report"
	default:
		return "fix"
	}
}

// ParseMuteSetting parses ignore, report, or fix.
func ParseMuteSetting(s string) (MuteSetting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore":
		return MuteIgnore, nil
	case "report":
		return MuteReport, nil
	case "fix":
		return MuteFix, nil
	default:
		return 0, fmt.Errorf("invalid setting %q (must be ignore, report, or fix)", s)
	}
}

// IgnoreSetting decides whether a class of dependency is checked.
type IgnoreSetting int

const (
	Check IgnoreSetting = iota
	Ignore
)

func (s IgnoreSetting) String() string {
	if s == Ignore {
		return "ignore"
	}
	return "check"
}

// ParseIgnoreSetting parses check or ignore.
func ParseIgnoreSetting(s string) (IgnoreSetting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "check":
		return Check, nil
	case "ignore":
		return Ignore, nil
	default:
		return 0, fmt.Errorf("invalid setting %q (must be check or ignore)", s)
	}
}

// KindFilter maps dependency kinds to whether they are checked. Kinds missing
// from the map are checked.
type KindFilter map[model.DepKind]IgnoreSetting

// Checks reports whether dependencies of kind k are considered.
func (f KindFilter) Checks(k model.DepKind) bool {
	return f[k] != Ignore
}

// ParseKindFilter parses entries of the form "dev:ignore".
func ParseKindFilter(entries []string) (KindFilter, error) {
	f := KindFilter{}
	for _, e := range entries {
		kind, setting, ok := strings.Cut(e, ":")
		if !ok {
			return nil, fmt.Errorf("invalid dependency kind filter %q (expected KIND:check|ignore)", e)
		}
		k, err := model.ParseDepKind(kind)
		if err != nil {
			return nil, err
		}
		s, err := ParseIgnoreSetting(setting)
		if err != nil {
			return nil, err
		}
		f[k] = s
	}
	return f, nil
}

// IgnorePair suppresses the finding that Package/Feature does not propagate to
// Dep/DepFeature. Names are package names, not renames.
type IgnorePair struct {
	Package    string
	Feature    string
	Dep        string
	DepFeature string
}

// ParseIgnorePair parses "C/F:D/F".
func ParseIgnorePair(s string) (IgnorePair, error) {
	lhs, rhs, ok := strings.Cut(s, ":")
	if !ok {
		return IgnorePair{}, fmt.Errorf("invalid ignore pair %q (expected PKG/FEATURE:DEP/FEATURE)", s)
	}
	pkg, feature, ok1 := strings.Cut(lhs, "/")
	dep, depFeature, ok2 := strings.Cut(rhs, "/")
	if !ok1 || !ok2 || pkg == "" || feature == "" || dep == "" || depFeature == "" {
		return IgnorePair{}, fmt.Errorf("invalid ignore pair %q (expected PKG/FEATURE:DEP/FEATURE)", s)
	}
	return IgnorePair{Package: pkg, Feature: feature, Dep: dep, DepFeature: depFeature}, nil
}

// EnablesDep forces a strong activation of Dep when propagating Feature, even
// if the dependency is optional.
type EnablesDep struct {
	Feature string
	Dep     string
}

// ParseEnablesDep parses "FEATURE:DEP".
func ParseEnablesDep(s string) (EnablesDep, error) {
	feature, dep, ok := strings.Cut(s, ":")
	if !ok || feature == "" || dep == "" {
		return EnablesDep{}, fmt.Errorf("invalid feature-enables-dep %q (expected FEATURE:DEP)", s)
	}
	return EnablesDep{Feature: feature, Dep: dep}, nil
}
