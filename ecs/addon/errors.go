package addon

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a ConfigurationError.
type ErrorKind int

const (
	KindUnknownAddon ErrorKind = iota + 1
	KindFrozen
	KindNoFlags
	KindMissingOSAPI
	KindUnknownMetric
	KindUnknownPreset
	KindDuplicateAddon
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownAddon:
		return "unknown addon"
	case KindFrozen:
		return "configuration frozen"
	case KindNoFlags:
		return "no flag set"
	case KindMissingOSAPI:
		return "missing os api"
	case KindUnknownMetric:
		return "unknown metric"
	case KindUnknownPreset:
		return "unknown preset"
	case KindDuplicateAddon:
		return "conflicting values for addon"
	default:
		return "configuration error"
	}
}

// ConfigurationError reports a misconfigured flag set or runtime option.
type ConfigurationError struct {
	Kind   ErrorKind
	Addon  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("addon: ")
	b.WriteString(e.Kind.String())
	if e.Addon != "" {
		fmt.Fprintf(&b, " %q", e.Addon)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is matches another ConfigurationError of the same kind, so callers can
// test with errors.Is(err, &addon.ConfigurationError{Kind: ...}).
func (e *ConfigurationError) Is(target error) bool {
	t, ok := target.(*ConfigurationError)
	return ok && t.Kind == e.Kind
}

// Violation is one enabled addon whose requirement is disabled.
type Violation struct {
	Addon    ID
	Requires ID
}

// DependencyError lists every violation found in a flag set.
type DependencyError struct {
	Violations []Violation
}

func (e *DependencyError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s requires %s", v.Addon, v.Requires)
	}
	return "addon: unsatisfied dependencies: " + strings.Join(parts, ", ")
}

// Missing reports whether id is listed as a missing requirement.
func (e *DependencyError) Missing(id ID) bool {
	for _, v := range e.Violations {
		if v.Requires == id {
			return true
		}
	}
	return false
}
