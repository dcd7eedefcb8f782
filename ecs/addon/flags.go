package addon

import (
	"sort"
	"strings"
)

// Flags is a frozen flag set. It is never mutated after Freeze and may be
// shared freely between goroutines.
type Flags struct {
	values map[ID]bool
}

// IsEnabled returns the configured value of id. Aliases are accepted.
// An identifier that names no addon yields a ConfigurationError.
func (f *Flags) IsEnabled(id ID) (bool, error) {
	canon, err := Parse(string(id))
	if err != nil {
		return false, err
	}
	return f.values[canon], nil
}

// Enabled returns the enabled addons in name order.
func (f *Flags) Enabled() []ID {
	var ids []ID
	for _, id := range Known() {
		if f.values[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Values returns a copy of every addon's value.
func (f *Flags) Values() map[ID]bool {
	out := make(map[ID]bool, len(f.values))
	for id, on := range f.values {
		out[id] = on
	}
	return out
}

// Validate checks the dependency table. It returns a *DependencyError that
// lists every enabled addon with a disabled requirement, or nil.
func (f *Flags) Validate() error {
	var violations []Violation
	for _, id := range Known() {
		if !f.values[id] {
			continue
		}
		for _, req := range table[id].requires {
			if !f.values[req] {
				violations = append(violations, Violation{Addon: id, Requires: req})
			}
		}
	}
	if len(violations) == 0 {
		return nil
	}
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Addon != violations[j].Addon {
			return violations[i].Addon < violations[j].Addon
		}
		return violations[i].Requires < violations[j].Requires
	})
	return &DependencyError{Violations: violations}
}

// String lists the enabled addons, comma separated.
func (f *Flags) String() string {
	enabled := f.Enabled()
	names := make([]string, len(enabled))
	for i, id := range enabled {
		names[i] = string(id)
	}
	return strings.Join(names, ",")
}
