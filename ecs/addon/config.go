package addon

import (
	"fmt"
	"sort"
	"strings"
)

// Preset is a named starting point for a Config.
type Preset string

const (
	// PresetNone disables every addon.
	PresetNone Preset = "none"
	// PresetCustom is the trimmed build used by the engine: no alerts,
	// docs or HTTP endpoint.
	PresetCustom Preset = "custom"
	// PresetFull enables every addon.
	PresetFull Preset = "full"
)

// Values returns the flag values of the preset.
func (p Preset) Values() (map[ID]bool, error) {
	values := make(map[ID]bool, len(table))
	for id := range table {
		values[id] = false
	}

	switch Preset(strings.ToLower(string(p))) {
	case PresetNone, "":
	case PresetCustom:
		for _, id := range []ID{App, Log, Metrics, Module, OSAPI, Pipeline, System, Stats, Timer, Units} {
			values[id] = true
		}
	case PresetFull:
		for id := range values {
			values[id] = true
		}
	default:
		return nil, &ConfigurationError{Kind: KindUnknownPreset, Detail: string(p)}
	}
	return values, nil
}

// Config collects flag values while Unconfigured. Freeze moves it to
// Configured; the transition is one-way. A Config is meant to be used from a
// single goroutine during startup.
type Config struct {
	values map[ID]bool
	frozen *Flags
}

// NewConfig returns an Unconfigured config with every addon disabled.
func NewConfig() *Config {
	values, _ := PresetNone.Values()
	return &Config{values: values}
}

// Configured reports whether Freeze has been called.
func (c *Config) Configured() bool {
	return c.frozen != nil
}

// Set records the value of one addon.
func (c *Config) Set(id ID, enabled bool) error {
	if c.frozen != nil {
		return &ConfigurationError{Kind: KindFrozen, Addon: string(id)}
	}
	canon, err := Parse(string(id))
	if err != nil {
		return err
	}
	c.values[canon] = enabled
	return nil
}

// Enable sets each of ids to true, stopping at the first error.
func (c *Config) Enable(ids ...ID) error {
	for _, id := range ids {
		if err := c.Set(id, true); err != nil {
			return err
		}
	}
	return nil
}

// Disable sets each of ids to false, stopping at the first error.
func (c *Config) Disable(ids ...ID) error {
	for _, id := range ids {
		if err := c.Set(id, false); err != nil {
			return err
		}
	}
	return nil
}

// Apply overwrites every value with those of preset.
func (c *Config) Apply(preset Preset) error {
	if c.frozen != nil {
		return &ConfigurationError{Kind: KindFrozen, Detail: "preset " + string(preset)}
	}
	values, err := preset.Values()
	if err != nil {
		return err
	}
	c.values = values
	return nil
}

// Freeze fixes the values and returns the resulting flag set. Calling it
// again returns the same Flags.
func (c *Config) Freeze() *Flags {
	if c.frozen == nil {
		values := make(map[ID]bool, len(c.values))
		for id, on := range c.values {
			values[id] = on
		}
		c.frozen = &Flags{values: values}
	}
	return c.frozen
}

// Resolve maps names (or aliases) to canonical ids. Naming one addon twice
// is allowed only when the values agree.
func Resolve(m map[string]bool) (map[ID]bool, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(map[ID]bool, len(m))
	setBy := make(map[ID]string, len(m))
	for _, name := range names {
		id, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if prev, ok := setBy[id]; ok && values[id] != m[name] {
			return nil, &ConfigurationError{
				Kind:   KindDuplicateAddon,
				Addon:  string(id),
				Detail: fmt.Sprintf("%s=%t and %s=%t", prev, values[id], name, m[name]),
			}
		}
		values[id] = m[name]
		setBy[id] = name
	}
	return values, nil
}

// FromMap configures and freezes a flag set from names (or aliases) to
// values. Addons not named stay disabled.
func FromMap(m map[string]bool) (*Flags, error) {
	values, err := Resolve(m)
	if err != nil {
		return nil, err
	}
	c := NewConfig()
	for id, on := range values {
		if err := c.Set(id, on); err != nil {
			return nil, err
		}
	}
	return c.Freeze(), nil
}
