// Package addon declares the optional subsystems of the runtime and the
// dependency rules between them.
//
// A flag set is assembled on a Config, frozen once, and then read through the
// immutable Flags value. Flags never answers with a default for an identifier
// it does not know: unknown names are configuration errors.
package addon

import (
	"sort"
	"strings"
)

// ID names an addon. The constants below are the canonical names.
type ID string

const (
	Alerts   ID = "alerts"
	App      ID = "app"
	Doc      ID = "doc"
	HTTP     ID = "http"
	Log      ID = "log"
	Metrics  ID = "metrics"
	Module   ID = "module"
	OSAPI    ID = "os_api"
	Pipeline ID = "pipeline"
	Stats    ID = "stats"
	System   ID = "system"
	Timer    ID = "timer"
	Units    ID = "units"
)

type entry struct {
	requires    []ID
	aliases     []string
	description string
}

var table = map[ID]entry{
	Alerts:   {requires: []ID{Metrics}, description: "Monitor metric conditions and raise alerts"},
	App:      {requires: []ID{Pipeline}, aliases: []string{"application"}, description: "Application main loop"},
	Doc:      {requires: []ID{Module}, aliases: []string{"docs"}, description: "Document entities"},
	HTTP:     {description: "HTTP endpoint exposing runtime state"},
	Log:      {aliases: []string{"logging"}, description: "Structured runtime logging"},
	Metrics:  {requires: []ID{Stats, Units}, description: "Expose statistics as metrics"},
	Module:   {aliases: []string{"modules", "module_support", "modulesupport"}, description: "Module support"},
	OSAPI:    {aliases: []string{"os_api_impl", "osapi"}, description: "Default OS API implementation"},
	Pipeline: {requires: []ID{Module}, aliases: []string{"pipelines"}, description: "Frame pipeline"},
	Stats:    {requires: []ID{Module}, aliases: []string{"statistics"}, description: "Track runtime statistics"},
	System:   {requires: []ID{Module}, aliases: []string{"systems"}, description: "System support"},
	Timer:    {requires: []ID{Module, Pipeline}, aliases: []string{"timers"}, description: "Timers and rate filters"},
	Units:    {requires: []ID{Module}, description: "Builtin standard units"},
}

var lookup = func() map[string]ID {
	m := make(map[string]ID, len(table)*2)
	for id, s := range table {
		m[string(id)] = id
		for _, a := range s.aliases {
			m[a] = id
		}
	}
	return m
}()

// Parse resolves a canonical name or alias, ignoring case and surrounding
// whitespace.
func Parse(name string) (ID, error) {
	if id, ok := lookup[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id, nil
	}
	return "", &ConfigurationError{Kind: KindUnknownAddon, Addon: name}
}

// Known returns every addon in name order.
func Known() []ID {
	ids := make([]ID, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Requires returns the direct requirements of id. Unknown ids have none.
func Requires(id ID) []ID {
	if canon, err := Parse(string(id)); err == nil {
		return append([]ID(nil), table[canon].requires...)
	}
	return nil
}

// Describe returns a one-line description of id.
func Describe(id ID) string {
	if canon, err := Parse(string(id)); err == nil {
		return table[canon].description
	}
	return ""
}

func (id ID) String() string {
	return string(id)
}
