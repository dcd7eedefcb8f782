package world

import (
	"errors"
	"fmt"
	"strings"

	"github.com/plus3/ecsrt/ecs/addon"
)

// ErrImportCycle is returned when a module imports itself, directly or not.
var ErrImportCycle = errors.New("world: module import cycle")

// Module bundles components, systems and timers under a name. Import is
// called once per world; importing the same name again is a no-op.
type Module interface {
	Name() string
	Import(w *World) error
}

// ModuleFunc adapts a function to a Module.
type ModuleFunc func(w *World) error

type funcModule struct {
	name string
	fn   ModuleFunc
}

func (m funcModule) Name() string          { return m.name }
func (m funcModule) Import(w *World) error { return m.fn(w) }

// NewModule names fn as a Module.
func NewModule(name string, fn ModuleFunc) Module {
	return funcModule{name: name, fn: fn}
}

type moduleSet struct {
	imported  map[string]bool
	order     []string
	importing []string
}

func (w *World) initModules() error {
	if enabled(w.flags, addon.Module) {
		w.modules = &moduleSet{imported: make(map[string]bool)}
	}
	return nil
}

func (w *World) importModules() error {
	for _, m := range w.opts.modules {
		if err := w.Import(m); err != nil {
			return err
		}
	}
	return nil
}

// Import runs m's Import unless a module of the same name was already
// imported. A module that is imported again while its own Import is still
// running fails with ErrImportCycle.
func (w *World) Import(m Module) error {
	if err := w.gate("Import", addon.Module); err != nil {
		return err
	}

	name := m.Name()
	if name == "" {
		return errors.New("world: module has no name")
	}
	set := w.modules
	if set.imported[name] {
		return nil
	}
	for _, in := range set.importing {
		if in == name {
			chain := append(append([]string{}, set.importing...), name)
			return fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(chain, " -> "))
		}
	}

	set.importing = append(set.importing, name)
	err := m.Import(w)
	set.importing = set.importing[:len(set.importing)-1]
	if err != nil {
		return fmt.Errorf("world: import %s: %w", name, err)
	}

	set.imported[name] = true
	set.order = append(set.order, name)
	w.log.WithField("module", name).Debug("module imported")
	return nil
}

// Modules lists imported module names in import order.
func (w *World) Modules() ([]string, error) {
	if err := w.gate("Modules", addon.Module); err != nil {
		return nil, err
	}
	return append([]string(nil), w.modules.order...), nil
}
