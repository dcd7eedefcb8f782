// Package world builds the runtime handle of an ECS world from a frozen
// addon flag set. Only the subsystems named by the flags are initialised,
// and every operation backed by a disabled addon fails with a
// SubsystemDisabledError instead of doing nothing.
//
// A World is built once, owned by the host, and closed exactly once:
//
//	flags, _ := addon.FromMap(map[string]bool{"module": true, "pipeline": true, "system": true})
//	w, err := world.Build(flags)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
package world

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/units"
	"github.com/sirupsen/logrus"
)

// World is the runtime handle. IsEnabled and Flags may be called from any
// goroutine; every other operation belongs to the goroutine that owns the
// handle.
type World struct {
	flags   *addon.Flags
	opts    options
	torn    atomic.Bool
	closers []closer

	os       OSAPI
	registry *ecs.ComponentRegistry
	storage  *ecs.Storage

	logger *logrus.Logger
	log    *logrus.Entry

	modules  *moduleSet
	units    *units.Catalog
	pipeline *pipeline
	timers   *timerSet
	stats    *statsTracker
	metrics  *metricsState
	alerts   *alertSet
	docs     map[*ecs.EntityRef]Description
	http     *httpServer
}

type closer struct {
	name string
	fn   func() error
}

type initStep struct {
	name string
	fn   func(*World) error
}

// Initialisation order. Each step runs only what its addon enables and
// registers closers for whatever it allocates.
var initSteps = []initStep{
	{"core", (*World).initCore},
	{"log", (*World).initLog},
	{"module", (*World).initModules},
	{"units", (*World).initUnits},
	{"pipeline", (*World).initPipeline},
	{"timer", (*World).initTimers},
	{"stats", (*World).initStats},
	{"metrics", (*World).initMetrics},
	{"alerts", (*World).initAlerts},
	{"doc", (*World).initDocs},
	{"http", (*World).initHTTP},
	{"imports", (*World).importModules},
}

// Build validates flags and constructs a World with exactly the enabled
// subsystems. Build is atomic: on any failure everything allocated so far is
// released and no handle is returned.
func Build(flags *addon.Flags, opts ...Option) (*World, error) {
	if flags == nil {
		return nil, &addon.ConfigurationError{Kind: addon.KindNoFlags}
	}
	if err := flags.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := preflight(flags, &o); err != nil {
		return nil, err
	}

	w := &World{flags: flags, opts: o}
	for _, step := range initSteps {
		if err := step.fn(w); err != nil {
			var result error = fmt.Errorf("world: init %s: %w", step.name, err)
			if cerr := w.teardown(); cerr != nil {
				result = multierror.Append(result, cerr)
			}
			return nil, result
		}
	}

	w.log.WithField("addons", flags.String()).Info("world ready")
	return w, nil
}

// Addons that cannot work without a clock.
var clockAddons = []addon.ID{addon.Timer, addon.App}

// preflight checks options against the flags before anything is allocated.
func preflight(flags *addon.Flags, o *options) error {
	if !enabled(flags, addon.OSAPI) && o.os == nil {
		for _, id := range clockAddons {
			if enabled(flags, id) {
				return &addon.ConfigurationError{
					Kind:   addon.KindMissingOSAPI,
					Addon:  string(id),
					Detail: "os_api is disabled and no OSAPI was supplied",
				}
			}
		}
	}
	if len(o.modules) > 0 && !enabled(flags, addon.Module) {
		return &SubsystemDisabledError{Op: "WithModules", Addon: addon.Module}
	}
	if enabled(flags, addon.Alerts) {
		seen := make(map[string]bool, len(o.alertRules))
		for _, rule := range o.alertRules {
			if err := rule.validate(); err != nil {
				return err
			}
			if seen[rule.Name] {
				return fmt.Errorf("%w: %q", ErrDuplicateAlert, rule.Name)
			}
			seen[rule.Name] = true
		}
	}
	return nil
}

func enabled(flags *addon.Flags, id addon.ID) bool {
	on, _ := flags.IsEnabled(id)
	return on
}

func (w *World) onClose(name string, fn func() error) {
	w.closers = append(w.closers, closer{name: name, fn: fn})
}

// teardown runs closers in reverse registration order and collects their
// failures.
func (w *World) teardown() error {
	var result *multierror.Error
	for i := len(w.closers) - 1; i >= 0; i-- {
		c := w.closers[i]
		if err := c.fn(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	w.closers = nil
	return result.ErrorOrNil()
}

func (w *World) guard(op string) error {
	if w.torn.Load() {
		return &UseAfterTeardownError{Op: op}
	}
	return nil
}

// gate fails when the handle is closed or id is disabled.
func (w *World) gate(op string, id addon.ID) error {
	if err := w.guard(op); err != nil {
		return err
	}
	if !enabled(w.flags, id) {
		return &SubsystemDisabledError{Op: op, Addon: id}
	}
	return nil
}

func (w *World) initCore() error {
	w.os = w.opts.os
	if w.os == nil && enabled(w.flags, addon.OSAPI) {
		w.os = systemOS{}
	}
	w.registry = w.opts.registry
	if w.registry == nil {
		w.registry = ecs.NewComponentRegistry()
	}
	w.storage = ecs.NewStorage(w.registry)
	return nil
}

func (w *World) initUnits() error {
	if enabled(w.flags, addon.Units) {
		w.units = units.NewCatalog()
	}
	return nil
}

// IsEnabled reports whether id is enabled. Aliases are accepted and unknown
// identifiers fail with a ConfigurationError.
func (w *World) IsEnabled(id addon.ID) (bool, error) {
	if err := w.guard("IsEnabled"); err != nil {
		return false, err
	}
	return w.flags.IsEnabled(id)
}

// Flags returns the flag set the world was built from.
func (w *World) Flags() (*addon.Flags, error) {
	if err := w.guard("Flags"); err != nil {
		return nil, err
	}
	return w.flags, nil
}

// Storage returns the entity storage.
func (w *World) Storage() (*ecs.Storage, error) {
	if err := w.guard("Storage"); err != nil {
		return nil, err
	}
	return w.storage, nil
}

// Registry returns the component registry.
func (w *World) Registry() (*ecs.ComponentRegistry, error) {
	if err := w.guard("Registry"); err != nil {
		return nil, err
	}
	return w.registry, nil
}

// Units returns the unit catalog.
func (w *World) Units() (*units.Catalog, error) {
	if err := w.gate("Units", addon.Units); err != nil {
		return nil, err
	}
	return w.units, nil
}

// Now reads the world's clock. Without the os_api addon it only works when
// an OSAPI was supplied to Build.
func (w *World) Now() (time.Time, error) {
	if err := w.guard("Now"); err != nil {
		return time.Time{}, err
	}
	if w.os == nil {
		return time.Time{}, &SubsystemDisabledError{Op: "Now", Addon: addon.OSAPI}
	}
	return w.os.Now(), nil
}

// Close tears the world down: the handle is marked closed first, then every
// subsystem is released in reverse initialisation order. A second Close
// fails with UseAfterTeardownError.
func (w *World) Close() error {
	if !w.torn.CompareAndSwap(false, true) {
		return &UseAfterTeardownError{Op: "Close"}
	}
	w.log.Info("world teardown")
	if err := w.teardown(); err != nil {
		return fmt.Errorf("world: teardown: %w", err)
	}
	return nil
}
