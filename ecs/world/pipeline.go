package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/sirupsen/logrus"
)

var (
	// ErrDuplicateSystem is returned when a system name is registered twice.
	ErrDuplicateSystem = errors.New("world: duplicate system name")
	// ErrUnknownSystem is returned by RunSystem for unregistered names.
	ErrUnknownSystem = errors.New("world: unknown system")
	// ErrNilSystem is returned by RegisterSystem for a nil system.
	ErrNilSystem = errors.New("world: nil system")
)

// Phase is a pipeline stage. Phases run in declaration order every frame.
type Phase int

const (
	OnLoad Phase = iota
	PostLoad
	PreUpdate
	OnUpdate
	OnValidate
	PostUpdate
	PreStore
	OnStore

	numPhases
)

var phaseNames = [numPhases]string{
	"OnLoad", "PostLoad", "PreUpdate", "OnUpdate",
	"OnValidate", "PostUpdate", "PreStore", "OnStore",
}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Phases returns every phase in execution order.
func Phases() []Phase {
	out := make([]Phase, numPhases)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

type pipeline struct {
	phases  [numPhases]*ecs.Scheduler
	systems map[string]Phase

	frame     uint64
	simTime   float64
	lastFrame time.Time
	quit      bool
}

func (w *World) initPipeline() error {
	if !enabled(w.flags, addon.System) && !enabled(w.flags, addon.Pipeline) {
		return nil
	}
	p := &pipeline{systems: make(map[string]Phase)}
	for i := range p.phases {
		p.phases[i] = ecs.NewScheduler(w.storage)
	}
	w.pipeline = p
	return nil
}

// SystemOption customises RegisterSystem.
type SystemOption func(*systemOptions)

type systemOptions struct {
	phase    Phase
	name     string
	interval time.Duration
	rate     int
}

// InPhase places the system in phase. The default is OnUpdate.
func InPhase(phase Phase) SystemOption {
	return func(o *systemOptions) { o.phase = phase }
}

// Named overrides the name derived from the system's type.
func Named(name string) SystemOption {
	return func(o *systemOptions) { o.name = name }
}

// Interval runs the system once per d of simulated time. Requires the timer
// addon.
func Interval(d time.Duration) SystemOption {
	return func(o *systemOptions) { o.interval = d }
}

// Rate runs the system every n-th frame. Requires the timer addon.
func Rate(n int) SystemOption {
	return func(o *systemOptions) { o.rate = n }
}

// RegisterSystem adds a system to a pipeline phase. Names must be unique
// across phases.
func (w *World) RegisterSystem(system ecs.System, opts ...SystemOption) error {
	if err := w.gate("RegisterSystem", addon.System); err != nil {
		return err
	}
	if system == nil {
		return ErrNilSystem
	}

	so := systemOptions{phase: OnUpdate}
	for _, opt := range opts {
		opt(&so)
	}
	if so.phase < 0 || so.phase >= numPhases {
		return fmt.Errorf("world: invalid phase %d", int(so.phase))
	}
	if (so.interval > 0 || so.rate > 0) && !enabled(w.flags, addon.Timer) {
		return &SubsystemDisabledError{Op: "RegisterSystem", Addon: addon.Timer}
	}
	if so.interval < 0 || so.rate < 0 {
		return errors.New("world: interval and rate must not be negative")
	}

	name := so.name
	if name == "" {
		name = ecs.SystemName(system)
	}
	if name == "" {
		return errors.New("world: system has no type name; register it with Named")
	}
	if _, ok := w.pipeline.systems[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSystem, name)
	}

	regOpts := []ecs.RegisterOption{ecs.WithName(name)}
	switch {
	case so.interval > 0:
		regOpts = append(regOpts, ecs.WithGate(intervalGate(so.interval)))
	case so.rate > 0:
		regOpts = append(regOpts, ecs.WithGate(rateGate(so.rate)))
	}

	w.pipeline.phases[so.phase].Register(system, regOpts...)
	w.pipeline.systems[name] = so.phase
	w.log.WithFields(logrus.Fields{"system": name, "phase": so.phase.String()}).Debug("system registered")
	return nil
}

// RunSystem runs one registered system outside the pipeline, ignoring its
// interval or rate, and applies its commands.
func (w *World) RunSystem(name string, dt float64) error {
	if err := w.gate("RunSystem", addon.System); err != nil {
		return err
	}
	phase, ok := w.pipeline.systems[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSystem, name)
	}
	w.pipeline.phases[phase].RunNamed(name, dt)
	return nil
}

// Systems lists registered system names by phase, in execution order.
func (w *World) Systems() (map[Phase][]string, error) {
	if err := w.gate("Systems", addon.System); err != nil {
		return nil, err
	}
	out := make(map[Phase][]string)
	for i, s := range w.pipeline.phases {
		names := s.Names()
		if len(names) > 0 {
			out[Phase(i)] = names
		}
	}
	return out, nil
}

// Progress runs one frame: every phase in order, each applying its commands
// before the next starts. A dt of zero or less is measured from the clock,
// which must exist; the first measured frame has a delta of zero. Progress
// returns false once Quit has been called.
func (w *World) Progress(dt float64) (bool, error) {
	if err := w.gate("Progress", addon.Pipeline); err != nil {
		return false, err
	}
	p := w.pipeline

	var start time.Time
	if w.os != nil {
		start = w.os.Now()
	}
	if dt <= 0 {
		if w.os == nil {
			return false, &SubsystemDisabledError{Op: "Progress", Addon: addon.OSAPI}
		}
		dt = 0
		if !p.lastFrame.IsZero() {
			dt = start.Sub(p.lastFrame).Seconds()
		}
	}
	p.lastFrame = start

	for _, s := range p.phases {
		s.Once(dt)
	}

	if w.docs != nil {
		w.pruneDocs()
	}

	p.frame++
	p.simTime += dt
	var frameTime time.Duration
	if w.os != nil {
		frameTime = w.os.Now().Sub(start)
	}

	if w.stats != nil {
		snap := w.stats.record(w, dt, frameTime)
		if w.alerts != nil {
			w.alerts.evaluate(snap, w.log)
		}
	}
	return !p.quit, nil
}

// Quit makes the current and every later Progress return false.
func (w *World) Quit() error {
	if err := w.gate("Quit", addon.Pipeline); err != nil {
		return err
	}
	w.pipeline.quit = true
	w.log.Debug("quit requested")
	return nil
}

// Frame returns the number of completed frames.
func (w *World) Frame() (uint64, error) {
	if err := w.gate("Frame", addon.Pipeline); err != nil {
		return 0, err
	}
	return w.pipeline.frame, nil
}

// intervalGate passes once per d of accumulated delta time.
func intervalGate(d time.Duration) ecs.Gate {
	period := d.Seconds()
	var acc float64
	return func(frame *ecs.UpdateFrame) bool {
		acc += frame.DeltaTime
		if acc+1e-9 < period {
			return false
		}
		acc -= period
		if acc < 0 {
			acc = 0
		}
		return true
	}
}

// rateGate passes on every n-th call.
func rateGate(n int) ecs.Gate {
	var count int
	return func(*ecs.UpdateFrame) bool {
		count++
		if count < n {
			return false
		}
		count = 0
		return true
	}
}
