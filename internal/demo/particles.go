// Package demo is a small particle simulation used by the command line
// tools to exercise a world end to end.
package demo

import (
	"math/rand/v2"
	"time"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Lifetime struct {
	Remaining float64
}

type Heat struct {
	Value float64
}

// Bounds is a singleton holding the simulation area.
type Bounds struct {
	Width, Height float64
}

type MovementSystem struct {
	Bounds   ecs.Singleton[Bounds]
	Entities ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	b := s.Bounds.Get()
	for e := range s.Entities.Values() {
		e.Position.X += e.Velocity.DX * frame.DeltaTime
		e.Position.Y += e.Velocity.DY * frame.DeltaTime
		if b == nil {
			continue
		}
		if e.Position.X < 0 || e.Position.X > b.Width {
			e.Velocity.DX = -e.Velocity.DX
		}
		if e.Position.Y < 0 || e.Position.Y > b.Height {
			e.Velocity.DY = -e.Velocity.DY
		}
	}
}

type CoolingSystem struct {
	Entities ecs.Query[struct {
		*Heat
		Velocity *Velocity `ecs:"optional"`
	}]
}

func (s *CoolingSystem) Execute(frame *ecs.UpdateFrame) {
	for e := range s.Entities.Values() {
		rate := 0.5
		if e.Velocity != nil {
			rate = 1
		}
		e.Heat.Value -= rate * frame.DeltaTime
		if e.Heat.Value < 0 {
			e.Heat.Value = 0
		}
	}
}

type AgingSystem struct {
	Entities ecs.Query[struct {
		Id ecs.EntityId
		*Lifetime
	}]
}

func (s *AgingSystem) Execute(frame *ecs.UpdateFrame) {
	for e := range s.Entities.Values() {
		e.Lifetime.Remaining -= frame.DeltaTime
		if e.Lifetime.Remaining <= 0 {
			frame.Commands.Delete(e.Id)
		}
	}
}

// EmitterSystem queues new particles each time it runs.
type EmitterSystem struct {
	Bounds ecs.Singleton[Bounds]
	Batch  int
	rng    *rand.Rand
}

func (s *EmitterSystem) Execute(frame *ecs.UpdateFrame) {
	b := s.Bounds.Get()
	if b == nil {
		return
	}
	for range s.Batch {
		spawnParticle(frame.Commands, s.rng, *b)
	}
}

type spawner interface {
	Spawn(components ...any)
}

func spawnParticle(sp spawner, rng *rand.Rand, b Bounds) {
	pos := Position{X: rng.Float64() * b.Width, Y: rng.Float64() * b.Height}
	vel := Velocity{DX: rng.Float64()*20 - 10, DY: rng.Float64()*20 - 10}
	switch rng.IntN(3) {
	case 0:
		sp.Spawn(pos, vel)
	case 1:
		sp.Spawn(pos, vel, Lifetime{Remaining: 1 + rng.Float64()*4})
	default:
		sp.Spawn(pos, vel, Lifetime{Remaining: 1 + rng.Float64()*4}, Heat{Value: rng.Float64() * 100})
	}
}

// storageSpawner adapts Storage.Spawn, which returns the new id, to spawner.
type storageSpawner struct{ s *ecs.Storage }

func (ss storageSpawner) Spawn(components ...any) { ss.s.Spawn(components...) }

// Options configures Module.
type Options struct {
	Entities int
	Batch    int
	Seed     uint64
	Bounds   Bounds
}

// Module spawns the initial particles and installs the particle systems.
// Systems are only registered when the system addon is on; the emitter runs
// on a one second interval when timers are available and every frame
// otherwise.
func Module(o Options) world.Module {
	return world.NewModule("particles", func(w *world.World) error {
		reg, err := w.Registry()
		if err != nil {
			return err
		}
		ecs.RegisterComponent[Position](reg)
		ecs.RegisterComponent[Velocity](reg)
		ecs.RegisterComponent[Lifetime](reg)
		ecs.RegisterComponent[Heat](reg)

		storage, err := w.Storage()
		if err != nil {
			return err
		}
		storage.AddSingleton(o.Bounds)

		rng := rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))
		for range o.Entities {
			spawnParticle(storageSpawner{storage}, rng, o.Bounds)
		}

		if on, _ := w.IsEnabled(addon.System); !on {
			return nil
		}
		if err := w.RegisterSystem(&MovementSystem{}, world.Named("movement")); err != nil {
			return err
		}
		if err := w.RegisterSystem(&CoolingSystem{}, world.Named("cooling"), world.InPhase(world.PostUpdate)); err != nil {
			return err
		}
		if err := w.RegisterSystem(&AgingSystem{}, world.Named("aging"), world.InPhase(world.PostUpdate)); err != nil {
			return err
		}

		emitter := []world.SystemOption{world.Named("emitter"), world.InPhase(world.PreUpdate)}
		if on, _ := w.IsEnabled(addon.Timer); on {
			emitter = append(emitter, world.Interval(time.Second))
		}
		return w.RegisterSystem(&EmitterSystem{Batch: o.Batch, rng: rng}, emitter...)
	})
}
