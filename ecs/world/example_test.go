package world_test

import (
	"errors"
	"fmt"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
)

type Lifetime struct {
	Remaining float64
}

type ExpirySystem struct {
	Entities ecs.Query[struct {
		Id ecs.EntityId
		*Lifetime
	}]
}

func (s *ExpirySystem) Execute(frame *ecs.UpdateFrame) {
	for e := range s.Entities.Values() {
		e.Lifetime.Remaining -= frame.DeltaTime
		if e.Lifetime.Remaining <= 0 {
			frame.Commands.Delete(e.Id)
		}
	}
}

func Example() {
	flags, err := addon.FromMap(map[string]bool{
		"module":   true,
		"pipeline": true,
		"system":   true,
		"stats":    true,
	})
	if err != nil {
		panic(err)
	}

	w, err := world.Build(flags)
	if err != nil {
		panic(err)
	}
	defer w.Close()

	reg, _ := w.Registry()
	ecs.RegisterComponent[Lifetime](reg)
	storage, _ := w.Storage()
	storage.Spawn(Lifetime{Remaining: 0.5})
	storage.Spawn(Lifetime{Remaining: 2})

	_ = w.RegisterSystem(&ExpirySystem{})
	for range 10 {
		_, _ = w.Progress(0.1)
	}

	stats, _ := w.Stats()
	fmt.Println("frames:", stats.Frame)
	fmt.Println("entities:", stats.Storage.TotalEntityCount)

	_, err = w.Every("@every 1s", func(*ecs.UpdateFrame) {})
	fmt.Println(errors.Is(err, world.ErrDisabled))
	// Output:
	// frames: 10
	// entities: 1
	// true
}

func ExampleWorld_Close() {
	flags, _ := addon.FromMap(map[string]bool{"module": true})
	w, _ := world.Build(flags)

	fmt.Println(w.Close())
	_, err := w.Modules()
	fmt.Println(err)
	// Output:
	// <nil>
	// world: Modules called after teardown
}

func ExampleWorld_Import() {
	flags, _ := addon.FromMap(map[string]bool{"module": true})
	w, _ := world.Build(flags)
	defer w.Close()

	physics := world.NewModule("physics", func(w *world.World) error {
		reg, err := w.Registry()
		if err != nil {
			return err
		}
		ecs.RegisterComponent[Lifetime](reg)
		return nil
	})
	_ = w.Import(physics)
	_ = w.Import(physics)

	names, _ := w.Modules()
	fmt.Println(names)
	// Output:
	// [physics]
}
