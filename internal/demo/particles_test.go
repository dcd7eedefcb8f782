package demo_test

import (
	"io"
	"testing"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
	"github.com/plus3/ecsrt/internal/demo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, values map[string]bool, o demo.Options) *world.World {
	t.Helper()
	flags, err := addon.FromMap(values)
	require.NoError(t, err)
	w, err := world.Build(flags, world.WithLogOutput(io.Discard), world.WithModules(demo.Module(o)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestModuleSpawnsAndRegisters(t *testing.T) {
	o := demo.Options{Entities: 30, Batch: 4, Seed: 7, Bounds: demo.Bounds{Width: 100, Height: 100}}
	w := build(t, map[string]bool{"module": true, "pipeline": true, "system": true}, o)

	storage, err := w.Storage()
	require.NoError(t, err)
	assert.Equal(t, 30, storage.EntityCount())

	systems, err := w.Systems()
	require.NoError(t, err)
	assert.Equal(t, []string{"emitter"}, systems[world.PreUpdate])
	assert.Equal(t, []string{"movement"}, systems[world.OnUpdate])
	assert.Equal(t, []string{"cooling", "aging"}, systems[world.PostUpdate])

	_, err = w.Progress(0.01)
	require.NoError(t, err)
	assert.Equal(t, 34, storage.EntityCount(), "without timers the emitter runs every frame")

	bounds := ecs.NewSingleton[demo.Bounds](storage)
	assert.Equal(t, 100.0, bounds.Get().Width)
}

func TestModuleStaysInBounds(t *testing.T) {
	o := demo.Options{Entities: 50, Seed: 1, Bounds: demo.Bounds{Width: 10, Height: 10}}
	w := build(t, map[string]bool{"module": true, "pipeline": true, "system": true}, o)
	storage, err := w.Storage()
	require.NoError(t, err)

	for range 200 {
		_, err := w.Progress(0.05)
		require.NoError(t, err)
	}

	view := ecs.NewView[struct{ *demo.Position }](storage)
	for p := range view.Values() {
		assert.InDelta(t, 5, p.Position.X, 5.6)
		assert.InDelta(t, 5, p.Position.Y, 5.6)
	}
}

func TestModuleWithoutSystems(t *testing.T) {
	o := demo.Options{Entities: 5, Bounds: demo.Bounds{Width: 1, Height: 1}}
	w := build(t, map[string]bool{"module": true}, o)
	storage, err := w.Storage()
	require.NoError(t, err)
	assert.Equal(t, 5, storage.EntityCount())
	names, err := w.Modules()
	require.NoError(t, err)
	assert.Equal(t, []string{"particles"}, names)
}

func TestAging(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[demo.Lifetime](registry)
	ecs.RegisterComponent[demo.Heat](registry)
	storage := ecs.NewStorage(registry)
	short := storage.Spawn(demo.Lifetime{Remaining: 0.1})
	long := storage.Spawn(demo.Lifetime{Remaining: 5})
	hot := storage.Spawn(demo.Heat{Value: 1})

	s := ecs.NewScheduler(storage)
	s.Register(&demo.AgingSystem{})
	s.Register(&demo.CoolingSystem{})
	s.Once(0.5)

	assert.False(t, storage.Alive(short))
	assert.True(t, storage.Alive(long))
	assert.Equal(t, 0.75, ecs.ReadComponent[demo.Heat](storage, hot).Value)
}
