package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/ecsrt/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MovementSystem struct {
	Movers ecs.Query[mover]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	for m := range s.Movers.Values() {
		m.Position.X += m.Velocity.DX * frame.DeltaTime
		m.Position.Y += m.Velocity.DY * frame.DeltaTime
	}
}

type traceSystem struct {
	name  string
	trace *[]string
}

func (s *traceSystem) Execute(*ecs.UpdateFrame) {
	*s.trace = append(*s.trace, s.name)
}

// SpawnerSystem spawns through commands and checks it cannot see them yet.
type SpawnerSystem struct {
	All   ecs.Query[struct{ *Position }]
	Clock ecs.Singleton[Clock]
	Seen  []int

	private ecs.Query[struct{ *Position }]
}

func (s *SpawnerSystem) Execute(frame *ecs.UpdateFrame) {
	s.Seen = append(s.Seen, s.All.Len())
	frame.Commands.Spawn(Position{})
	if c := s.Clock.Get(); c != nil {
		c.Tick++
	}
}

func TestSchedulerOrderAndQueries(t *testing.T) {
	storage := newTestStorage()
	id := storage.Spawn(Position{}, Velocity{DX: 2, DY: 1})

	var trace []string
	s := ecs.NewScheduler(storage)
	s.Register(&traceSystem{name: "first", trace: &trace}, ecs.WithName("first"))
	s.Register(&MovementSystem{})
	s.Register(&traceSystem{name: "last", trace: &trace}, ecs.WithName("last"))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"first", "MovementSystem", "last"}, s.Names())

	s.Once(0.5)
	s.Once(0.5)
	assert.Equal(t, []string{"first", "last", "first", "last"}, trace)
	assert.Equal(t, Position{X: 2, Y: 1}, *ecs.ReadComponent[Position](storage, id))
}

func TestSchedulerCommandsAndSingletons(t *testing.T) {
	storage := newTestStorage()
	storage.AddSingleton(Clock{})

	sys := &SpawnerSystem{}
	s := ecs.NewScheduler(storage)
	s.Register(sys)

	for range 3 {
		s.Once(0.1)
	}
	assert.Equal(t, []int{0, 1, 2}, sys.Seen, "commands are applied after the pass")
	assert.Equal(t, 3, storage.EntityCount())

	var clock *Clock
	require.True(t, storage.ReadSingleton(&clock))
	assert.Equal(t, 3, clock.Tick)

	assert.Panics(t, func() { sys.private.Values() }, "unexported fields are not wired")
}

func TestSchedulerGate(t *testing.T) {
	storage := newTestStorage()
	var trace []string
	calls := 0
	gate := func(*ecs.UpdateFrame) bool {
		calls++
		return calls%2 == 0
	}

	s := ecs.NewScheduler(storage)
	s.Register(&traceSystem{name: "gated", trace: &trace}, ecs.WithName("gated"), ecs.WithGate(gate))
	for range 4 {
		s.Once(0.1)
	}
	assert.Len(t, trace, 2)

	stats := s.GetStats()
	require.Len(t, stats.Systems, 1)
	assert.Equal(t, int64(2), stats.Systems[0].ExecutionCount)
	assert.Equal(t, int64(2), stats.Systems[0].SkipCount)

	assert.True(t, s.RunNamed("gated", 0.1), "RunNamed ignores the gate")
	assert.Len(t, trace, 3)
	assert.Equal(t, 4, calls)
	assert.False(t, s.RunNamed("missing", 0.1))
}

func TestSchedulerStats(t *testing.T) {
	storage := newTestStorage()
	s := ecs.NewScheduler(storage)
	s.Register(&MovementSystem{})
	s.Register(&SpawnerSystem{})

	stats := s.GetStats()
	assert.Equal(t, 2, stats.SystemCount)
	assert.Zero(t, stats.Systems[0].MinDuration, "no runs, no minimum")

	for range 5 {
		s.Once(0.016)
	}
	stats = s.GetStats()
	assert.Equal(t, int64(10), stats.TotalExecutions)
	for _, sys := range stats.Systems {
		assert.Equal(t, int64(5), sys.ExecutionCount)
		assert.LessOrEqual(t, sys.MinDuration, sys.AvgDuration)
		assert.LessOrEqual(t, sys.AvgDuration, sys.MaxDuration)
		assert.GreaterOrEqual(t, sys.TotalDuration, sys.MaxDuration)
	}
	assert.Equal(t, "SpawnerSystem", stats.Systems[1].Name)
}

func TestSchedulerRun(t *testing.T) {
	storage := newTestStorage()
	sys := &SpawnerSystem{}
	s := ecs.NewScheduler(storage)
	s.Register(sys)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	s.Run(ctx, 5*time.Millisecond)

	assert.Greater(t, len(sys.Seen), 2)
	assert.Equal(t, len(sys.Seen), storage.EntityCount())
}

func TestSystemName(t *testing.T) {
	assert.Equal(t, "MovementSystem", ecs.SystemName(&MovementSystem{}))
	assert.Equal(t, "traceSystem", ecs.SystemName(&traceSystem{}))
	assert.Empty(t, ecs.SystemName(nil))
}
