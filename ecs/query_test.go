package ecs_test

import (
	"testing"

	"github.com/plus3/ecsrt/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryRequiresExecute(t *testing.T) {
	q := ecs.NewQuery[mover](newTestStorage())
	assert.PanicsWithValue(t, "Query.Iter() called before Query.Execute()", func() { q.Iter() })
	assert.PanicsWithValue(t, "Query.Values() called before Query.Execute()", func() { q.Values() })
	assert.Equal(t, 0, q.Len())
}

func TestQuerySnapshot(t *testing.T) {
	storage := newTestStorage()
	first := storage.Spawn(Position{X: 1}, Velocity{DX: 1})

	q := ecs.NewQuery[struct {
		Id ecs.EntityId
		*Position
		*Velocity
	}](storage)
	q.Execute()
	require.Equal(t, 1, q.Len())

	storage.Spawn(Position{X: 2}, Velocity{DX: 1})
	storage.Spawn(Position{X: 3}, Velocity{DX: 1}, Name("new archetype"))
	assert.Equal(t, 1, q.Len(), "the snapshot is fixed until the next Execute")

	q.Execute()
	assert.Equal(t, 3, q.Len())

	ids := map[ecs.EntityId]bool{}
	for id, item := range q.Iter() {
		assert.Equal(t, id, item.Id)
		ids[id] = true
	}
	assert.True(t, ids[first])

	sum := 0.0
	for item := range q.Values() {
		sum += item.Position.X
	}
	assert.Equal(t, 6.0, sum)

	storage.Delete(first)
	q.Execute()
	assert.Equal(t, 2, q.Len())
}

func TestQueryInitRebinds(t *testing.T) {
	a := newTestStorage()
	b := newTestStorage()
	a.Spawn(Position{}, Velocity{})
	b.Spawn(Position{}, Velocity{})
	b.Spawn(Position{}, Velocity{})

	var q ecs.Query[mover]
	q.Init(a)
	q.Execute()
	assert.Equal(t, 1, q.Len())

	q.Init(b)
	assert.Panics(t, func() { q.Values() }, "Init drops the previous snapshot")
	q.Execute()
	assert.Equal(t, 2, q.Len())
}
