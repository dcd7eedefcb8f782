package ecs_test

import (
	"testing"

	"github.com/plus3/ecsrt/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRefIdentity(t *testing.T) {
	storage := newTestStorage()
	id := storage.Spawn(Position{})

	ref := storage.CreateEntityRef(id)
	require.NotNil(t, ref)
	assert.Same(t, ref, storage.CreateEntityRef(id), "one ref per entity")
	assert.True(t, ref.Valid())
	assert.Equal(t, id, ref.Id)
	assert.Equal(t, id.ArchetypeId(), ref.Archetype.ID())

	assert.Nil(t, storage.CreateEntityRef(ecs.NewEntityId(4242, 0)))

	var nilRef *ecs.EntityRef
	assert.False(t, nilRef.Valid())
	_, ok := storage.ResolveEntityRef(nilRef)
	assert.False(t, ok)
}

func TestEntityRefFollowsMoves(t *testing.T) {
	storage := newTestStorage()
	id := storage.Spawn(Position{X: 1})
	ref := storage.CreateEntityRef(id)

	id = storage.AddComponent(id, Velocity{DX: 1})
	id = storage.AddComponent(id, Name("mover"))
	id = storage.RemoveComponent(id, velocityType)

	resolved, ok := storage.ResolveEntityRef(ref)
	require.True(t, ok)
	assert.Equal(t, id, resolved)
	assert.Same(t, storage.GetArchetype(Position{}, Name("")), ref.Archetype)
	assert.Same(t, ref, storage.CreateEntityRef(id))
}

func TestEntityRefDelete(t *testing.T) {
	storage := newTestStorage()
	id := storage.Spawn(Position{})
	ref := storage.CreateEntityRef(id)

	storage.Delete(id)
	assert.False(t, ref.Valid())
	assert.Nil(t, ref.Archetype)

	reused := storage.Spawn(Position{})
	assert.Equal(t, id, reused)
	assert.False(t, ref.Valid(), "a reused slot does not revive old refs")
	assert.NotSame(t, ref, storage.CreateEntityRef(reused))
}

func TestEntityRefOfDeletedEntity(t *testing.T) {
	storage := newTestStorage()
	keep := storage.Spawn(Position{})
	gone := storage.Spawn(Position{})
	storage.Delete(gone)

	require.False(t, storage.Alive(gone))
	assert.Nil(t, storage.CreateEntityRef(gone), "the archetype exists but the slot is empty")
	assert.NotNil(t, storage.CreateEntityRef(keep))
}

func TestInvalidateEntityRef(t *testing.T) {
	storage := newTestStorage()
	id := storage.Spawn(Position{})
	ref := storage.CreateEntityRef(id)

	assert.True(t, storage.InvalidateEntityRef(ref))
	assert.False(t, ref.Valid())
	assert.True(t, storage.Alive(id), "the entity itself survives")
	assert.False(t, storage.InvalidateEntityRef(ref))

	fresh := storage.CreateEntityRef(id)
	assert.NotSame(t, ref, fresh)
	assert.True(t, fresh.Valid())
}
