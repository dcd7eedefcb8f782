package ecs

import "reflect"

// Commands buffers structural changes made while systems run. The buffer is
// applied by Flush in a fixed order: deletes, removals, additions, spawns,
// then deferred functions.
type Commands struct {
	spawns  [][]any
	deletes []EntityId
	adds    []pendingAdd
	removes []pendingRemove
	defers  []func()
}

type pendingAdd struct {
	entity    EntityId
	component any
}

type pendingRemove struct {
	entity EntityId
	typ    reflect.Type
}

// NewCommands returns an empty buffer.
func NewCommands() *Commands {
	return &Commands{}
}

// Spawn queues a new entity.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, components)
}

// Delete queues an entity deletion.
func (c *Commands) Delete(entity EntityId) {
	c.deletes = append(c.deletes, entity)
}

// AddComponent queues a component addition.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, pendingAdd{entity: entity, component: component})
}

// RemoveComponent queues a component removal.
func (c *Commands) RemoveComponent(entity EntityId, typ reflect.Type) {
	c.removes = append(c.removes, pendingRemove{entity: entity, typ: typ})
}

// Defer queues fn to run after all structural changes.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies the buffer to storage and resets it. Additions and removals
// aimed at an entity deleted in the same flush are dropped. Operations queued
// for the same id follow the entity as earlier ones move it.
func (c *Commands) Flush(storage *Storage) {
	deleted := make(map[EntityId]struct{}, len(c.deletes))
	for _, id := range c.deletes {
		storage.Delete(id)
		deleted[id] = struct{}{}
	}

	// current tracks where an entity queued under its original id lives now.
	current := make(map[EntityId]EntityId)
	resolve := func(id EntityId) EntityId {
		if to, ok := current[id]; ok {
			return to
		}
		return id
	}

	for _, r := range c.removes {
		if _, gone := deleted[r.entity]; gone {
			continue
		}
		from := resolve(r.entity)
		if from == 0 {
			continue
		}
		current[r.entity] = storage.RemoveComponent(from, r.typ)
	}

	for _, a := range c.adds {
		if _, gone := deleted[a.entity]; gone {
			continue
		}
		from := resolve(a.entity)
		if from == 0 {
			continue
		}
		current[a.entity] = storage.AddComponent(from, a.component)
	}

	for _, components := range c.spawns {
		storage.Spawn(components...)
	}

	defers := c.defers
	c.spawns = c.spawns[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = nil

	for _, fn := range defers {
		fn()
	}
}
