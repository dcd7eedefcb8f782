package ecs

import (
	"iter"
	"reflect"
	"slices"
	"weak"

	"github.com/kamstrup/intmap"
)

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

// Archetype holds every entity that has exactly the same set of component
// types. Columns are parallel: slot i of every column belongs to one entity.
type Archetype struct {
	id      uint32
	types   []reflect.Type
	columns []column
	refs    *intmap.Map[EntityId, weak.Pointer[EntityRef]]
}

// NewArchetype creates an archetype for an already sorted type set.
// It panics if any type is missing from registry.
func NewArchetype(id uint32, types []reflect.Type, registry *ComponentRegistry) *Archetype {
	a := &Archetype{
		id:      id,
		types:   types,
		columns: make([]column, len(types)),
		refs:    intmap.New[EntityId, weak.Pointer[EntityRef]](64),
	}
	for i, t := range types {
		a.columns[i] = registry.newColumn(t)
	}
	return a
}

// ID returns the hash of the archetype's type set.
func (a *Archetype) ID() uint32 {
	return a.id
}

// Types returns the sorted component types of the archetype.
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of live entities.
func (a *Archetype) Len() int {
	if len(a.columns) == 0 {
		return 0
	}
	return a.columns[0].len()
}

// HasComponent reports whether t is part of the archetype.
func (a *Archetype) HasComponent(t reflect.Type) bool {
	return slices.Contains(a.types, t)
}

func (a *Archetype) columnIndex(t reflect.Type) int {
	return slices.Index(a.types, t)
}

// Spawn appends one entity built from components and returns its slot.
// Components may be passed by value or by pointer.
func (a *Archetype) Spawn(components []any) uint32 {
	slot := -1
	for _, comp := range components {
		idx := a.columnIndex(componentType(comp))
		if idx < 0 {
			continue
		}
		slot = a.columns[idx].append(comp)
	}
	return uint32(slot)
}

// GetComponent returns a pointer to the component of type t at slot, or nil.
func (a *Archetype) GetComponent(slot uint32, t reflect.Type) any {
	idx := a.columnIndex(t)
	if idx < 0 {
		return nil
	}
	return a.columns[idx].get(int(slot))
}

// Delete frees slot in every column and invalidates any EntityRef to it.
func (a *Archetype) Delete(slot uint32) {
	id := NewEntityId(a.id, slot)
	if wp, ok := a.refs.Get(id); ok {
		if ref := wp.Value(); ref != nil {
			ref.Id = 0
			ref.Archetype = nil
		}
		a.refs.Del(id)
	}
	for _, col := range a.columns {
		col.remove(int(slot))
	}
}

// Compact removes holes left by deletions. Live EntityRefs are rewritten to
// the new slots; refs whose owner was collected are dropped.
func (a *Archetype) Compact() {
	if len(a.columns) == 0 {
		return
	}

	moved := a.columns[0].compact()
	for _, col := range a.columns[1:] {
		col.compact()
	}

	kept := make(map[EntityId]weak.Pointer[EntityRef], a.refs.Len())
	for oldSlot, newSlot := range moved {
		wp, ok := a.refs.Get(NewEntityId(a.id, uint32(oldSlot)))
		if !ok {
			continue
		}
		if ref := wp.Value(); ref != nil {
			ref.Id = NewEntityId(a.id, uint32(newSlot))
			kept[ref.Id] = wp
		}
	}

	a.refs.Clear()
	for id, wp := range kept {
		a.refs.Put(id, wp)
	}
}

// Iter yields the id of every live entity in the archetype.
func (a *Archetype) Iter() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		if len(a.columns) == 0 {
			return
		}
		for slot := range a.columns[0].slots() {
			if !yield(NewEntityId(a.id, uint32(slot))) {
				return
			}
		}
	}
}
