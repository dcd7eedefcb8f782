package ecs

import (
	"reflect"
	"slices"
	"sort"
	"unsafe"
	"weak"
)

// Storage owns the archetypes and singletons of one ECS world.
// It is not safe for concurrent use.
type Storage struct {
	archetypes map[uint32]*Archetype
	singletons map[reflect.Type]*singletonEntry
	registry   *ComponentRegistry
}

// NewStorage creates an empty storage backed by registry.
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		archetypes: make(map[uint32]*Archetype),
		singletons: make(map[reflect.Type]*singletonEntry),
		registry:   registry,
	}
}

// Registry returns the component registry used by the storage.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// GetArchetypes returns every archetype, ordered by id.
func (s *Storage) GetArchetypes() []*Archetype {
	out := make([]*Archetype, 0, len(s.archetypes))
	for _, a := range s.archetypes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// GetArchetype returns the archetype holding exactly the types of components.
func (s *Storage) GetArchetype(components ...any) *Archetype {
	types := extractComponentTypes(components)
	return s.archetypes[hashTypesToUint32(types)]
}

// GetArchetypeByTypes is GetArchetype for callers that already hold types.
func (s *Storage) GetArchetypeByTypes(types []reflect.Type) *Archetype {
	sorted := slices.Clone(types)
	sort.Sort(byTypeName(sorted))
	return s.archetypes[hashTypesToUint32(sorted)]
}

// EntityCount returns the number of live entities across all archetypes.
func (s *Storage) EntityCount() int {
	n := 0
	for _, a := range s.archetypes {
		n += a.Len()
	}
	return n
}

func (s *Storage) archetypeFor(types []reflect.Type) *Archetype {
	id := hashTypesToUint32(types)
	a, ok := s.archetypes[id]
	if !ok {
		a = NewArchetype(id, types, s.registry)
		s.archetypes[id] = a
	}
	return a
}

// Spawn creates an entity from components and returns its id.
// It panics when called without components.
func (s *Storage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}
	a := s.archetypeFor(extractComponentTypes(components))
	return NewEntityId(a.id, a.Spawn(components))
}

// Delete removes the entity. Unknown ids are ignored.
func (s *Storage) Delete(id EntityId) {
	if a, ok := s.archetypes[id.ArchetypeId()]; ok {
		a.Delete(id.Index())
	}
}

// Alive reports whether id refers to a live entity.
func (s *Storage) Alive(id EntityId) bool {
	a, ok := s.archetypes[id.ArchetypeId()]
	if !ok || len(a.columns) == 0 {
		return false
	}
	return a.columns[0].has(int(id.Index()))
}

// AddComponent moves the entity to the archetype that additionally holds the
// type of component and returns the new id. Adding a type the entity already
// has overwrites the stored value in place.
func (s *Storage) AddComponent(id EntityId, component any) EntityId {
	from, ok := s.archetypes[id.ArchetypeId()]
	if !ok {
		return 0
	}

	added := componentType(component)
	if idx := from.columnIndex(added); idx >= 0 {
		if ptr := from.columns[idx].get(int(id.Index())); ptr != nil {
			reflect.ValueOf(ptr).Elem().Set(reflect.Indirect(reflect.ValueOf(component)))
		}
		return id
	}

	types := make([]reflect.Type, 0, len(from.types)+1)
	types = append(types, from.types...)
	types = append(types, added)
	sort.Sort(byTypeName(types))

	return s.relocate(id, from, types, func(t reflect.Type) any {
		if t == added {
			return component
		}
		return from.GetComponent(id.Index(), t)
	})
}

// RemoveComponent moves the entity to the archetype without t and returns the
// new id. Removing the last component deletes the entity and returns 0.
func (s *Storage) RemoveComponent(id EntityId, t reflect.Type) EntityId {
	from, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !from.HasComponent(t) {
		return id
	}

	types := make([]reflect.Type, 0, len(from.types)-1)
	for _, typ := range from.types {
		if typ != t {
			types = append(types, typ)
		}
	}

	if len(types) == 0 {
		from.Delete(id.Index())
		return 0
	}

	return s.relocate(id, from, types, func(typ reflect.Type) any {
		return from.GetComponent(id.Index(), typ)
	})
}

// relocate copies the entity into the archetype for types, carries its
// EntityRef along and frees the old slot.
func (s *Storage) relocate(id EntityId, from *Archetype, types []reflect.Type, value func(reflect.Type) any) EntityId {
	to := s.archetypeFor(types)

	components := make([]any, 0, len(types))
	for _, t := range types {
		components = append(components, value(t))
	}
	newId := NewEntityId(to.id, to.Spawn(components))

	if wp, ok := from.refs.Get(id); ok {
		from.refs.Del(id)
		if ref := wp.Value(); ref != nil {
			ref.Id = newId
			ref.Archetype = to
			to.refs.Put(newId, wp)
		}
	}

	from.Delete(id.Index())
	return newId
}

// GetComponent returns a pointer to the component of type t, or nil.
func (s *Storage) GetComponent(id EntityId, t reflect.Type) any {
	a, ok := s.archetypes[id.ArchetypeId()]
	if !ok {
		return nil
	}
	return a.GetComponent(id.Index(), t)
}

// HasComponent reports whether the entity's archetype includes t.
func (s *Storage) HasComponent(id EntityId, t reflect.Type) bool {
	a, ok := s.archetypes[id.ArchetypeId()]
	return ok && a.HasComponent(t)
}

// Compact compacts every archetype.
func (s *Storage) Compact() {
	for _, a := range s.archetypes {
		a.Compact()
	}
}

// CreateEntityRef returns the stable reference for id, creating it on first
// use. It returns nil for ids that are not alive.
func (s *Storage) CreateEntityRef(id EntityId) *EntityRef {
	if !s.Alive(id) {
		return nil
	}
	a := s.archetypes[id.ArchetypeId()]

	if wp, ok := a.refs.Get(id); ok {
		if ref := wp.Value(); ref != nil {
			return ref
		}
		a.refs.Del(id)
	}

	ref := &EntityRef{Id: id, Archetype: a}
	a.refs.Put(id, weak.Make(ref))
	return ref
}

// ResolveEntityRef returns the current id behind ref.
func (s *Storage) ResolveEntityRef(ref *EntityRef) (EntityId, bool) {
	if !ref.Valid() {
		return 0, false
	}
	return ref.Id, true
}

// InvalidateEntityRef detaches ref from its entity without deleting it.
func (s *Storage) InvalidateEntityRef(ref *EntityRef) bool {
	if !ref.Valid() {
		return false
	}
	if a, ok := s.archetypes[ref.Id.ArchetypeId()]; ok {
		a.refs.Del(ref.Id)
	}
	ref.Id = 0
	ref.Archetype = nil
	return true
}

func componentType(comp any) reflect.Type {
	t := reflect.TypeOf(comp)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// extractComponentTypes returns the sorted types of components.
// Components must be value types: pointers are dereferenced once and
// maps, channels and funcs are rejected.
func extractComponentTypes(components []any) []reflect.Type {
	types := make([]reflect.Type, 0, len(components))
	for _, comp := range components {
		t := componentType(comp)
		switch t.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
			panic("components cannot be pointers, maps, channels, or functions")
		}
		types = append(types, t)
	}
	sort.Sort(byTypeName(types))
	return types
}

// hashTypesToUint32 is FNV-1a over the runtime type pointers of a sorted set.
func hashTypesToUint32(types []reflect.Type) uint32 {
	const (
		offset uint32 = 2166136261
		prime  uint32 = 16777619
	)
	h := offset
	for _, t := range types {
		p := uintptr(ifaceData(t))
		v := uint32(p)
		if unsafe.Sizeof(p) == 8 {
			v ^= uint32(uint64(p) >> 32)
		}
		h ^= v
		h *= prime
	}
	return h
}

// ComponentReader is implemented by anything that can look up components.
type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent is a typed GetComponent. It returns nil when the entity has
// no T.
func ReadComponent[T any](reader ComponentReader, id EntityId) *T {
	v, _ := reader.GetComponent(id, reflect.TypeFor[T]()).(*T)
	return v
}
