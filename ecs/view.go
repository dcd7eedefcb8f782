package ecs

import (
	"iter"
	"reflect"
	"sort"
	"unsafe"
)

// eface mirrors the runtime layout of an interface value.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// ifaceData returns the data word of v. For pointer-shaped dynamic values
// this is the pointer itself.
func ifaceData(v any) unsafe.Pointer {
	return (*eface)(unsafe.Pointer(&v)).data
}

var entityIdType = reflect.TypeFor[EntityId]()

// View projects entities onto a struct T whose fields point at components.
//
// Embedded pointer fields are required. Named pointer fields are required
// unless tagged `ecs:"optional"`, in which case they are nil when absent.
// A field of type EntityId receives the id of the entity being visited.
type View[T any] struct {
	storage  *Storage
	types    []reflect.Type
	optional []bool
	offsets  []uintptr

	idOffset uintptr
	hasId    bool

	spawnArchetype *uint32
}

// NewView compiles the layout of T. It panics if T is not a struct or holds
// fields other than component pointers and an EntityId.
func NewView[T any](storage *Storage) *View[T] {
	st := reflect.TypeFor[T]()
	if st.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{storage: storage}
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)

		if field.Type == entityIdType {
			v.idOffset = field.Offset
			v.hasId = true
			continue
		}
		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		optional := false
		if tag := field.Tag.Get("ecs"); tag != "" && !field.Anonymous {
			if tag != "optional" {
				panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
			optional = true
		}

		v.types = append(v.types, field.Type.Elem())
		v.optional = append(v.optional, optional)
		v.offsets = append(v.offsets, field.Offset)
	}
	return v
}

func (v *View[T]) setField(base unsafe.Pointer, i int, ptr unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Add(base, v.offsets[i])) = ptr
}

func (v *View[T]) setId(base unsafe.Pointer, id EntityId) {
	if v.hasId {
		*(*EntityId)(unsafe.Add(base, v.idOffset)) = id
	}
}

// Fill populates *out for id. It returns false if the entity lacks a
// required component.
func (v *View[T]) Fill(id EntityId, out *T) bool {
	a, ok := v.storage.archetypes[id.ArchetypeId()]
	if !ok {
		return false
	}
	base := unsafe.Pointer(out)
	for i, t := range v.types {
		comp := a.GetComponent(id.Index(), t)
		if comp == nil {
			if !v.optional[i] {
				return false
			}
			v.setField(base, i, nil)
			continue
		}
		v.setField(base, i, ifaceData(comp))
	}
	v.setId(base, id)
	return true
}

// Get returns the projection of id, or nil.
func (v *View[T]) Get(id EntityId) *T {
	var out T
	if !v.Fill(id, &out) {
		return nil
	}
	return &out
}

// GetRef is Get for an EntityRef.
func (v *View[T]) GetRef(ref *EntityRef) *T {
	id, ok := v.storage.ResolveEntityRef(ref)
	if !ok {
		return nil
	}
	return v.Get(id)
}

func (v *View[T]) matchesArchetype(a *Archetype) bool {
	for i, t := range v.types {
		if !v.optional[i] && !a.HasComponent(t) {
			return false
		}
	}
	return true
}

// columnsFor maps each view field to a column of a, or -1.
func (v *View[T]) columnsFor(a *Archetype) []int {
	cols := make([]int, len(v.types))
	for i, t := range v.types {
		cols[i] = a.columnIndex(t)
	}
	return cols
}

func (v *View[T]) populate(base unsafe.Pointer, a *Archetype, slot int, cols []int) bool {
	for i, col := range cols {
		var comp any
		if col >= 0 {
			comp = a.columns[col].get(slot)
		}
		if comp == nil {
			if !v.optional[i] {
				return false
			}
			v.setField(base, i, nil)
			continue
		}
		v.setField(base, i, ifaceData(comp))
	}
	v.setId(base, NewEntityId(a.id, uint32(slot)))
	return true
}

// iterArchetype yields every projection inside a single archetype.
func (v *View[T]) iterArchetype(a *Archetype) iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		if len(a.columns) == 0 {
			return
		}
		cols := v.columnsFor(a)
		var out T
		base := unsafe.Pointer(&out)
		for slot := range a.columns[0].slots() {
			if !v.populate(base, a, slot, cols) {
				continue
			}
			if !yield(NewEntityId(a.id, uint32(slot)), out) {
				return
			}
		}
	}
}

// Iter yields (id, projection) for every matching entity.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for _, a := range v.storage.archetypes {
			if !v.matchesArchetype(a) {
				continue
			}
			for id, item := range v.iterArchetype(a) {
				if !yield(id, item) {
					return
				}
			}
		}
	}
}

// Values is Iter without ids.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range v.Iter() {
			if !yield(item) {
				return
			}
		}
	}
}

// Spawn creates an entity from the non-nil component pointers in data.
// It panics if a required field is nil.
func (v *View[T]) Spawn(data T) EntityId {
	base := unsafe.Pointer(&data)

	type entry struct {
		t    reflect.Type
		comp any
	}
	entries := make([]entry, 0, len(v.types))
	required := 0
	for i, t := range v.types {
		if !v.optional[i] {
			required++
		}
		ptr := *(*unsafe.Pointer)(unsafe.Add(base, v.offsets[i]))
		if ptr == nil {
			if !v.optional[i] {
				panic("required component is nil in View.Spawn")
			}
			continue
		}
		entries = append(entries, entry{t: t, comp: reflect.NewAt(t, ptr).Elem().Interface()})
	}
	if len(entries) == 0 {
		panic("cannot spawn entity without components")
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].t.String() < entries[j].t.String() })
	types := make([]reflect.Type, len(entries))
	comps := make([]any, len(entries))
	for i, e := range entries {
		types[i] = e.t
		comps[i] = e.comp
	}

	// The all-required layout is by far the common case, so its hash is cached.
	var id uint32
	if len(types) == required && v.spawnArchetype != nil {
		id = *v.spawnArchetype
	} else {
		id = hashTypesToUint32(types)
		if len(types) == required {
			v.spawnArchetype = &id
		}
	}

	a, ok := v.storage.archetypes[id]
	if !ok {
		a = NewArchetype(id, types, v.storage.registry)
		v.storage.archetypes[id] = a
	}
	return NewEntityId(id, a.Spawn(comps))
}
