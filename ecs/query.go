package ecs

import "iter"

// Query is a View that snapshots its matches once per frame. Systems declare
// Query fields and the Scheduler initialises and executes them before the
// system runs.
type Query[T any] struct {
	view    *View[T]
	storage *Storage

	archetypes     []*Archetype
	archetypeCount int

	ids      []EntityId
	items    []T
	executed bool
}

// NewQuery returns a query over storage.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init binds (or rebinds) the query to storage and drops all caches.
func (q *Query[T]) Init(storage *Storage) {
	q.view = NewView[T](storage)
	q.storage = storage
	q.archetypes = nil
	q.archetypeCount = -1
	q.executed = false
}

// Execute refreshes the snapshot. Archetype matching is only redone when the
// number of archetypes in storage has changed.
func (q *Query[T]) Execute() {
	if n := len(q.storage.archetypes); n != q.archetypeCount {
		q.archetypes = q.archetypes[:0]
		for _, a := range q.storage.archetypes {
			if q.view.matchesArchetype(a) {
				q.archetypes = append(q.archetypes, a)
			}
		}
		q.archetypeCount = n
	}

	q.ids = q.ids[:0]
	q.items = q.items[:0]
	for _, a := range q.archetypes {
		for id, item := range q.view.iterArchetype(a) {
			q.ids = append(q.ids, id)
			q.items = append(q.items, item)
		}
	}
	q.executed = true
}

// Len returns the number of matches in the current snapshot.
func (q *Query[T]) Len() int {
	return len(q.ids)
}

// Iter yields the snapshot. It panics if Execute has never run.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	if !q.executed {
		panic("Query.Iter() called before Query.Execute()")
	}
	return func(yield func(EntityId, T) bool) {
		for i, id := range q.ids {
			if !yield(id, q.items[i]) {
				return
			}
		}
	}
}

// Values yields the snapshot without ids. It panics if Execute has never run.
func (q *Query[T]) Values() iter.Seq[T] {
	if !q.executed {
		panic("Query.Values() called before Query.Execute()")
	}
	return func(yield func(T) bool) {
		for _, item := range q.items {
			if !yield(item) {
				return
			}
		}
	}
}
