package world

import (
	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
)

// Description is human-readable documentation attached to an entity.
type Description struct {
	Name  string
	Brief string
	Color string
	Link  string
}

func (w *World) initDocs() error {
	if enabled(w.flags, addon.Doc) {
		w.docs = make(map[*ecs.EntityRef]Description)
	}
	return nil
}

// SetDoc attaches d to the entity behind ref. The ref must be live.
func (w *World) SetDoc(ref *ecs.EntityRef, d Description) error {
	if err := w.gate("SetDoc", addon.Doc); err != nil {
		return err
	}
	id, ok := w.storage.ResolveEntityRef(ref)
	if !ok || !w.storage.Alive(id) {
		return ErrInvalidEntity
	}
	w.docs[ref] = d
	return nil
}

// Doc returns the description attached to ref. Descriptions of deleted
// entities are dropped on lookup.
func (w *World) Doc(ref *ecs.EntityRef) (Description, bool, error) {
	if err := w.gate("Doc", addon.Doc); err != nil {
		return Description{}, false, err
	}
	d, ok := w.docs[ref]
	if !ok {
		return Description{}, false, nil
	}
	if _, live := w.storage.ResolveEntityRef(ref); !live {
		delete(w.docs, ref)
		return Description{}, false, nil
	}
	return d, true, nil
}

// DocCount returns the number of documented entities. Descriptions of
// deleted entities are pruned at the end of every frame.
func (w *World) DocCount() (int, error) {
	if err := w.gate("DocCount", addon.Doc); err != nil {
		return 0, err
	}
	return len(w.docs), nil
}

// pruneDocs drops descriptions whose entity has been deleted.
func (w *World) pruneDocs() {
	for ref := range w.docs {
		if !ref.Valid() {
			delete(w.docs, ref)
		}
	}
}
