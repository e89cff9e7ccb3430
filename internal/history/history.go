// Package history records which task ids were accessed, most recent last.
package history

import "container/list"

// Tracker keeps distinct ids in touch order. Each id maps to its list element
// so re-touching and removal never walk the list.
type Tracker struct {
	order *list.List
	index map[int64]*list.Element
	limit int
}

// New returns a tracker. A limit of zero keeps every id; a positive limit
// drops the least recently touched id once the tracker grows beyond it.
func New(limit int) *Tracker {
	if limit < 0 {
		limit = 0
	}
	return &Tracker{
		order: list.New(),
		index: make(map[int64]*list.Element),
		limit: limit,
	}
}

// Add records an access to id, moving it to the tail if already present.
func (t *Tracker) Add(id int64) {
	if el, ok := t.index[id]; ok {
		t.order.MoveToBack(el)
		return
	}
	t.index[id] = t.order.PushBack(id)

	if t.limit > 0 && t.order.Len() > t.limit {
		oldest := t.order.Front()
		t.order.Remove(oldest)
		delete(t.index, oldest.Value.(int64))
	}
}

// Remove forgets id. Unknown ids are ignored.
func (t *Tracker) Remove(id int64) {
	el, ok := t.index[id]
	if !ok {
		return
	}
	t.order.Remove(el)
	delete(t.index, id)
}

// IDs returns a copy of the recorded ids from oldest to newest touch.
func (t *Tracker) IDs() []int64 {
	ids := make([]int64, 0, t.order.Len())
	for el := t.order.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Value.(int64))
	}
	return ids
}

// Len returns the number of recorded ids.
func (t *Tracker) Len() int {
	return t.order.Len()
}

// Clear forgets every id.
func (t *Tracker) Clear() {
	t.order.Init()
	clear(t.index)
}
