package manager

import (
	"slices"
	"sort"
	"time"
)

type slot struct {
	id    int64
	start time.Time
}

// schedule keeps scheduled task ids sorted by start time. Entries with equal
// start times stay in insertion order: a new entry always lands after them.
type schedule struct {
	slots []slot
}

func newSchedule() *schedule {
	return &schedule{}
}

func (s *schedule) insert(id int64, start time.Time) {
	i := sort.Search(len(s.slots), func(i int) bool {
		return s.slots[i].start.After(start)
	})
	s.slots = slices.Insert(s.slots, i, slot{id: id, start: start})
}

func (s *schedule) remove(id int64) {
	s.slots = slices.DeleteFunc(s.slots, func(sl slot) bool { return sl.id == id })
}

func (s *schedule) ids() []int64 {
	ids := make([]int64, len(s.slots))
	for i, sl := range s.slots {
		ids[i] = sl.id
	}
	return ids
}

func (s *schedule) size() int {
	return len(s.slots)
}
