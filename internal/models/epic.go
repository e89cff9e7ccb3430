package models

import (
	"math"
	"slices"
	"time"
)

// Resolver looks up a subtask by id. Subtasks it cannot find are skipped.
type Resolver func(id int64) (Task, bool)

// ModifySubtask attaches sub to the epic, keeping its position if it is
// already attached, and recomputes the epic's derived fields.
func (t *Task) ModifySubtask(sub Task, resolve Resolver) {
	if !slices.Contains(t.SubtaskIDs, sub.ID) {
		t.SubtaskIDs = append(t.SubtaskIDs, sub.ID)
	}
	t.Recalculate(t.subtasks(resolve))
}

// RemoveSubtask detaches the subtask with the given id and recomputes the
// epic's derived fields.
func (t *Task) RemoveSubtask(id int64, resolve Resolver) {
	t.SubtaskIDs = slices.DeleteFunc(t.SubtaskIDs, func(v int64) bool { return v == id })
	t.Recalculate(t.subtasks(resolve))
}

func (t *Task) subtasks(resolve Resolver) []Task {
	subs := make([]Task, 0, len(t.SubtaskIDs))
	for _, id := range t.SubtaskIDs {
		if sub, ok := resolve(id); ok {
			subs = append(subs, sub)
		}
	}
	return subs
}

// Recalculate derives status and time span from subs.
func (t *Task) Recalculate(subs []Task) {
	t.Status = aggregateStatus(subs)
	t.StartTime, t.epicEnd, t.Duration = aggregateSpan(subs)
}

func aggregateStatus(subs []Task) Status {
	allNew, allDone := true, true
	for _, s := range subs {
		if s.Status != StatusNew {
			allNew = false
		}
		if s.Status != StatusDone {
			allDone = false
		}
	}
	switch {
	case allNew:
		return StatusNew
	case allDone:
		return StatusDone
	default:
		return StatusInProgress
	}
}

func aggregateSpan(subs []Task) (start, end time.Time, total time.Duration) {
	for _, s := range subs {
		if s.Duration > math.MaxInt64-total {
			total = math.MaxInt64
		} else {
			total += s.Duration
		}
		if !s.Scheduled() {
			continue
		}
		if start.IsZero() || s.StartTime.Before(start) {
			start = s.StartTime
		}
		if e := s.EndTime(); end.IsZero() || e.After(end) {
			end = e
		}
	}
	if start.IsZero() {
		return NoTime, NoTime, 0
	}
	return start, end, total
}
