package manager

import (
	"slices"
	"testing"
	"time"

	"tracker/internal/models"
)

func TestRollbackRestoresState(t *testing.T) {
	m := New(nil, nil)
	single := mustCreate(t, m, models.NewTask("a", "", models.StatusNew, base, 30*time.Minute))
	epic := mustCreate(t, m, models.NewEpic("e", ""))
	sub := mustCreate(t, m, models.NewSubtask("s", "", models.StatusDone, base.Add(time.Hour), 15*time.Minute, epic.ID))
	m.GetTaskByID(single.ID)

	cp := m.Checkpoint()
	before := m.Snapshot()

	mustCreate(t, m, models.NewTask("b", "", models.StatusNew, base.Add(2*time.Hour), 10*time.Minute))
	if err := m.RemoveTask(epic.ID); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	m.GetSingleTasks()

	m.Rollback(cp)

	after := m.Snapshot()
	if !slices.EqualFunc(after, before, func(a, b models.Task) bool {
		return a.ID == b.ID && a.Status == b.Status && a.EndTime().Equal(b.EndTime()) && slices.Equal(a.SubtaskIDs, b.SubtaskIDs)
	}) {
		t.Fatalf("snapshot after rollback = %+v, want %+v", after, before)
	}
	if got := ids(m.GetPrioritizedTasks()); !slices.Equal(got, []int64{single.ID, sub.ID}) {
		t.Fatalf("prioritized = %v", got)
	}
	if got := ids(m.GetHistory()); !slices.Equal(got, []int64{single.ID}) {
		t.Fatalf("history = %v, want [%d]", got, single.ID)
	}
	if m.NextFreeID() != sub.ID+1 {
		t.Fatalf("next id = %d, want %d", m.NextFreeID(), sub.ID+1)
	}
}

func TestRollbackIsRepeatable(t *testing.T) {
	m := New(nil, nil)
	cp := m.Checkpoint()

	for i := 0; i < 2; i++ {
		mustCreate(t, m, models.NewTask("a", "", models.StatusNew, base, time.Minute))
		m.Rollback(cp)
		if n := len(m.Snapshot()); n != 0 {
			t.Fatalf("round %d: %d tasks after rollback", i, n)
		}
	}
}
