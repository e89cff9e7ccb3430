package manager

import (
	"log/slog"
	"slices"

	"tracker/internal/models"
)

// Checkpoint is a copy of the manager state that Rollback can return to.
type Checkpoint struct {
	tasks   []models.Task
	nextID  int64
	slots   []slot
	history []int64
}

// Checkpoint captures every task, the id counter, the schedule order and
// the access history.
func (m *Manager) Checkpoint() Checkpoint {
	cp := Checkpoint{
		tasks:   make([]models.Task, 0, len(m.tasks)),
		nextID:  m.nextID,
		slots:   slices.Clone(m.schedule.slots),
		history: m.history.IDs(),
	}
	for _, t := range m.tasks {
		cp.tasks = append(cp.tasks, t.Clone())
	}
	return cp
}

// Rollback discards every change made since cp was taken. A checkpoint can
// be rolled back to more than once.
func (m *Manager) Rollback(cp Checkpoint) {
	clear(m.tasks)
	for _, t := range cp.tasks {
		c := t.Clone()
		m.tasks[c.ID] = &c
	}
	m.nextID = cp.nextID
	m.schedule.slots = slices.Clone(cp.slots)

	m.history.Clear()
	for _, id := range cp.history {
		m.history.Add(id)
	}

	m.logger.Warn("changes rolled back",
		slog.Int("tasks", len(m.tasks)),
		slog.Int("scheduled", m.schedule.size()),
		slog.Int("history", m.history.Len()))
}
