package manager

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"tracker/internal/models"
)

// kindOrder is the order in which kinds are written out and restored. Epics
// come before subtasks so that every subtask finds its epic on reload.
var kindOrder = []models.Kind{models.KindTask, models.KindEpic, models.KindSubtask}

// Snapshot returns every stored task, grouped by kind and ordered by id,
// without recording any access.
func (m *Manager) Snapshot() []models.Task {
	tasks := make([]models.Task, 0, len(m.tasks))
	for _, kind := range kindOrder {
		tasks = append(tasks, m.byKind(kind)...)
	}
	return tasks
}

// Restore loads previously persisted tasks into an empty manager. Ids are
// kept as given and allocation resumes after the highest of them. Epic
// aggregates are rebuilt from the restored subtasks.
func (m *Manager) Restore(tasks []models.Task) error {
	if len(m.tasks) != 0 {
		return fmt.Errorf("restore: manager already holds %d tasks", len(m.tasks))
	}

	ordered := slices.Clone(tasks)
	slices.SortStableFunc(ordered, func(a, b models.Task) int {
		return cmp.Compare(restoreRank(a.Kind), restoreRank(b.Kind))
	})

	var maxID int64
	for _, task := range ordered {
		task = normalize(task)
		if task.ID <= 0 {
			return fmt.Errorf("restore: %w: id %d", ErrInvalidTask, task.ID)
		}
		if _, dup := m.tasks[task.ID]; dup {
			return fmt.Errorf("restore: %w: duplicate id %d", ErrInvalidTask, task.ID)
		}
		if err := m.validate(task); err != nil {
			return fmt.Errorf("restore %d: %w", task.ID, err)
		}
		if err := m.checkOverlap(task); err != nil {
			return fmt.Errorf("restore %d: %w", task.ID, err)
		}
		m.insert(task)
		maxID = max(maxID, task.ID)
	}

	m.SetNextFreeID(maxID + 1)
	m.logger.Info("tasks restored", slog.Int("count", len(ordered)), slog.Int64("next_id", m.nextID))
	return nil
}

func restoreRank(kind models.Kind) int {
	if kind == models.KindSubtask {
		return 1
	}
	return 0
}
