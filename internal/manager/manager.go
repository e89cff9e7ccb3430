// Package manager holds the authoritative in-memory collection of tasks,
// epics and subtasks.
//
// A Manager is not safe for concurrent use. Callers that serve several
// clients must serialize access to it.
package manager

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"tracker/internal/history"
	"tracker/internal/models"
)

var (
	// ErrNotFound is returned when an id does not resolve to a stored task.
	ErrNotFound = errors.New("task not found")
	// ErrOverlap is returned when a scheduled task would share time with
	// another scheduled task.
	ErrOverlap = errors.New("task time overlaps another task")
	// ErrInvalidTask is returned for malformed tasks and illegal updates.
	ErrInvalidTask = models.ErrInvalid
)

// Manager stores tasks by id and keeps epic aggregates, access history and
// the start-time ordering of scheduled tasks consistent with each change.
type Manager struct {
	tasks    map[int64]*models.Task
	nextID   int64
	history  *history.Tracker
	schedule *schedule
	logger   *slog.Logger
}

// New constructs an empty manager. A nil tracker means unbounded history.
func New(tracker *history.Tracker, logger *slog.Logger) *Manager {
	if tracker == nil {
		tracker = history.New(0)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		tasks:    make(map[int64]*models.Task),
		nextID:   1,
		history:  tracker,
		schedule: newSchedule(),
		logger:   logger,
	}
}

// CreateTask assigns the next free id to task and stores it.
func (m *Manager) CreateTask(task models.Task) (models.Task, error) {
	task = normalize(task)
	task.ID = 0
	if err := m.validate(task); err != nil {
		return models.Task{}, err
	}
	if err := m.checkOverlap(task); err != nil {
		return models.Task{}, err
	}

	task.ID = m.allocateID()
	m.insert(task)
	m.logger.Debug("task created", slog.Int64("id", task.ID), slog.String("kind", string(task.Kind)))
	return m.tasks[task.ID].Clone(), nil
}

// UpdateTask replaces the stored task that has the same id. The kind of a
// task and the epic of a subtask cannot change. Epic membership and the
// derived fields of an epic are kept; only its own fields are replaced.
func (m *Manager) UpdateTask(task models.Task) (models.Task, error) {
	task = normalize(task)
	current, ok := m.tasks[task.ID]
	if !ok {
		return models.Task{}, fmt.Errorf("update %d: %w", task.ID, ErrNotFound)
	}
	if current.Kind != task.Kind {
		return models.Task{}, fmt.Errorf("update %d: %w: kind %s cannot become %s", task.ID, ErrInvalidTask, current.Kind, task.Kind)
	}
	if err := m.validate(task); err != nil {
		return models.Task{}, err
	}

	switch task.Kind {
	case models.KindEpic:
		current.Name = task.Name
		current.Description = task.Description
		current.Recalculate(m.subtasksOf(current))
	case models.KindTask, models.KindSubtask:
		if task.Kind == models.KindSubtask && task.EpicID != current.EpicID {
			return models.Task{}, fmt.Errorf("update %d: %w: subtask cannot move to epic %d", task.ID, ErrInvalidTask, task.EpicID)
		}
		if err := m.checkOverlap(task); err != nil {
			return models.Task{}, err
		}
		m.schedule.remove(task.ID)
		stored := task.Clone()
		m.tasks[task.ID] = &stored
		if stored.Scheduled() {
			m.schedule.insert(stored.ID, stored.StartTime)
		}
		if stored.Kind == models.KindSubtask {
			m.tasks[stored.EpicID].ModifySubtask(stored, m.resolve)
		}
	}

	m.logger.Debug("task updated", slog.Int64("id", task.ID), slog.String("kind", string(task.Kind)))
	return m.tasks[task.ID].Clone(), nil
}

// GetTaskByID returns the task with the given id and records the access.
func (m *Manager) GetTaskByID(id int64) (models.Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	m.history.Add(id)
	return task.Clone(), nil
}

// GetTaskOfKind is GetTaskByID restricted to one kind. A task of another
// kind is reported as not found and its access is not recorded.
func (m *Manager) GetTaskOfKind(id int64, kind models.Kind) (models.Task, error) {
	task, ok := m.tasks[id]
	if !ok || task.Kind != kind {
		return models.Task{}, fmt.Errorf("get %s %d: %w", kind, id, ErrNotFound)
	}
	m.history.Add(id)
	return task.Clone(), nil
}

// GetSingleTasks returns every independent task ordered by id.
func (m *Manager) GetSingleTasks() []models.Task {
	return m.getTasksByKind(models.KindTask)
}

// GetEpics returns every epic ordered by id.
func (m *Manager) GetEpics() []models.Task {
	return m.getTasksByKind(models.KindEpic)
}

// GetSubtasks returns every subtask ordered by id.
func (m *Manager) GetSubtasks() []models.Task {
	return m.getTasksByKind(models.KindSubtask)
}

// GetEpicSubtasks returns the subtasks of an epic in attachment order.
func (m *Manager) GetEpicSubtasks(epicID int64) ([]models.Task, error) {
	epic, ok := m.tasks[epicID]
	if !ok || epic.Kind != models.KindEpic {
		return nil, fmt.Errorf("epic %d: %w", epicID, ErrNotFound)
	}
	m.history.Add(epicID)
	subs := m.subtasksOf(epic)
	for _, sub := range subs {
		m.history.Add(sub.ID)
	}
	return subs, nil
}

func (m *Manager) getTasksByKind(kind models.Kind) []models.Task {
	tasks := m.byKind(kind)
	for _, t := range tasks {
		m.history.Add(t.ID)
	}
	return tasks
}

// byKind lists tasks of one kind without touching history.
func (m *Manager) byKind(kind models.Kind) []models.Task {
	var tasks []models.Task
	for _, t := range m.tasks {
		if t.Kind == kind {
			tasks = append(tasks, t.Clone())
		}
	}
	slices.SortFunc(tasks, func(a, b models.Task) int { return cmp.Compare(a.ID, b.ID) })
	return tasks
}

// RemoveTask deletes a task. Removing a subtask updates its epic; removing
// an epic removes all of its subtasks as well.
func (m *Manager) RemoveTask(id int64) error {
	task, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("remove %d: %w", id, ErrNotFound)
	}

	switch task.Kind {
	case models.KindTask:
		m.drop(id)
	case models.KindSubtask:
		m.drop(id)
		if epic, ok := m.tasks[task.EpicID]; ok {
			epic.RemoveSubtask(id, m.resolve)
		}
	case models.KindEpic:
		for _, subID := range task.SubtaskIDs {
			m.drop(subID)
		}
		m.drop(id)
	}

	m.logger.Debug("task removed", slog.Int64("id", id), slog.String("kind", string(task.Kind)))
	return nil
}

// ClearSingleTasks removes every independent task.
func (m *Manager) ClearSingleTasks() {
	m.clearByKind(models.KindTask)
}

// ClearEpics removes every epic and, with them, every subtask.
func (m *Manager) ClearEpics() {
	m.clearByKind(models.KindEpic)
	m.clearByKind(models.KindSubtask)
}

// ClearSubtasks removes every subtask, leaving their epics empty.
func (m *Manager) ClearSubtasks() {
	m.clearByKind(models.KindSubtask)
}

func (m *Manager) clearByKind(kind models.Kind) {
	for _, t := range m.byKind(kind) {
		// An earlier epic removal may already have taken this subtask.
		if err := m.RemoveTask(t.ID); err != nil && !errors.Is(err, ErrNotFound) {
			m.logger.Warn("clear failed", slog.Int64("id", t.ID), slog.String("error", err.Error()))
		}
	}
}

// GetPrioritizedTasks returns scheduled tasks and subtasks by ascending
// start time. Tasks that start at the same moment keep the order in which
// they were last scheduled.
func (m *Manager) GetPrioritizedTasks() []models.Task {
	ids := m.schedule.ids()
	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, m.tasks[id].Clone())
	}
	return tasks
}

// GetHistory returns accessed tasks from least to most recently touched.
func (m *Manager) GetHistory() []models.Task {
	ids := m.history.IDs()
	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := m.tasks[id]; ok {
			tasks = append(tasks, t.Clone())
		}
	}
	return tasks
}

// SetNextFreeID makes id the lowest id the manager may allocate next. The
// counter never moves backwards.
func (m *Manager) SetNextFreeID(id int64) {
	if id > m.nextID {
		m.nextID = id
	}
}

// NextFreeID reports the id the next created task will receive.
func (m *Manager) NextFreeID() int64 {
	return m.nextID
}

func (m *Manager) allocateID() int64 {
	id := m.nextID
	m.nextID++
	return id
}

// validate checks the task shape and that a subtask's epic exists.
func (m *Manager) validate(task models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if task.Kind == models.KindSubtask {
		epic, ok := m.tasks[task.EpicID]
		if !ok || epic.Kind != models.KindEpic {
			return fmt.Errorf("epic %d: %w", task.EpicID, ErrNotFound)
		}
	}
	return nil
}

func (m *Manager) checkOverlap(task models.Task) error {
	if task.Kind == models.KindEpic || !task.Scheduled() {
		return nil
	}
	for _, id := range m.schedule.ids() {
		other := m.tasks[id]
		if other.Equal(task) {
			continue
		}
		if models.Overlaps(task, *other) {
			return fmt.Errorf("%w: %q overlaps task %d", ErrOverlap, task.Name, id)
		}
	}
	return nil
}

// insert stores a task whose id is already set and wires it into its epic
// and the schedule.
func (m *Manager) insert(task models.Task) {
	stored := task.Clone()
	switch stored.Kind {
	case models.KindEpic:
		stored.SubtaskIDs = nil
		stored.Recalculate(nil)
		m.tasks[stored.ID] = &stored
	case models.KindTask, models.KindSubtask:
		m.tasks[stored.ID] = &stored
		if stored.Scheduled() {
			m.schedule.insert(stored.ID, stored.StartTime)
		}
		if stored.Kind == models.KindSubtask {
			m.tasks[stored.EpicID].ModifySubtask(stored, m.resolve)
		}
	}
}

// drop removes a task from the store, history and schedule.
func (m *Manager) drop(id int64) {
	delete(m.tasks, id)
	m.history.Remove(id)
	m.schedule.remove(id)
}

func (m *Manager) resolve(id int64) (models.Task, bool) {
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *t, true
}

func (m *Manager) subtasksOf(epic *models.Task) []models.Task {
	subs := make([]models.Task, 0, len(epic.SubtaskIDs))
	for _, id := range epic.SubtaskIDs {
		if sub, ok := m.tasks[id]; ok {
			subs = append(subs, sub.Clone())
		}
	}
	return subs
}

// normalize clears fields that do not apply to the task's kind.
func normalize(task models.Task) models.Task {
	task = task.Clone()
	if !task.Scheduled() {
		task.Duration = 0
	}
	if task.Status == "" {
		task.Status = models.StatusNew
	}
	if task.Kind != models.KindSubtask {
		task.EpicID = 0
	}
	return task
}
