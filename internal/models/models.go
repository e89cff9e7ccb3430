package models

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Kind tags which variant of Task a value holds.
type Kind string

const (
	KindTask    Kind = "TASK"
	KindEpic    Kind = "EPIC"
	KindSubtask Kind = "SUBTASK"
)

// Status describes the progress of a task.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// NoTime marks a task without a scheduled start.
var NoTime = time.Time{}

// ErrInvalid is wrapped by every validation failure in this package.
var ErrInvalid = errors.New("invalid task")

// MaxDurationMinutes is the longest duration, in whole minutes, that a
// time.Duration can hold.
const MaxDurationMinutes = math.MaxInt64 / int64(time.Minute)

// DurationFromMinutes converts a count of whole minutes into a duration.
func DurationFromMinutes(minutes int64) (time.Duration, error) {
	if minutes < 0 {
		return 0, fmt.Errorf("%w: negative duration", ErrInvalid)
	}
	if minutes > MaxDurationMinutes {
		return 0, fmt.Errorf("%w: duration of %d minutes is out of range", ErrInvalid, minutes)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// ParseKind converts a textual kind into a Kind.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(raw))); k {
	case KindTask, KindEpic, KindSubtask:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalid, raw)
}

// ParseStatus converts a textual status into a Status. An empty value means NEW.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StatusNew, nil
	}
	switch s := Status(strings.ToUpper(raw)); s {
	case StatusNew, StatusInProgress, StatusDone:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalid, raw)
}

// Task is a work item. Kind selects which of the kind-specific fields apply:
// EpicID is only meaningful for subtasks and SubtaskIDs only for epics.
type Task struct {
	ID          int64
	Kind        Kind
	Name        string
	Description string
	Status      Status
	StartTime   time.Time
	Duration    time.Duration
	EpicID      int64
	SubtaskIDs  []int64

	// epicEnd holds the aggregated span end of an epic.
	epicEnd time.Time
}

// NewTask builds an independent task.
func NewTask(name, description string, status Status, start time.Time, duration time.Duration) Task {
	return Task{
		Kind:        KindTask,
		Name:        name,
		Description: description,
		Status:      status,
		StartTime:   start,
		Duration:    duration,
	}
}

// NewEpic builds an epic with no subtasks.
func NewEpic(name, description string) Task {
	return Task{
		Kind:        KindEpic,
		Name:        name,
		Description: description,
		Status:      StatusNew,
	}
}

// NewSubtask builds a subtask owned by the epic with the given id.
func NewSubtask(name, description string, status Status, start time.Time, duration time.Duration, epicID int64) Task {
	return Task{
		Kind:        KindSubtask,
		Name:        name,
		Description: description,
		Status:      status,
		StartTime:   start,
		Duration:    duration,
		EpicID:      epicID,
	}
}

// Scheduled reports whether the task has a start time.
func (t Task) Scheduled() bool {
	return !t.StartTime.IsZero()
}

// EndTime returns the end of the task span, or NoTime when unscheduled.
func (t Task) EndTime() time.Time {
	if !t.Scheduled() {
		return NoTime
	}
	if t.Kind == KindEpic {
		return t.epicEnd
	}
	return t.StartTime.Add(t.Duration)
}

// Equal compares tasks by identity.
func (t Task) Equal(other Task) bool {
	return t.ID == other.ID
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	c := t
	c.SubtaskIDs = slices.Clone(t.SubtaskIDs)
	return c
}

// Validate checks the kind-specific shape of the task.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalid)
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	if t.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalid)
	}
	switch t.Kind {
	case KindTask:
	case KindEpic:
	case KindSubtask:
		if t.EpicID <= 0 {
			return fmt.Errorf("%w: subtask requires an epic id", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, t.Kind)
	}
	return nil
}

// Overlaps reports whether two scheduled tasks share any time. Touching
// endpoints do not overlap and unscheduled tasks never overlap anything.
func Overlaps(a, b Task) bool {
	if !a.Scheduled() || !b.Scheduled() {
		return false
	}
	return a.StartTime.Before(b.EndTime()) && b.StartTime.Before(a.EndTime())
}
