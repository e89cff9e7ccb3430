package models

import (
	"fmt"
	"strconv"
	"time"
)

// RecordHeader names the fields of an encoded task, in order.
var RecordHeader = []string{"id", "kind", "name", "status", "description", "start_time", "duration", "epic"}

// EncodeRecord renders a task as a flat list of fields. Start time is RFC 3339
// with nanoseconds and left empty when unscheduled; duration is whole minutes; the epic field is
// only filled for subtasks.
func EncodeRecord(t Task) []string {
	rec := []string{
		strconv.FormatInt(t.ID, 10),
		string(t.Kind),
		t.Name,
		string(t.Status),
		t.Description,
		"",
		"",
		"",
	}
	if t.Scheduled() {
		rec[5] = t.StartTime.Format(time.RFC3339Nano)
		rec[6] = strconv.FormatInt(int64(t.Duration/time.Minute), 10)
	}
	if t.Kind == KindSubtask {
		rec[7] = strconv.FormatInt(t.EpicID, 10)
	}
	return rec
}

// DecodeRecord is the inverse of EncodeRecord. Trailing optional fields may be
// omitted.
func DecodeRecord(rec []string) (Task, error) {
	if len(rec) < 5 {
		return Task{}, fmt.Errorf("%w: record has %d fields, want at least 5", ErrInvalid, len(rec))
	}

	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return Task{}, fmt.Errorf("%w: id %q", ErrInvalid, rec[0])
	}
	kind, err := ParseKind(rec[1])
	if err != nil {
		return Task{}, err
	}
	status, err := ParseStatus(rec[3])
	if err != nil {
		return Task{}, err
	}

	t := Task{ID: id, Kind: kind, Name: rec[2], Status: status, Description: rec[4]}

	if len(rec) > 5 && rec[5] != "" {
		start, err := time.Parse(time.RFC3339Nano, rec[5])
		if err != nil {
			return Task{}, fmt.Errorf("%w: start time %q", ErrInvalid, rec[5])
		}
		t.StartTime = start
	}
	if len(rec) > 6 && rec[6] != "" {
		minutes, err := strconv.ParseInt(rec[6], 10, 64)
		if err != nil {
			return Task{}, fmt.Errorf("%w: duration %q", ErrInvalid, rec[6])
		}
		if t.Duration, err = DurationFromMinutes(minutes); err != nil {
			return Task{}, err
		}
	}
	if kind == KindSubtask {
		if len(rec) < 8 || rec[7] == "" {
			return Task{}, fmt.Errorf("%w: subtask %d has no epic", ErrInvalid, id)
		}
		epicID, err := strconv.ParseInt(rec[7], 10, 64)
		if err != nil {
			return Task{}, fmt.Errorf("%w: epic id %q", ErrInvalid, rec[7])
		}
		t.EpicID = epicID
	}
	if kind == KindEpic && t.Scheduled() {
		t.epicEnd = t.StartTime.Add(t.Duration)
	}
	return t, nil
}
