package models

import (
	"errors"
	"testing"
	"time"
)

func sameTask(a, b Task) bool {
	return a.ID == b.ID &&
		a.Kind == b.Kind &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.Status == b.Status &&
		a.StartTime.Equal(b.StartTime) &&
		a.Duration == b.Duration &&
		a.EpicID == b.EpicID &&
		a.EndTime().Equal(b.EndTime())
}

func TestRecordRoundTrip(t *testing.T) {
	single := NewTask("write report", "quarterly, with charts", StatusInProgress, base, 90*time.Minute)
	single.ID = 1
	unscheduled := NewTask("inbox zero", "", StatusNew, NoTime, 0)
	unscheduled.ID = 2
	epic := NewEpic("release", "v2 \"final\"")
	epic.ID = 3
	sub := NewSubtask("tag", "git tag", StatusDone, base.Add(2*time.Hour), 15*time.Minute, 3)
	sub.ID = 4
	precise := NewTask("standup", "", StatusNew, base.Add(5*time.Hour+500*time.Millisecond+7), 10*time.Minute)
	precise.ID = 5

	for _, task := range []Task{single, unscheduled, epic, sub, precise} {
		t.Run(string(task.Kind)+"/"+task.Name, func(t *testing.T) {
			got, err := DecodeRecord(EncodeRecord(task))
			if err != nil {
				t.Fatalf("DecodeRecord: %v", err)
			}
			if !sameTask(got, task) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, task)
			}
		})
	}
}

func TestEncodeRecordFieldOrder(t *testing.T) {
	sub := NewSubtask("tag", "desc", StatusDone, base, 15*time.Minute, 3)
	sub.ID = 4

	got := EncodeRecord(sub)
	want := []string{"4", "SUBTASK", "tag", "DONE", "desc", "2024-03-04T09:00:00Z", "15", "3"}
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %s = %q, want %q", RecordHeader[i], got[i], want[i])
		}
	}
}

func TestDecodeRecordErrors(t *testing.T) {
	tests := []struct {
		name string
		rec  []string
	}{
		{name: "too short", rec: []string{"1", "TASK"}},
		{name: "bad id", rec: []string{"x", "TASK", "a", "NEW", ""}},
		{name: "bad kind", rec: []string{"1", "STORY", "a", "NEW", ""}},
		{name: "bad status", rec: []string{"1", "TASK", "a", "LATE", ""}},
		{name: "bad start", rec: []string{"1", "TASK", "a", "NEW", "", "tomorrow", "5"}},
		{name: "negative duration", rec: []string{"1", "TASK", "a", "NEW", "", "", "-5"}},
		{name: "duration out of range", rec: []string{"1", "TASK", "a", "NEW", "", "2024-01-01T10:00:00Z", "307445735"}},
		{name: "subtask without epic", rec: []string{"1", "SUBTASK", "a", "NEW", "", "", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeRecord(tt.rec); !errors.Is(err, ErrInvalid) {
				t.Fatalf("DecodeRecord() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestDurationFromMinutes(t *testing.T) {
	tests := []struct {
		name    string
		minutes int64
		want    time.Duration
		wantErr bool
	}{
		{name: "zero", minutes: 0, want: 0},
		{name: "hour", minutes: 60, want: time.Hour},
		{name: "largest", minutes: MaxDurationMinutes, want: time.Duration(MaxDurationMinutes) * time.Minute},
		{name: "one past largest", minutes: MaxDurationMinutes + 1, wantErr: true},
		{name: "negative", minutes: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationFromMinutes(tt.minutes)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("DurationFromMinutes(%d) error = %v, want ErrInvalid", tt.minutes, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("DurationFromMinutes(%d) = %v, %v, want %v", tt.minutes, got, err, tt.want)
			}
		})
	}
}
