package csvfile

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tracker/internal/models"
)

func sampleTasks() []models.Task {
	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	single := models.NewTask("report", "draft, then \"final\"", models.StatusInProgress, start, 30*time.Minute)
	single.ID = 1
	epic := models.NewEpic("release", "line one\nline two")
	epic.ID = 2
	sub := models.NewSubtask("tag", "", models.StatusDone, models.NoTime, 0, 2)
	sub.ID = 3
	return []models.Task{single, epic, sub}
}

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := sampleTasks()
	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "id,kind,name,status,description,start_time,duration,epic\n") {
		t.Fatalf("missing header: %q", buf.String())
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("read %d tasks, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Kind != w.Kind || g.Name != w.Name || g.Description != w.Description ||
			g.Status != w.Status || !g.StartTime.Equal(w.StartTime) || g.Duration != w.Duration || g.EpicID != w.EpicID {
			t.Errorf("task %d: got %+v, want %+v", i, g, w)
		}
	}
}

func TestReadEmpty(t *testing.T) {
	got, err := Read(strings.NewReader(""))
	if err != nil || got != nil {
		t.Fatalf("Read(\"\") = %v, %v", got, err)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "wrong header", input: "id,type,name\n1,TASK,a\n"},
		{name: "bad record", input: "id,kind,name,status,description,start_time,duration,epic\n1,STORY,a,NEW,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input)); err == nil {
				t.Fatal("Read succeeded")
			}
		})
	}

	_, err := Read(strings.NewReader("id,kind,name,status,description,start_time,duration,epic\n1,STORY,a,NEW,\n"))
	if !errors.Is(err, models.ErrInvalid) {
		t.Fatalf("bad record error = %v, want ErrInvalid", err)
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tasks.csv")

	got, err := LoadFile(path)
	if err != nil || got != nil {
		t.Fatalf("LoadFile(missing) = %v, %v", got, err)
	}

	if err := SaveFile(path, sampleTasks()); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if err := SaveFile(path, sampleTasks()[:1]); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	got, err = LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(got) != 1 || got[0].Name != "report" {
		t.Fatalf("LoadFile = %+v, want the single report task", got)
	}
}
