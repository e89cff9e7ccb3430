// Package csvfile reads and writes task snapshots as CSV: a header line
// followed by one record per task.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"tracker/internal/models"
)

// Write encodes tasks to w, header first.
func Write(w io.Writer, tasks []models.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.RecordHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range tasks {
		if err := cw.Write(models.EncodeRecord(t)); err != nil {
			return fmt.Errorf("write task %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read decodes tasks from r. An empty input yields no tasks.
func Read(r io.Reader) ([]models.Task, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, models.RecordHeader) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var tasks []models.Task
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return tasks, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)
		t, err := models.DecodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tasks = append(tasks, t)
	}
}

// SaveFile writes tasks to path, creating parent directories as needed. The
// file is replaced atomically.
func SaveFile(path string, tasks []models.Task) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tasks-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, tasks); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// LoadFile reads tasks from path. A missing file yields no tasks.
func LoadFile(path string) ([]models.Task, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
