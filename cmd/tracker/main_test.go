package main

import (
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tracker/internal/config"
	"tracker/internal/storage/csvfile"
)

const sampleCSV = `id,kind,name,status,description,start_time,duration,epic
1,TASK,report,NEW,"draft, then final",2024-03-04T09:00:00Z,30,
2,EPIC,release,NEW,,,,
4,SUBTASK,tag,DONE,,2024-03-04T10:00:00Z,15,2
`

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	cmd := rootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestImportExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	db := filepath.Join(dir, "tracker.db")

	if err := os.WriteFile(in, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	if err := runCLI(t, "import", in, "--db-path", db, "--log-level", "error"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := runCLI(t, "export", out, "--db-path", db, "--log-level", "error"); err != nil {
		t.Fatalf("export: %v", err)
	}

	tasks, err := csvfile.LoadFile(out)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("exported %d tasks, want 3", len(tasks))
	}
	epic := tasks[1]
	if epic.ID != 2 || epic.Status != "DONE" || epic.Duration.Minutes() != 15 {
		t.Fatalf("epic = %+v, want aggregate of its subtask", epic)
	}
}

func TestImportRejectsOverlap(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	data := sampleCSV + "5,TASK,clash,NEW,,2024-03-04T09:10:00Z,5,\n"
	if err := os.WriteFile(in, []byte(data), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	err := runCLI(t, "import", in, "--db-path", filepath.Join(dir, "tracker.db"), "--log-level", "error")
	if err == nil || !strings.Contains(err.Error(), "overlaps") {
		t.Fatalf("import error = %v, want overlap", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "tracker.db")); !os.IsNotExist(statErr) {
		t.Fatalf("database written despite rejected import")
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := runCLI(t, "frobnicate"); err == nil {
		t.Fatal("unknown command succeeded")
	}
}

func TestServeReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := config.Defaults()
	cfg.Addr = ln.Addr().String()
	cfg.DBPath = filepath.Join(t.TempDir(), "tracker.db")

	err = serve(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil || !strings.Contains(err.Error(), "listen on") {
		t.Fatalf("serve() error = %v, want listen failure", err)
	}
}
