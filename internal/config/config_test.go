package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	d := Defaults()
	fs.String("addr", d.Addr, "")
	fs.String("db-path", d.DBPath, "")
	fs.Int("history-limit", d.HistoryLimit, "")
	fs.String("log-level", d.LogLevel, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("Load() = %+v, want %+v", cfg, Defaults())
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	yaml := "addr: \":9000\"\ndb_path: /var/lib/tracker.db\nhistory_limit: 10\nlog_level: warn\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TRACKER_HISTORY_LIMIT", "25")

	fs := testFlags()
	if err := fs.Parse([]string{"--log-level", "debug"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Config{Addr: ":9000", DBPath: "/var/lib/tracker.db", HistoryLimit: 25, LogLevel: "debug"}
	if cfg != want {
		t.Fatalf("Load() = %+v, want %+v", cfg, want)
	}
	if level, _ := cfg.Level(); level != slog.LevelDebug {
		t.Fatalf("Level() = %v, want debug", level)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		path string
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "nope.yaml")},
		{name: "negative history limit", env: map[string]string{"TRACKER_HISTORY_LIMIT": "-1"}},
		{name: "unknown log level", env: map[string]string{"TRACKER_LOG_LEVEL": "chatty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(tt.path, nil); err == nil {
				t.Fatal("Load succeeded")
			}
		})
	}
}
