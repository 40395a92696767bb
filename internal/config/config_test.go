package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Batch.InsertInterval.Std() != 10*time.Second || cfg.Batch.ReadWriteInterval.Std() != time.Second {
		t.Fatalf("intervals = %v / %v", cfg.Batch.InsertInterval.Std(), cfg.Batch.ReadWriteInterval.Std())
	}
	if cfg.Items.Count != 1_000_000 {
		t.Fatalf("Items.Count = %d", cfg.Items.Count)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeFile(t, "duallist.yaml", `
addr: ":8081"
items:
  count: 500
batch:
  insert_interval: 2s
  read_write_interval: 250ms
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.Items.Count != 500 || cfg.Log.Level != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Batch.InsertInterval.Std() != 2*time.Second || cfg.Batch.ReadWriteInterval.Std() != 250*time.Millisecond {
		t.Fatalf("batch = %+v", cfg.Batch)
	}
	if cfg.Persist.Dir != "./data" {
		t.Fatalf("unset field lost its default: %q", cfg.Persist.Dir)
	}
}

func TestLoadTOML(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeFile(t, "duallist.toml", `
addr = ":9000"

[batch]
insert_interval = "3s"
read_write_interval = "500ms"

[persist]
enabled = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.Persist.Enabled {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Batch.InsertInterval.Std() != 3*time.Second {
		t.Fatalf("insert interval = %v", cfg.Batch.InsertInterval.Std())
	}
}

func TestPortOverride(t *testing.T) {
	t.Setenv("PORT", "4242")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":4242" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Batch.ReadWriteInterval = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted bad config")
	}
	for _, want := range []string{"Level", "ReadWriteInterval"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "duallist.ini", "addr=:1")
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted .ini")
	}
}
