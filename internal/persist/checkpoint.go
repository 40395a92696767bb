package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"duallist/internal/store"
)

const (
	checkpointFile = "checkpoint.json"
	opLogFile      = "oplog.jsonl"
)

type Checkpoint struct {
	Selected []int64      `json:"selected"`
	Inserted []store.Item `json:"inserted"`
	SavedAt  time.Time    `json:"saved_at"`
}

func writeCheckpoint(path string, cp Checkpoint) error {
	b, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return fmt.Errorf("checkpoint write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("checkpoint rename: %w", err)
	}
	return nil
}

// loadCheckpoint returns ok=false when no checkpoint exists.
func loadCheckpoint(path string) (Checkpoint, bool, error) {
	var cp Checkpoint
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cp, false, nil
	}
	if err != nil {
		return cp, false, err
	}
	if err := json.Unmarshal(b, &cp); err != nil {
		return cp, false, fmt.Errorf("checkpoint corrupt: %w", err)
	}
	return cp, true, nil
}

func checkpointPath(dir string) string { return filepath.Join(dir, checkpointFile) }
func opLogPath(dir string) string      { return filepath.Join(dir, opLogFile) }
