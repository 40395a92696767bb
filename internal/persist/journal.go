package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"duallist/internal/store"
)

type idPayload struct {
	ID int64 `json:"id"`
}

type reorderPayload struct {
	ID       int64 `json:"id"`
	NewIndex int   `json:"new_index"`
}

// Journal wraps a store so that every successful mutation is appended to
// the op-log, and periodically folds the op-log into a checkpoint. It
// satisfies the batch processor's repository interface.
type Journal struct {
	// held across mutation+append and across checkpoint+truncate so a
	// checkpoint never misses or double-counts an entry
	mu sync.Mutex

	dir   string
	store *store.Store
	oplog *OpLog
	log   *slog.Logger
}

// Open recovers the store from dir (checkpoint, then op-log) and opens the
// op-log for appending.
func Open(dir string, s *store.Store, log *slog.Logger) (*Journal, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create %s: %w", dir, err)
	}
	j := &Journal{dir: dir, store: s, log: log.With("component", "persist")}
	j.recover()

	l, err := OpenOpLog(opLogPath(dir))
	if err != nil {
		return nil, err
	}
	j.oplog = l
	return j, nil
}

func (j *Journal) recover() {
	cp, ok, err := loadCheckpoint(checkpointPath(j.dir))
	switch {
	case err != nil:
		j.log.Warn("checkpoint ignored", "err", err)
	case !ok:
		j.log.Info("no checkpoint found, starting fresh")
	default:
		for _, it := range cp.Inserted {
			if _, err := j.store.Insert(it.ID, it.Label); err != nil && !errors.Is(err, store.ErrDuplicateID) {
				j.log.Warn("checkpoint insert", "id", it.ID, "err", err)
			}
		}
		j.store.Restore(store.State{SelectedIDs: cp.Selected})
		j.log.Info("checkpoint loaded", "selected", len(cp.Selected), "inserted", len(cp.Inserted), "saved_at", cp.SavedAt)
	}

	n, err := readOpLog(opLogPath(j.dir), j.apply)
	if err != nil {
		j.log.Warn("op-log replay stopped", "err", err)
	}
	j.log.Info("op-log replay complete", "entries", n)
}

// apply replays one op-log entry. Entries that no longer apply are skipped.
func (j *Journal) apply(e entry) {
	var err error
	switch e.Event {
	case "insert":
		var it store.Item
		if err = json.Unmarshal(e.Payload, &it); err == nil {
			_, err = j.store.Insert(it.ID, it.Label)
		}
	case "select":
		var p idPayload
		if err = json.Unmarshal(e.Payload, &p); err == nil {
			_, err = j.store.Select(p.ID)
		}
	case "deselect":
		var p idPayload
		if err = json.Unmarshal(e.Payload, &p); err == nil {
			j.store.Deselect(p.ID)
		}
	case "reorder":
		var p reorderPayload
		if err = json.Unmarshal(e.Payload, &p); err == nil {
			_, err = j.store.Reorder(p.ID, p.NewIndex)
		}
	case "restore":
		var st store.State
		if err = json.Unmarshal(e.Payload, &st); err == nil {
			j.store.Restore(st)
		}
	default:
		err = fmt.Errorf("unknown event %q", e.Event)
	}
	if err != nil {
		j.log.Debug("op-log entry skipped", "event", e.Event, "err", err)
	}
}

func (j *Journal) record(event string, payload any) {
	if err := j.oplog.Append(event, payload); err != nil {
		j.log.Error("op-log append failed", "event", event, "err", err)
	}
}

func (j *Journal) List(q store.ListQuery) store.Page         { return j.store.List(q) }
func (j *Journal) ListSelected(q store.ListQuery) store.Page { return j.store.ListSelected(q) }
func (j *Journal) Snapshot() store.State                     { return j.store.Snapshot() }

func (j *Journal) Insert(id int64, label string) (store.Item, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	it, err := j.store.Insert(id, label)
	if err == nil {
		j.record("insert", it)
	}
	return it, err
}

func (j *Journal) Select(id int64) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	ok, err := j.store.Select(id)
	if ok {
		j.record("select", idPayload{ID: id})
	}
	return ok, err
}

func (j *Journal) Deselect(id int64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	ok := j.store.Deselect(id)
	if ok {
		j.record("deselect", idPayload{ID: id})
	}
	return ok
}

func (j *Journal) Reorder(id int64, newIndex int) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	ok, err := j.store.Reorder(id, newIndex)
	if err == nil {
		j.record("reorder", reorderPayload{ID: id, NewIndex: newIndex})
	}
	return ok, err
}

func (j *Journal) Restore(st store.State) store.RestoreResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	res := j.store.Restore(st)
	if res.Applied {
		j.record("restore", st)
	}
	return res
}

// Checkpoint writes the current selection and inserted items and empties
// the op-log.
func (j *Journal) Checkpoint() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	cp := Checkpoint{
		Selected: j.store.Snapshot().SelectedIDs,
		Inserted: j.store.Inserted(),
		SavedAt:  time.Now().UTC(),
	}
	if err := writeCheckpoint(checkpointPath(j.dir), cp); err != nil {
		return err
	}
	if err := j.oplog.Truncate(); err != nil {
		return err
	}
	j.log.Info("checkpoint saved", "selected", len(cp.Selected), "inserted", len(cp.Inserted))
	return nil
}

// Run checkpoints every interval until ctx is done.
func (j *Journal) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := j.Checkpoint(); err != nil {
				j.log.Error("checkpoint failed", "err", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (j *Journal) Close() error {
	return j.oplog.Close()
}
