package persist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"
)

type entry struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// OpLog is an append-only jsonl file of applied mutations.
type OpLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func OpenOpLog(path string) (*OpLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open op-log: %w", err)
	}
	return &OpLog{path: path, f: f}, nil
}

func (l *OpLog) Append(event string, payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("op-log marshal %s: %w", event, err)
	}
	b, err := json.Marshal(entry{Event: event, Payload: p})
	if err != nil {
		return fmt.Errorf("op-log marshal %s: %w", event, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("op-log write: %w", err)
	}
	return nil
}

// Truncate drops every entry. Called once a checkpoint covers them.
func (l *OpLog) Truncate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.f.Truncate(0); err != nil {
		return fmt.Errorf("op-log truncate: %w", err)
	}
	return nil
}

func (l *OpLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// readOpLog calls fn for every entry in the file at path. A missing file has
// no entries. Decoding stops at the first corrupt line.
func readOpLog(path string, fn func(entry)) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	dec := json.NewDecoder(bufio.NewReader(f))
	for {
		var e entry
		if err := dec.Decode(&e); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, fmt.Errorf("op-log decode after %d entries: %w", n, err)
		}
		fn(e)
		n++
	}
}
