package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"duallist/internal/queue"
	"duallist/internal/store"
)

const (
	DefaultInsertInterval    = 10 * time.Second
	DefaultReadWriteInterval = 1 * time.Second
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrBadPayload       = errors.New("bad payload")
	ErrPanic            = errors.New("repository panic")
)

//go:generate mockgen -source=processor.go -destination=mock_repository_test.go -package=batch

// Repository is the item store as seen by the processor.
type Repository interface {
	List(q store.ListQuery) store.Page
	ListSelected(q store.ListQuery) store.Page
	Insert(id int64, label string) (store.Item, error)
	Select(id int64) (bool, error)
	Deselect(id int64) bool
	Reorder(id int64, newIndex int) (bool, error)
	Snapshot() store.State
	Restore(st store.State) store.RestoreResult
}

// Ack is the outcome of select, deselect and reorder.
type Ack struct {
	Success bool `json:"success"`
}

type Config struct {
	InsertInterval    time.Duration
	ReadWriteInterval time.Duration
	Logger            *slog.Logger
}

// Processor drains the queue's lanes on two independent tickers and
// dispatches every request to the repository. Batches run on a single
// goroutine, so the repository only ever sees one caller at a time.
type Processor struct {
	queue *queue.Queue
	repo  Repository
	conf  Config
	log   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}

	// serializes ticker batches with manual flushes
	flushMu sync.Mutex
}

func New(q *queue.Queue, repo Repository, conf Config) *Processor {
	if conf.InsertInterval <= 0 {
		conf.InsertInterval = DefaultInsertInterval
	}
	if conf.ReadWriteInterval <= 0 {
		conf.ReadWriteInterval = DefaultReadWriteInterval
	}
	if conf.Logger == nil {
		conf.Logger = slog.Default()
	}
	return &Processor{
		queue: q,
		repo:  repo,
		conf:  conf,
		log:   conf.Logger.With("component", "batch"),
	}
}

// Start arms both tickers. Calling Start on a running processor does nothing.
func (p *Processor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop(p.stop, p.done)
	p.log.Info("processor started",
		"insert_interval", p.conf.InsertInterval,
		"read_write_interval", p.conf.ReadWriteInterval)
}

// Stop disarms both tickers and waits for an in-progress batch to finish.
// Buffered requests are left in their lanes. Stop on a stopped processor
// does nothing.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop, p.done = nil, nil
	p.log.Info("processor stopped")
}

func (p *Processor) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

func (p *Processor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	inserts := time.NewTicker(p.conf.InsertInterval)
	defer inserts.Stop()
	readWrites := time.NewTicker(p.conf.ReadWriteInterval)
	defer readWrites.Stop()

	for {
		select {
		case <-inserts.C:
			p.FlushInserts()
		case <-readWrites.C:
			p.FlushReadWrites()
		case <-stop:
			return
		}
	}
}

// FlushInserts runs one insert-lane cycle and returns the batch size.
func (p *Processor) FlushInserts() int {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()
	return p.process(queue.LaneInsert, p.queue.DrainInsertLane())
}

// FlushReadWrites runs one read/write-lane cycle and returns the batch size.
func (p *Processor) FlushReadWrites() int {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()
	return p.process(queue.LaneReadWrite, p.queue.DrainReadWriteLane())
}

func (p *Processor) process(lane queue.Lane, batch []*queue.Request) int {
	if len(batch) == 0 {
		return 0
	}
	start := time.Now()
	failed := 0
	for _, req := range batch {
		if !p.handle(req) {
			failed++
		}
	}
	p.log.Debug("batch processed", "lane", lane, "size", len(batch), "failed", failed, "took", time.Since(start))
	return len(batch)
}

// handle dispatches one request and settles it. It reports whether the
// repository call succeeded.
func (p *Processor) handle(req *queue.Request) bool {
	result, err := p.dispatch(req)
	if err != nil {
		p.log.Warn("request failed", "request_id", req.ID, "op", req.Op, "err", err)
		p.guard(req, "settle shared failure", func() error {
			p.queue.SettleFailure(req, err)
			return nil
		})
		p.guard(req, "reject", func() error { return req.Handle.Reject(err) })
		return false
	}
	p.guard(req, "settle shared success", func() error {
		p.queue.SettleSuccess(req, result)
		return nil
	})
	p.guard(req, "resolve", func() error { return req.Handle.Resolve(result) })
	return true
}

// guard runs one settlement step. Errors and panics are logged and dropped
// so one step never prevents the next.
func (p *Processor) guard(req *queue.Request, step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("settlement panic", "step", step, "request_id", req.ID, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		p.log.Warn("settlement failed", "step", step, "request_id", req.ID, "err", err)
	}
}

func (p *Processor) dispatch(req *queue.Request) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPanic, req.Op, r)
		}
	}()

	switch req.Op {
	case queue.OpList:
		pl, err := payload[queue.ListPayload](req)
		if err != nil {
			return nil, err
		}
		return p.repo.List(pl.Query), nil

	case queue.OpListSelected:
		pl, err := payload[queue.ListPayload](req)
		if err != nil {
			return nil, err
		}
		return p.repo.ListSelected(pl.Query), nil

	case queue.OpInsert:
		pl, err := payload[queue.InsertPayload](req)
		if err != nil {
			return nil, err
		}
		return p.repo.Insert(pl.ID, pl.Label)

	case queue.OpSelect:
		pl, err := payload[queue.IDPayload](req)
		if err != nil {
			return nil, err
		}
		ok, err := p.repo.Select(pl.ID)
		if err != nil {
			return nil, err
		}
		return Ack{Success: ok}, nil

	case queue.OpDeselect:
		pl, err := payload[queue.IDPayload](req)
		if err != nil {
			return nil, err
		}
		return Ack{Success: p.repo.Deselect(pl.ID)}, nil

	case queue.OpReorder:
		pl, err := payload[queue.ReorderPayload](req)
		if err != nil {
			return nil, err
		}
		ok, err := p.repo.Reorder(pl.ID, pl.NewIndex)
		if err != nil {
			return nil, err
		}
		return Ack{Success: ok}, nil

	case queue.OpSnapshot:
		return p.repo.Snapshot(), nil

	case queue.OpRestore:
		pl, err := payload[queue.RestorePayload](req)
		if err != nil {
			return nil, err
		}
		return p.repo.Restore(pl.State), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Op)
}

func payload[T any](req *queue.Request) (T, error) {
	v, ok := req.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s got %T", ErrBadPayload, req.Op, req.Payload)
	}
	return v, nil
}
