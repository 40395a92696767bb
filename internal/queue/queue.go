package queue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"duallist/internal/store"
)

var ErrClosed = errors.New("queue: closed")

type Lane int

const (
	LaneInsert Lane = iota
	LaneReadWrite
	numLanes
)

func (l Lane) String() string {
	switch l {
	case LaneInsert:
		return "insert"
	case LaneReadWrite:
		return "read_write"
	}
	return fmt.Sprintf("lane(%d)", int(l))
}

type Kind int

const (
	KindInsert Kind = iota
	KindRead
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Lane reports which lane requests of this kind are buffered in.
func (k Kind) Lane() Lane {
	if k == KindInsert {
		return LaneInsert
	}
	return LaneReadWrite
}

// Op names the repository operation a request is dispatched to.
type Op string

const (
	OpList         Op = "list"
	OpListSelected Op = "list_selected"
	OpInsert       Op = "insert"
	OpSelect       Op = "select"
	OpDeselect     Op = "deselect"
	OpReorder      Op = "reorder"
	OpSnapshot     Op = "snapshot"
	OpRestore      Op = "restore"
)

type ListPayload struct {
	Query store.ListQuery
}

type InsertPayload struct {
	ID    int64
	Label string
}

type IDPayload struct {
	ID int64
}

type ReorderPayload struct {
	ID       int64
	NewIndex int
}

type RestorePayload struct {
	State store.State
}

// Request is one buffered operation. Handle is settled exactly once by the
// batch processor.
type Request struct {
	ID         string
	Kind       Kind
	Op         Op
	Payload    any
	DedupKey   *int64
	Handle     *Future
	EnqueuedAt time.Time

	// shared outcome observed by every caller coalesced into this request
	shared *Future
}

type dedupKey struct {
	lane Lane
	id   int64
}

// claim is the registry entry for one in-flight dedup key.
type claim struct {
	shared     *Future
	pending    *Request
	dispatched bool
}

// Queue buffers requests into the insert and read/write lanes and keeps the
// dedup registry. It is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	lanes    [numLanes][]*Request
	inFlight map[dedupKey]*claim
	closed   bool

	coalesced int

	log *slog.Logger
	now func() time.Time
}

func New(log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		inFlight: make(map[dedupKey]*claim),
		log:      log.With("component", "queue"),
		now:      time.Now,
	}
}

// Enqueue buffers an operation and returns its result handle.
//
// A request carrying a dedup key that is already claimed by a request still
// waiting in its lane is coalesced into it: the buffered request takes the
// newer op and payload and the caller follows its shared outcome. If the
// claiming request has already been drained, the new request claims the key
// afresh and waits for the next batch.
func (q *Queue) Enqueue(kind Kind, op Op, payload any, dedup *int64) (*Future, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}

	lane := kind.Lane()
	if dedup != nil {
		key := dedupKey{lane: lane, id: *dedup}
		if c, ok := q.inFlight[key]; ok && !c.dispatched {
			c.pending.Kind = kind
			c.pending.Op = op
			c.pending.Payload = payload
			q.coalesced++
			q.log.Debug("coalesced request", "lane", lane, "id", *dedup, "op", op, "request_id", c.pending.ID)
			return c.shared.follow(), nil
		}
	}

	req := &Request{
		ID:         uuid.NewString(),
		Kind:       kind,
		Op:         op,
		Payload:    payload,
		Handle:     NewFuture(),
		EnqueuedAt: q.now(),
	}
	if dedup != nil {
		id := *dedup
		req.DedupKey = &id
		req.shared = NewFuture()
		q.inFlight[dedupKey{lane: lane, id: id}] = &claim{shared: req.shared, pending: req}
	}
	q.lanes[lane] = append(q.lanes[lane], req)
	return req.Handle, nil
}

func (q *Queue) DrainInsertLane() []*Request {
	return q.drain(LaneInsert)
}

func (q *Queue) DrainReadWriteLane() []*Request {
	return q.drain(LaneReadWrite)
}

// drain empties the lane and returns its contents in enqueue order. Keyed
// requests in the batch stop accepting coalesced callers.
func (q *Queue) drain(lane Lane) []*Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := q.lanes[lane]
	q.lanes[lane] = nil
	for _, req := range batch {
		if req.DedupKey == nil {
			continue
		}
		if c, ok := q.inFlight[dedupKey{lane: lane, id: *req.DedupKey}]; ok && c.pending == req {
			c.dispatched = true
		}
	}
	return batch
}

// SettleSuccess resolves the shared outcome of a keyed request and releases
// its dedup key. It is a no-op for requests without a key.
func (q *Queue) SettleSuccess(req *Request, outcome any) {
	if req.shared == nil {
		return
	}
	if err := req.shared.Resolve(outcome); err != nil {
		q.log.Warn("resolve shared outcome", "request_id", req.ID, "id", *req.DedupKey, "err", err)
	}
	q.release(req)
}

// SettleFailure rejects the shared outcome of a keyed request and releases
// its dedup key. A failure to reject is logged and does not block release.
func (q *Queue) SettleFailure(req *Request, cause error) {
	if req.shared == nil {
		return
	}
	if err := req.shared.Reject(cause); err != nil {
		q.log.Warn("reject shared outcome", "request_id", req.ID, "id", *req.DedupKey, "err", err)
	}
	q.release(req)
}

func (q *Queue) release(req *Request) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := dedupKey{lane: req.Kind.Lane(), id: *req.DedupKey}
	if c, ok := q.inFlight[key]; ok && c.shared == req.shared {
		delete(q.inFlight, key)
	}
}

// Close makes every later Enqueue fail with ErrClosed. Buffered requests
// stay buffered.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

func (q *Queue) Len(lane Lane) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes[lane])
}

// InFlight reports the number of claimed dedup keys.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}

// Coalesced reports how many requests have been folded into an already
// buffered request since the queue was created.
func (q *Queue) Coalesced() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.coalesced
}

// IsInFlight reports whether id is claimed in lane.
func (q *Queue) IsInFlight(lane Lane, id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.inFlight[dedupKey{lane: lane, id: id}]
	return ok
}
