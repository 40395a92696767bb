package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"duallist/internal/batch"
	"duallist/internal/queue"
	"duallist/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fixture struct {
	queue *queue.Queue
	proc  *batch.Processor
	srv   *HTTPServer
}

func newFixture(t *testing.T, items int) *fixture {
	t.Helper()
	q := queue.New(nil)
	s := store.New(store.Config{Count: items, Seed: 11})
	p := batch.New(q, s, batch.Config{InsertInterval: 3 * time.Millisecond, ReadWriteInterval: 2 * time.Millisecond})
	p.Start()
	t.Cleanup(p.Stop)
	return &fixture{queue: q, proc: p, srv: NewHTTPServer(q, p, ":0", nil)}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, 1)
	rec := f.do(t, http.MethodGet, "/api", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[healthResp](t, rec); got.Status != "Healthy!" {
		t.Fatalf("health = %+v", got)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
}

func TestListItems(t *testing.T) {
	f := newFixture(t, 30)
	rec := f.do(t, http.MethodGet, "/api/items?page=2&limit=5", nil)
	expectStatus(t, rec, http.StatusOK)
	p := decode[store.Page](t, rec)
	if p.Total != 30 || p.Page != 2 || p.Limit != 5 || len(p.Items) != 5 || p.Items[0].ID != 6 {
		t.Fatalf("page = %+v", p)
	}

	rec = f.do(t, http.MethodGet, "/api/items?filter=3", nil)
	expectStatus(t, rec, http.StatusOK)
	if p := decode[store.Page](t, rec); p.Total != 4 || p.Limit != 20 {
		t.Fatalf("filtered page = %+v", p)
	}
}

func TestValidationNeverEnqueues(t *testing.T) {
	f := newFixture(t, 5)
	f.proc.Stop()

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/items?limit=101", nil},
		{http.MethodGet, "/api/items?page=0", nil},
		{http.MethodGet, "/api/items?page=1000001", nil},
		{http.MethodGet, "/api/selected?page=4611686018427387905&limit=100", nil},
		{http.MethodGet, "/api/selected?filter=abc", nil},
		{http.MethodPost, "/api/items", `{"id":"abc"}`},
		{http.MethodPost, "/api/items", `{"id":0}`},
		{http.MethodPost, "/api/items", `{"label":"x"}`},
		{http.MethodPost, "/api/selected", `{}`},
		{http.MethodPut, "/api/selected/order", `{"id":1}`},
		{http.MethodPut, "/api/selected/order", `{"id":1,"newIndex":-1}`},
		{http.MethodDelete, "/api/selected/abc", nil},
		{http.MethodPost, "/api/state", `{"selectedIds":"nope"}`},
	}
	for _, tc := range cases {
		rec := f.do(t, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s %s %v: status = %d, want 400", tc.method, tc.path, tc.body, rec.Code)
		}
	}
	if f.queue.Len(queue.LaneInsert)+f.queue.Len(queue.LaneReadWrite) != 0 {
		t.Fatal("invalid request reached the queue")
	}
}

func TestInsertAndConflict(t *testing.T) {
	f := newFixture(t, 5)
	rec := f.do(t, http.MethodPost, "/api/items", map[string]any{"id": 100, "label": "hundred"})
	expectStatus(t, rec, http.StatusCreated)
	if it := decode[store.Item](t, rec); it.ID != 100 || it.Label != "hundred" {
		t.Fatalf("item = %+v", it)
	}

	rec = f.do(t, http.MethodPost, "/api/items", map[string]any{"id": 100})
	expectStatus(t, rec, http.StatusConflict)
}

func TestConcurrentInsertsShareOutcome(t *testing.T) {
	q := queue.New(nil)
	s := store.New(store.Config{Count: 0})
	p := batch.New(q, s, batch.Config{InsertInterval: time.Hour, ReadWriteInterval: time.Hour})
	f := &fixture{queue: q, proc: p, srv: NewHTTPServer(q, p, ":0", nil)}

	const n = 3
	recs := make([]*httptest.ResponseRecorder, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs[i] = f.do(t, http.MethodPost, "/api/items", `{"id":5,"label":"X"}`)
		}(i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for q.Len(queue.LaneInsert) != 1 || q.Coalesced() != n-1 {
		if time.Now().After(deadline) {
			t.Fatal("requests never queued")
		}
		time.Sleep(time.Millisecond)
	}
	p.FlushInserts()
	wg.Wait()

	for i, rec := range recs {
		expectStatus(t, rec, http.StatusCreated)
		if it := decode[store.Item](t, rec); it.ID != 5 || it.Label != "X" {
			t.Fatalf("response %d = %+v", i, it)
		}
	}
	if s.Len() != 1 {
		t.Fatalf("store has %d items", s.Len())
	}
}

func TestSelectReorderDeselect(t *testing.T) {
	f := newFixture(t, 10)
	for _, id := range []int{1, 2, 3} {
		rec := f.do(t, http.MethodPost, "/api/selected", map[string]any{"id": id})
		expectStatus(t, rec, http.StatusOK)
		if ack := decode[batch.Ack](t, rec); !ack.Success {
			t.Fatalf("select %d not successful", id)
		}
	}

	rec := f.do(t, http.MethodPut, "/api/selected/order", map[string]any{"id": 3, "newIndex": 0})
	expectStatus(t, rec, http.StatusOK)

	rec = f.do(t, http.MethodGet, "/api/selected", nil)
	expectStatus(t, rec, http.StatusOK)
	p := decode[store.Page](t, rec)
	got := []int64{}
	for _, it := range p.Items {
		got = append(got, it.ID)
	}
	if !slices.Equal(got, []int64{3, 1, 2}) {
		t.Fatalf("selected = %v, want [3 1 2]", got)
	}

	rec = f.do(t, http.MethodGet, "/api/items", nil)
	if p := decode[store.Page](t, rec); p.Total != 7 {
		t.Fatalf("unselected total = %d, want 7", p.Total)
	}

	rec = f.do(t, http.MethodDelete, "/api/selected/3", nil)
	expectStatus(t, rec, http.StatusOK)
	if ack := decode[batch.Ack](t, rec); !ack.Success {
		t.Fatal("deselect not successful")
	}
	rec = f.do(t, http.MethodDelete, "/api/selected/3", nil)
	if ack := decode[batch.Ack](t, rec); ack.Success {
		t.Fatal("second deselect reported success")
	}
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, 5)
	rec := f.do(t, http.MethodPost, "/api/selected", map[string]any{"id": 999})
	expectStatus(t, rec, http.StatusNotFound)

	rec = f.do(t, http.MethodPut, "/api/selected/order", map[string]any{"id": 4, "newIndex": 0})
	expectStatus(t, rec, http.StatusNotFound)
}

func TestStateRoundTrip(t *testing.T) {
	f := newFixture(t, 10)
	rec := f.do(t, http.MethodPost, "/api/state", map[string]any{"selectedIds": []int64{1, 2, 999999999}})
	expectStatus(t, rec, http.StatusOK)
	if r := decode[restoreResp](t, rec); !r.Success || r.Message != "" {
		t.Fatalf("restore = %+v", r)
	}

	rec = f.do(t, http.MethodGet, "/api/state", nil)
	expectStatus(t, rec, http.StatusOK)
	if st := decode[store.State](t, rec); !slices.Equal(st.SelectedIDs, []int64{1, 2}) {
		t.Fatalf("state = %v, want [1 2]", st.SelectedIDs)
	}

	rec = f.do(t, http.MethodPost, "/api/state", map[string]any{"selectedIds": []int64{2, 1}})
	if r := decode[restoreResp](t, rec); !r.Success || r.Message == "" {
		t.Fatalf("reordered restore = %+v, want message", r)
	}
}

func TestClosedQueue(t *testing.T) {
	f := newFixture(t, 5)
	f.queue.Close()
	rec := f.do(t, http.MethodGet, "/api/items", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestStats(t *testing.T) {
	f := newFixture(t, 5)
	rec := f.do(t, http.MethodGet, "/api/stats", nil)
	expectStatus(t, rec, http.StatusOK)
	if st := decode[statsResp](t, rec); !st.ProcessorRunning {
		t.Fatalf("stats = %+v", st)
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, 1)
	rec := f.do(t, http.MethodOptions, "/api/items", nil)
	expectStatus(t, rec, http.StatusNoContent)
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}
