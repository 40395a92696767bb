package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"duallist/internal/batch"
	"duallist/internal/store"
)

const DefaultBaseURL = "http://localhost:3000"

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bad status: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("bad status: %d: %s", e.Status, e.Message)
}

// RestoreResult mirrors the POST /api/state response.
type RestoreResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type Client struct {
	base string
	http *http.Client
}

// New returns a client for the API at base. A nil hc uses a client with a
// timeout long enough to cover one insert batch.
func New(base string, hc *http.Client) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: base, http: hc}
}

// Items lists items that are not selected.
func (c *Client) Items(ctx context.Context, q store.ListQuery) (store.Page, error) {
	var p store.Page
	err := c.do(ctx, http.MethodGet, "/api/items?"+listValues(q).Encode(), nil, &p)
	return p, err
}

// Selected lists selected items in their user-defined order.
func (c *Client) Selected(ctx context.Context, q store.ListQuery) (store.Page, error) {
	var p store.Page
	err := c.do(ctx, http.MethodGet, "/api/selected?"+listValues(q).Encode(), nil, &p)
	return p, err
}

// Insert adds an item. An empty label lets the server generate one.
func (c *Client) Insert(ctx context.Context, id int64, label string) (store.Item, error) {
	body := map[string]any{"id": id}
	if label != "" {
		body["label"] = label
	}
	var it store.Item
	err := c.do(ctx, http.MethodPost, "/api/items", body, &it)
	return it, err
}

func (c *Client) Select(ctx context.Context, id int64) (bool, error) {
	var ack batch.Ack
	err := c.do(ctx, http.MethodPost, "/api/selected", map[string]int64{"id": id}, &ack)
	return ack.Success, err
}

func (c *Client) Deselect(ctx context.Context, id int64) (bool, error) {
	var ack batch.Ack
	err := c.do(ctx, http.MethodDelete, "/api/selected/"+strconv.FormatInt(id, 10), nil, &ack)
	return ack.Success, err
}

func (c *Client) Reorder(ctx context.Context, id int64, newIndex int) (bool, error) {
	var ack batch.Ack
	body := map[string]any{"id": id, "newIndex": newIndex}
	err := c.do(ctx, http.MethodPut, "/api/selected/order", body, &ack)
	return ack.Success, err
}

func (c *Client) State(ctx context.Context) (store.State, error) {
	var st store.State
	err := c.do(ctx, http.MethodGet, "/api/state", nil, &st)
	return st, err
}

func (c *Client) Restore(ctx context.Context, st store.State) (RestoreResult, error) {
	var res RestoreResult
	err := c.do(ctx, http.MethodPost, "/api/state", st, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func listValues(q store.ListQuery) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Filter != nil {
		v.Set("filter", strconv.FormatInt(*q.Filter, 10))
	}
	return v
}
