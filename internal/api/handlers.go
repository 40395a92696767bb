package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"duallist/internal/queue"
	"duallist/internal/store"
)

const msgInternal = "internal server error"

// ===== Models =====

type listParams struct {
	Page   int    `form:"page,default=1" binding:"min=1,max=1000000"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Filter *int64 `form:"filter" binding:"omitempty,min=0"`
}

type insertReq struct {
	ID    *int64  `json:"id" binding:"required,min=1"`
	Label *string `json:"label"`
}

type selectReq struct {
	ID *int64 `json:"id" binding:"required,min=1"`
}

type reorderReq struct {
	ID       *int64 `json:"id" binding:"required,min=1"`
	NewIndex *int   `json:"newIndex" binding:"required,min=0"`
}

type deselectURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type restoreReq struct {
	SelectedIDs []int64 `json:"selectedIds" binding:"required"`
}

type restoreResp struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type healthResp struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
}

type statsResp struct {
	InsertQueue      int  `json:"insert_queue"`
	ReadWriteQueue   int  `json:"read_write_queue"`
	InFlight         int  `json:"in_flight"`
	Coalesced        int  `json:"coalesced"`
	ProcessorRunning bool `json:"processor_running"`
}

type errResp struct {
	Error string `json:"error"`
}

// ==== Handlers =====

// GET /api
func (h *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResp{Code: http.StatusOK, Status: "Healthy!"})
}

// GET /api/stats
func (h *HTTPServer) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResp{
		InsertQueue:      h.queue.Len(queue.LaneInsert),
		ReadWriteQueue:   h.queue.Len(queue.LaneReadWrite),
		InFlight:         h.queue.InFlight(),
		Coalesced:        h.queue.Coalesced(),
		ProcessorRunning: h.proc.Running(),
	})
}

// GET /api/items?page=1&limit=20&filter=12
func (h *HTTPServer) handleListItems(c *gin.Context) {
	h.list(c, queue.OpList)
}

// GET /api/selected?page=1&limit=20&filter=12
func (h *HTTPServer) handleListSelected(c *gin.Context) {
	h.list(c, queue.OpListSelected)
}

func (h *HTTPServer) list(c *gin.Context, op queue.Op) {
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	q := store.ListQuery{Page: p.Page, Limit: p.Limit, Filter: p.Filter}
	if v, ok := h.submit(c, queue.KindRead, op, queue.ListPayload{Query: q}, nil); ok {
		c.JSON(http.StatusOK, v)
	}
}

// POST /api/items
// Body: {"id": N, "label": "optional"}
func (h *HTTPServer) handleInsert(c *gin.Context) {
	var req insertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pl := queue.InsertPayload{ID: *req.ID}
	if req.Label != nil {
		pl.Label = *req.Label
	}
	if v, ok := h.submit(c, queue.KindInsert, queue.OpInsert, pl, req.ID); ok {
		c.JSON(http.StatusCreated, v)
	}
}

// POST /api/selected
// Body: {"id": N}
func (h *HTTPServer) handleSelect(c *gin.Context) {
	var req selectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if v, ok := h.submit(c, queue.KindWrite, queue.OpSelect, queue.IDPayload{ID: *req.ID}, req.ID); ok {
		c.JSON(http.StatusOK, v)
	}
}

// DELETE /api/selected/:id
func (h *HTTPServer) handleDeselect(c *gin.Context) {
	var req deselectURI
	if err := c.ShouldBindUri(&req); err != nil {
		badRequest(c, err)
		return
	}
	if v, ok := h.submit(c, queue.KindWrite, queue.OpDeselect, queue.IDPayload{ID: req.ID}, &req.ID); ok {
		c.JSON(http.StatusOK, v)
	}
}

// PUT /api/selected/order
// Body: {"id": N, "newIndex": I}
func (h *HTTPServer) handleReorder(c *gin.Context) {
	var req reorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pl := queue.ReorderPayload{ID: *req.ID, NewIndex: *req.NewIndex}
	if v, ok := h.submit(c, queue.KindWrite, queue.OpReorder, pl, req.ID); ok {
		c.JSON(http.StatusOK, v)
	}
}

// GET /api/state
func (h *HTTPServer) handleGetState(c *gin.Context) {
	if v, ok := h.submit(c, queue.KindRead, queue.OpSnapshot, nil, nil); ok {
		c.JSON(http.StatusOK, v)
	}
}

// POST /api/state
// Body: {"selectedIds": [N, ...]}
func (h *HTTPServer) handleRestore(c *gin.Context) {
	var req restoreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pl := queue.RestorePayload{State: store.State{SelectedIDs: req.SelectedIDs}}
	v, ok := h.submit(c, queue.KindWrite, queue.OpRestore, pl, nil)
	if !ok {
		return
	}
	res, _ := v.(store.RestoreResult)
	c.JSON(http.StatusOK, restoreResp{Success: true, Message: res.Message})
}

// Helpers

// submit enqueues the operation and blocks until it settles or the client
// goes away. On failure the error response has been written.
func (h *HTTPServer) submit(c *gin.Context, kind queue.Kind, op queue.Op, payload any, dedup *int64) (any, bool) {
	f, err := h.queue.Enqueue(kind, op, payload, dedup)
	if err != nil {
		h.fail(c, op, err)
		return nil, false
	}
	v, err := f.Wait(c.Request.Context())
	if err != nil {
		h.fail(c, op, err)
		return nil, false
	}
	return v, true
}

func (h *HTTPServer) fail(c *gin.Context, op queue.Op, err error) {
	switch {
	case errors.Is(err, store.ErrDuplicateID):
		c.JSON(http.StatusConflict, errResp{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, errResp{Error: err.Error()})
	case errors.Is(err, queue.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, errResp{Error: "server is shutting down"})
	case errors.Is(err, context.Canceled):
		// client went away; the operation still runs at the next tick
		h.log.Debug("client gone before result", "op", op, "request_id", c.GetString("request_id"))
		c.Abort()
	default:
		h.log.Error("operation failed", "op", op, "err", err, "request_id", c.GetString("request_id"))
		c.JSON(http.StatusInternalServerError, errResp{Error: msgInternal})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errResp{Error: err.Error()})
}
