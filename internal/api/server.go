package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"duallist/internal/queue"
)

// StatusReporter is the processor as seen by the stats endpoint.
type StatusReporter interface {
	Running() bool
}

type HTTPServer struct {
	queue  *queue.Queue
	proc   StatusReporter
	log    *slog.Logger
	engine *gin.Engine
	srv    *http.Server
}

// NewHTTPServer registers the routes and prepares an http.Server on addr.
func NewHTTPServer(q *queue.Queue, proc StatusReporter, addr string, log *slog.Logger) *HTTPServer {
	if log == nil {
		log = slog.Default()
	}
	h := &HTTPServer{
		queue:  q,
		proc:   proc,
		log:    log.With("component", "http"),
		engine: gin.New(),
	}
	h.engine.Use(requestID(), h.accessLog(), gin.CustomRecovery(h.recovered), cors())
	h.routes()

	// handlers wait up to one insert tick, so no WriteTimeout
	h.srv = &http.Server{
		Addr:              addr,
		Handler:           h.engine,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return h
}

func (h *HTTPServer) routes() {
	api := h.engine.Group("/api")
	api.GET("", h.handleHealth)
	api.GET("/", h.handleHealth)
	api.GET("/stats", h.handleStats)

	api.GET("/items", h.handleListItems)
	api.POST("/items", h.handleInsert)

	api.GET("/selected", h.handleListSelected)
	api.POST("/selected", h.handleSelect)
	api.PUT("/selected/order", h.handleReorder)
	api.DELETE("/selected/:id", h.handleDeselect)

	api.GET("/state", h.handleGetState)
	api.POST("/state", h.handleRestore)
}

func (h *HTTPServer) Handler() http.Handler {
	return h.engine
}

func (h *HTTPServer) Addr() string {
	return h.srv.Addr
}

// Start listens on the configured address; it returns http.ErrServerClosed
// after Shutdown.
func (h *HTTPServer) Start() error {
	return h.srv.ListenAndServe()
}

func (h *HTTPServer) Shutdown(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
