package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tracker/internal/manager"
	"tracker/internal/models"
)

const requestIDHeader = "X-Request-ID"

// Snapshotter persists the full state of the manager after each change.
type Snapshotter interface {
	Save(ctx context.Context, tasks []models.Task, nextID int64) error
}

// Server provides HTTP handlers for the task tracker.
type Server struct {
	engine *gin.Engine
	tasks  *manager.Manager
	store  Snapshotter
	logger *slog.Logger

	// mu serializes API requests; manager operations are not atomic
	// against each other.
	mu sync.Mutex
}

// New constructs the HTTP server with routes and middleware configured. A
// nil store keeps state in memory only.
func New(tasks *manager.Manager, store Snapshotter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz"))

	srv := &Server{
		engine: router,
		tasks:  tasks,
		store:  store,
		logger: logger,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/healthz", s.handleHealth)

	api.Use(s.serialize)
	{
		s.registerKind(api.Group("/tasks"), models.KindTask)
		epics := api.Group("/epics")
		s.registerKind(epics, models.KindEpic)
		epics.GET(":id/subtasks", s.handleEpicSubtasks)
		s.registerKind(api.Group("/subtasks"), models.KindSubtask)

		api.GET("/history", s.handleHistory)
		api.GET("/prioritized", s.handlePrioritized)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})
}

func (s *Server) registerKind(g *gin.RouterGroup, kind models.Kind) {
	g.GET("", s.handleList(kind))
	g.POST("", s.handleCreate(kind))
	g.DELETE("", s.handleClear(kind))
	g.GET(":id", s.handleGet(kind))
	g.PUT(":id", s.handleUpdate(kind))
	g.DELETE(":id", s.handleDelete(kind))
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) serialize(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Next()
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// persist saves a snapshot after a successful mutation.
func (s *Server) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.tasks.Snapshot(), s.tasks.NextFreeID()); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// commit persists the changes made since cp. If the save fails the manager
// is rolled back to cp, so a failed request leaves no change behind.
func (s *Server) commit(ctx context.Context, cp manager.Checkpoint) error {
	if err := s.persist(ctx); err != nil {
		s.tasks.Rollback(cp)
		return err
	}
	return nil
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// statusFor maps manager errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, manager.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, manager.ErrOverlap):
		return http.StatusNotAcceptable
	case errors.Is(err, manager.ErrInvalidTask):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	s.logger.Error("request failed",
		slog.String("path", c.FullPath()),
		slog.String("request_id", c.GetString("request_id")),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
