// Package http exposes the pipeline engine to the recruitment
// dashboard: candidate loading and listing, single transitions, bulk
// operations, the server-held selection, and an SSE change feed.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"talentboard/internal/backend"
	"talentboard/internal/config"
	"talentboard/internal/metrics"
	"talentboard/internal/selection"
	"talentboard/internal/services"
	"talentboard/internal/store"
)

type Server struct {
	app    *fiber.App
	config *config.Config
	logger *slog.Logger
}

// Deps bundles what the server needs wired in from main.
type Deps struct {
	API        backend.API
	Store      *store.Store
	Selection  *selection.Set
	Transition services.TransitionService
	Bulk       services.BulkService
}

func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	app := fiber.New()

	// Inject collaborators into context for handlers
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("store", deps.Store)
		c.Locals("selection", deps.Selection)
		c.Locals("transition", deps.Transition)
		c.Locals("bulk", deps.Bulk)
		return c.Next()
	})

	// Request logging + metrics middleware
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		// Ensure a request ID exists
		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		if logger != nil {
			c.Locals("logger", logger)
		}

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		method := c.Method()
		path := c.Path()

		metrics.RecordRequest(method, path, status, latency.Milliseconds())

		if logger != nil {
			logger.Info("request",
				"request_id", reqID,
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}

		return err
	})

	// Redis client for rate limiting and health checks
	var rdb *redis.Client
	if cfg.Auth.Enabled && cfg.Redis.URL != "" {
		if opt, err := redis.ParseURL(cfg.Redis.URL); err == nil {
			rdb = redis.NewClient(opt)
		}
	}

	// Health endpoints
	app.Get("/healthz", func(c *fiber.Ctx) error {
		// Shallow health: process is up
		if c.Query("deep") != "true" {
			return c.JSON(fiber.Map{"status": "ok"})
		}

		// Deep health: check upstream ATS and Redis connectivity.
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		upstreamStatus := "ok"
		if err := deps.API.Ping(ctx); err != nil {
			upstreamStatus = "error"
		}

		redisStatus := "disabled"
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			} else {
				redisStatus = "ok"
			}
		}

		return c.JSON(fiber.Map{
			"status":   "ok",
			"upstream": upstreamStatus,
			"redis":    redisStatus,
		})
	})

	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/plain; version=0.0.4")
		return c.SendString(metrics.Export())
	})

	v1 := app.Group("/v1", authMiddleware(cfg), rateLimitMiddleware(cfg, rdb))

	v1.Post("/jobs/:jobId/load", loadHandler)
	v1.Get("/jobs/:jobId/applications", listApplicationsHandler)
	v1.Get("/applications/:id", getApplicationHandler)
	v1.Post("/applications/:id/transition", transitionHandler)
	v1.Post("/bulk", bulkHandler)

	v1.Get("/selection", selectionHandler)
	v1.Post("/selection/toggle", selectionToggleHandler)
	v1.Post("/selection/select-all", selectionSelectAllHandler)
	v1.Post("/selection/clear", selectionClearHandler)

	v1.Get("/events", eventsHandler)

	return &Server{app: app, config: cfg, logger: logger}
}

// App exposes the underlying fiber app (used by tests).
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	return s.app.Listen(addr)
}
