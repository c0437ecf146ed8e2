// Package api serves the board over a local JSON HTTP interface.
package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskflow/internal/board"
	"github.com/p-blackswan/taskflow/internal/health"
	"github.com/p-blackswan/taskflow/internal/metrics"
	"github.com/p-blackswan/taskflow/internal/requestid"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	ListenAddr  string
	RateLimit   RateLimitConfig
	CORSOrigins []string
	// AITimeout bounds each completion call made on behalf of a request.
	AITimeout time.Duration
}

// Server is the board API Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	logger   zerolog.Logger
	config   ServerConfig
}

// NewServer creates and configures a new API server.
func NewServer(
	cfg ServerConfig,
	svc *board.Service,
	checker *health.Checker,
	metricsCollector *metrics.Metrics,
	logger zerolog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
	})
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 60 * time.Second
	}

	s := &Server{
		app:    app,
		logger: logger.With().Str("component", "api_server").Logger(),
		config: cfg,
	}

	h := NewHandlers(svc, cfg.AITimeout, logger)
	s.handlers = h
	s.setupMiddleware(cfg, metricsCollector)
	s.setupRoutes(h, checker, metricsCollector)
	return s
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

func (s *Server) setupMiddleware(cfg ServerConfig, m *metrics.Metrics) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID: keep a caller-supplied one, otherwise mint a UUID.
	s.app.Use(func(c *fiber.Ctx) error {
		reqID := requestid.Resolve(c.Get(requestid.Header))
		c.Set(requestid.Header, reqID)
		c.Locals("request_id", reqID)
		c.SetUserContext(requestid.WithRequestID(c.UserContext(), reqID))
		return c.Next()
	})

	if len(cfg.CORSOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
			AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		}))
	}

	if cfg.RateLimit.RPS > 0 {
		s.app.Use(NewRateLimitMiddleware(cfg.RateLimit))
	}

	// Access log and request counter.
	s.app.Use(func(c *fiber.Ctx) error {
		if isProbe(c.Path()) {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if m != nil {
			m.RecordHTTP(c.Route().Path, strconv.Itoa(status))
		}
		s.logger.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("request_id", requestID(c)).
			Msg("api request")
		return err
	})
}

func (s *Server) setupRoutes(h *Handlers, checker *health.Checker, m *metrics.Metrics) {
	s.app.Get("/healthz", health.LivenessHandler)
	if checker != nil {
		s.app.Get("/readyz", checker.ReadinessHandler)
	} else {
		s.app.Get("/readyz", health.LivenessHandler)
	}
	if m != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	v1 := s.app.Group("/api/v1")

	// Tasks
	v1.Get("/tasks", h.ListTasks)
	v1.Post("/tasks", h.CreateTask)
	v1.Get("/tasks/:id", h.GetTask)
	v1.Patch("/tasks/:id", h.EditTask)
	v1.Delete("/tasks/:id", h.DeleteTask)
	v1.Patch("/tasks/:id/status", h.MoveTask)
	v1.Post("/tasks/:id/subtasks", h.AddSubtask)
	v1.Post("/tasks/:id/subtasks/suggest", h.exclusive("subtasks", h.SuggestSubtasks))
	v1.Post("/tasks/:id/subtasks/:sid/toggle", h.ToggleSubtask)

	// Board
	v1.Get("/board", h.Board)
	v1.Get("/stats", h.Stats)

	// AI
	v1.Post("/plan", h.exclusive("plan", h.GeneratePlan))
	v1.Post("/plan/approve", h.ApprovePlan)
	v1.Post("/risk", h.exclusive("risk", h.AnalyzeRisk))
	v1.Get("/risk", h.Risk)
	v1.Get("/quote", h.exclusive("quote", h.Quote))

	// Session
	v1.Post("/session", h.Login)
	v1.Get("/session", h.CurrentUser)
	v1.Delete("/session", h.Logout)

	// Profile: fixed paths before the section wildcards.
	v1.Get("/profile", h.GetProfile)
	v1.Put("/profile/basics", h.SetBasics)
	v1.Put("/profile/summary", h.SetSummary)
	v1.Post("/profile/optimize", h.exclusive("optimize", h.OptimizeText))
	v1.Post("/profile/skills/suggest", h.exclusive("skills", h.SuggestSkills))
	v1.Post("/profile/summary/generate", h.exclusive("summary", h.GenerateSummary))
	v1.Post("/profile/:section", h.AddEntry)
	v1.Put("/profile/:section/:id", h.UpdateEntry)
	v1.Delete("/profile/:section/:id", h.RemoveEntry)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Info().Str("addr", addr).Msg("board API server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("board API server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("request_id").(string); ok {
		return id
	}
	return ""
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		title := "Internal Server Error"
		detail := "An internal error occurred"
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			title = e.Message
			detail = e.Message
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		errType := "internal_error"
		if code == fiber.StatusNotFound {
			errType = "route_not_found"
		}
		return c.Status(code).JSON(ProblemDetail{
			Type:     errType,
			Title:    title,
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
