// Package server is the stockdash backend: login, per-user UI config,
// the admin broadcast and the global LMS screen configuration.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/rs/zerolog"

	"stockdash/internal/api"
	"stockdash/internal/metrics"
	"stockdash/internal/store"
)

// Repository is the persistence the handlers need.
type Repository interface {
	Ping(ctx context.Context) error
	Authenticate(ctx context.Context, login, password string) (store.User, error)
	UserByID(ctx context.Context, id string) (store.User, error)
	GetUIConfig(ctx context.Context, userID string) (store.UIConfig, error)
	PutUIConfig(ctx context.Context, userID, config string) (store.UIConfig, error)
	PushUIConfigToAll(ctx context.Context, config string) (int, error)
}

// Options configures a Server.
type Options struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	PushRatePerMinute int // 0 disables the broadcast rate limit
	LMS               *api.LMSConfig
	Metrics           *metrics.Metrics
	Logger            zerolog.Logger
}

// Server wires the fiber app to the repository.
type Server struct {
	app      *fiber.App
	repo     Repository
	sessions *Sessions
	metrics  *metrics.Metrics
	log      zerolog.Logger
	pushes   *limiter

	lmsMu sync.RWMutex
	lms   api.LMSConfig
}

const localUser = "user"

// New builds the app and registers all routes.
func New(repo Repository, opts Options) *Server {
	s := &Server{
		repo:     repo,
		sessions: NewSessions(),
		metrics:  opts.Metrics,
		log:      opts.Logger,
		pushes:   newLimiter(opts.PushRatePerMinute),
		lms:      api.DefaultLMSConfig(),
	}
	if opts.LMS != nil {
		s.lms = *opts.LMS
	}

	s.app = fiber.New(fiber.Config{
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		AppName:      "stockdash",
		ErrorHandler: s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(s.requestLogger())

	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	s.app.Get("/health/ready", s.ready)
	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	v1 := s.app.Group("/api/v1")
	v1.Post("/login", s.login)
	v1.Post("/logout", s.requireAuth, s.logout)

	lms := v1.Group("/lms")
	lms.Get("/config", s.getLMSConfig)
	lms.Put("/global-config", s.requireAuth, s.requireAdmin, s.putLMSConfig)
	lms.Get("/user-config", s.requireAuth, s.getUserConfig)
	lms.Put("/user-config", s.requireAuth, s.putUserConfig)
	lms.Post("/push-user-config", s.requireAuth, s.requireAdmin, s.pushUserConfig)

	return s
}

// App exposes the fiber app (tests use App().Test).
func (s *Server) App() *fiber.App { return s.app }

// Sessions exposes the token table.
func (s *Server) Sessions() *Sessions { return s.sessions }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("starting stockdash server")
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = http.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		route := c.Route().Path
		took := time.Since(start)
		s.metrics.ObserveRequest(c.Method(), route, status, took)
		s.log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("took", took).
			Msg("request")
		return err
	}
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= 500 {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(api.ErrorBody{Error: err.Error()})
}

func (s *Server) requireAuth(c fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return c.Status(http.StatusUnauthorized).JSON(api.ErrorBody{Error: "missing bearer token"})
	}
	userID, ok := s.sessions.Resolve(token)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(api.ErrorBody{Error: "invalid token"})
	}
	u, err := s.repo.UserByID(c.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		s.sessions.Revoke(token)
		return c.Status(http.StatusUnauthorized).JSON(api.ErrorBody{Error: "unknown user"})
	}
	if err != nil {
		return err
	}
	c.Locals(localUser, u)
	c.Locals("token", token)
	return c.Next()
}

func (s *Server) requireAdmin(c fiber.Ctx) error {
	if !currentUser(c).IsAdmin {
		return c.Status(http.StatusForbidden).JSON(api.ErrorBody{Error: "admin only"})
	}
	return c.Next()
}

func currentUser(c fiber.Ctx) store.User {
	u, _ := c.Locals(localUser).(store.User)
	return u
}
