// Package api exposes the voice agent over HTTP.
package api

import (
	"errors"
	"net"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/voiceagent/pkg/agent"
	"github.com/papercomputeco/voiceagent/pkg/uploads"
)

// Server serves the voice agent endpoints. Sessions live in the agent's
// store; the server itself holds no conversation state.
type Server struct {
	config Config
	agent  *agent.Agent
	stager *uploads.Stager
	logger *zap.Logger
	server *fiber.App
}

// NewServer creates a new Server and registers its routes.
func NewServer(config Config, a *agent.Agent, stager *uploads.Stager, logger *zap.Logger) (*Server, error) {
	if a == nil {
		return nil, errors.New("agent is required")
	}
	if stager == nil {
		return nil, errors.New("upload stager is required")
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
		ErrorHandler:          errorHandler(logger),
	})

	s := &Server{
		config: config,
		agent:  a,
		stager: stager,
		logger: logger,
		server: app,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	app := s.server

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Post("/generate-audio/", s.handleGenerateAudio)
	app.Post("/upload-echo/", s.handleUploadEcho)
	app.Post("/transcribe/file", s.handleTranscribeFile)
	app.Post("/tts/echo", s.handleTTSEcho)
	app.Post("/llm/query", s.handleLLMQuery)
	app.Post("/agent/chat/:session_id", s.handleAgentChat)

	// Session inspection endpoints
	app.Get("/agent/sessions", s.handleListSessions)
	app.Get("/agent/history/:session_id", s.handleGetHistory)

	app.Static("/uploads", s.stager.Dir())

	if s.config.StaticDir != "" {
		if info, err := os.Stat(s.config.StaticDir); err == nil && info.IsDir() {
			app.Static("/static", s.config.StaticDir)
			index := filepath.Join(s.config.StaticDir, "index.html")
			app.Get("/", func(c *fiber.Ctx) error {
				return c.SendFile(index)
			})
		} else {
			s.logger.Warn("static directory not found, browser client disabled",
				zap.String("static_dir", s.config.StaticDir),
			)
		}
	}
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting voice agent server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("upload_dir", s.stager.Dir()),
	)

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting voice agent server",
		zap.String("listen", ln.Addr().String()),
		zap.String("upload_dir", s.stager.Dir()),
	)

	return s.server.Listener(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// App exposes the underlying fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.server
}

// errorHandler renders errors that escape handlers (unknown routes, body
// limits) in the same shape as handler errors.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		detail := "Internal server error."

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			detail = fe.Message
		} else {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		return c.Status(code).JSON(ErrorResponse{Detail: detail})
	}
}
