// Package relay provides the HTTP relay that turns prompts or images into
// report JSON via the upstream AI API, keeping the API credential server-side.
package relay

import (
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/reportrelay/pkg/llm"
	"github.com/papercomputeco/reportrelay/pkg/upstream"
)

// Report endpoints.
const (
	TextReportPath  = "/api/ai-proxy"
	ImageReportPath = "/api/ai-image-proxy"
)

// Relay is a stateless report relay. Each request makes exactly one
// upstream call and shares nothing with other requests.
type Relay struct {
	config    Config
	logger    *zap.Logger
	generator *Generator
	server    *fiber.App
}

// New creates a new Relay calling the upstream described by config.
func New(config Config, logger *zap.Logger) (*Relay, error) {
	client := upstream.NewClient(config.Upstream, logger)
	return NewWithCompleter(config, client, logger)
}

// NewWithCompleter creates a Relay that sends completions through completer.
func NewWithCompleter(config Config, completer Completer, logger *zap.Logger) (*Relay, error) {
	textKind, err := NewTextKind()
	if err != nil {
		return nil, err
	}
	imageKind, err := NewImageKind()
	if err != nil {
		return nil, err
	}

	r := &Relay{
		config:    config,
		logger:    logger,
		generator: NewGenerator(completer, logger),
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		BodyLimit:             config.bodyLimit(),
		ErrorHandler:          r.handleError,
	})
	r.server = app

	app.All(TextReportPath, r.handleReport(textKind))
	app.All(ImageReportPath, r.handleReport(imageKind))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	return r, nil
}

// App exposes the underlying fiber app, mainly for in-process tests.
func (r *Relay) App() *fiber.App {
	return r.server
}

// Run starts the relay server on the configured listening address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		zap.String("listen", r.config.ListenAddr),
		zap.String("upstream", r.config.Upstream.URL),
		zap.Bool("api_key_set", r.config.Upstream.APIKey != ""),
	)

	return r.server.Listen(r.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (r *Relay) RunWithListener(ln net.Listener) error {
	r.logger.Info("starting relay server",
		zap.String("listen", ln.Addr().String()),
		zap.String("upstream", r.config.Upstream.URL),
		zap.Bool("api_key_set", r.config.Upstream.APIKey != ""),
	)

	return r.server.Listener(ln)
}

// Shutdown gracefully stops the server.
func (r *Relay) Shutdown() error {
	return r.server.Shutdown()
}

// handleError wraps framework errors (unknown routes, oversized bodies) in
// the JSON error envelope.
func (r *Relay) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	r.logger.Debug("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", code),
		zap.Error(err),
	)

	return c.Status(code).JSON(llm.ErrorResponse{Error: err.Error()})
}

// handleReport returns the handler for one report kind.
// Only POST is accepted. Input problems answer 400 before any upstream call;
// every other failure answers 500 with the error message.
func (r *Relay) handleReport(kind Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Status(fiber.StatusMethodNotAllowed).JSON(llm.ErrorResponse{Error: "Expected POST"})
		}

		startTime := time.Now()
		out, err := r.generator.Generate(c.UserContext(), kind, c.Body())

		var inputErr *InputError
		if errors.As(err, &inputErr) {
			r.logger.Debug("rejected report request",
				zap.String("kind", kind.Name),
				zap.String("reason", inputErr.Message),
			)
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: inputErr.Message})
		}
		if err != nil {
			r.logger.Error("report generation failed",
				zap.String("kind", kind.Name),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
		}

		r.logger.Info("report generated",
			zap.String("kind", kind.Name),
			zap.Int("size", len(out)),
			zap.Duration("duration", time.Since(startTime)),
		)

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).SendString(out)
	}
}

