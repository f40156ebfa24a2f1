package logger

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger. It writes JSON to stderr until Init is called.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init initializes the global logger
func Init(serviceName string, isDevelopment bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer = os.Stdout
	if isDevelopment {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	log.Logger = Logger
}

// SetLevel sets the global log level. Unknown levels fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Discard silences the global logger. Used by tests.
func Discard() {
	Logger = zerolog.Nop()
}

// FromFiber returns a logger carrying the request id set by the requestid middleware.
func FromFiber(c *fiber.Ctx) *zerolog.Logger {
	l := Logger
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}

// RequestLogger logs one line per request, at warn for 4xx and error for 5xx.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// Let the app's error handler set the status before logging it.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		l := FromFiber(c)
		status := c.Response().StatusCode()
		event := l.Info()
		if status >= fiber.StatusInternalServerError {
			event = l.Error()
		} else if status >= fiber.StatusBadRequest {
			event = l.Warn()
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.IP()).
			Msg("request completed")

		return nil
	}
}
