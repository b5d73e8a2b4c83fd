// Package fiber provides a zerolog based access log middleware for fiber.
package fiber

import (
	"errors"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/legaldesk/legaldesk/internal/logger"
)

// HeaderPerformance carries the handler duration in seconds.
const HeaderPerformance = "X-Performance"

// Config implements fiber middleware struct.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c fiber.Ctx) bool

	// Config of the logger.
	Config logger.Log

	// CacheControlError max-age caching on chain errors.
	CacheControlError string

	// CheckAliveURI for disabling logging of check alive http calls.
	CheckAliveURI string

	// Output overrides the configured writers. Used by tests.
	Output io.Writer
}

// ConfigDefault is the default config for fiber.
var ConfigDefault = Config{
	Next:              nil,
	CacheControlError: "max-age=0",
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.CacheControlError == "" {
		cfg.CacheControlError = ConfigDefault.CacheControlError
	}

	return cfg
}

// New creates a new fiber access logging middleware using zerolog.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	accessLogger := zerolog.New(accessWriter(&cfg)).With().Timestamp().Logger().Level(zerolog.NoLevel)

	return func(c fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		start := time.Now()
		chainErr := c.Next()
		elapsed := time.Since(start).Seconds()

		status := c.Response().StatusCode()

		if chainErr != nil {
			status = fiber.StatusInternalServerError

			var fe *fiber.Error
			if errors.As(chainErr, &fe) {
				status = fe.Code
			}

			c.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
		}

		c.Set(HeaderPerformance, strconv.FormatFloat(elapsed, 'f', 6, 64))

		if cfg.Config.DisableCheckAlive && cfg.CheckAliveURI != "" && c.Path() == cfg.CheckAliveURI {
			return chainErr
		}

		// fasthttp normalises the path; log the raw query string next to it.
		uri := c.Path()
		if qs := c.Request().URI().QueryString(); len(qs) > 0 {
			uri = uri + "?" + string(qs)
		}

		event := accessLogger.Log().
			Str("IP", c.IP()).
			Int("status", status).
			Float64(HeaderPerformance, elapsed).
			Str("URI", uri).
			Str("method", c.Method()).
			Bytes("host", c.Request().Host()).
			Str(fiber.HeaderXForwardedFor, c.Get(fiber.HeaderXForwardedFor)).
			Str(fiber.HeaderUserAgent, c.Get(fiber.HeaderUserAgent))

		if rid := c.GetRespHeader(fiber.HeaderXRequestID); rid != "" {
			event = event.Str("request_id", rid)
		}

		if principal := c.Get("X-Principal-ID"); principal != "" {
			event = event.Str("principal_id", principal).Str("principal_type", c.Get("X-Principal-Type"))
		}

		if chainErr != nil {
			event = event.Err(chainErr)
		}

		event.Send()

		// let fiber's error handler write the response
		return chainErr
	}
}

func accessWriter(cfg *Config) io.Writer {
	if cfg.Output != nil {
		return cfg.Output
	}

	var writers []io.Writer

	if cfg.Config.File.Enabled {
		if w := newRollingAccessFile(&cfg.Config); w != nil {
			writers = append(writers, w)
		}
	}

	// Console.Enabled is the master switch; EnableAccessLogToConsole opts the access log in.
	if cfg.Config.Console.Enabled && cfg.Config.EnableAccessLogToConsole {
		if cfg.Config.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				NoColor:      false,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{"level"},
			})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	return zerolog.MultiLevelWriter(writers...)
}

// newRollingAccessFile uses lumberjack to create file based access log.
func newRollingAccessFile(cfg *logger.Log) io.Writer {
	if cfg.File.Path != "" {
		if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil {
			log.Error().Err(err).Str("path", cfg.File.Path).Msg("can't create log directory")

			return nil
		}
	}

	return logger.RollingFile(*cfg, cfg.File.Access)
}
