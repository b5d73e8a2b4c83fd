// Package logger initialises the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelWriter implements a struct to split logs by info and error and up level.
// See func WriteLevel about the separation.
type LevelWriter struct {
	io.Writer
	ErrorWriter io.Writer
	InfoWriter  io.Writer
	TraceWriter io.Writer
	WarnWriter  io.Writer
}

// WriteLevel splits logging by level and links the pointer to the target output depending on the logger defined.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (n int, err error) {
	var w io.Writer

	// disabled logging
	if l == zerolog.Disabled {
		return 0, nil
	}

	switch {
	case l == zerolog.TraceLevel:
		w = lw.TraceWriter
	case l == zerolog.WarnLevel:
		w = lw.WarnWriter
	case l > zerolog.WarnLevel: // error and fatal panic go to error
		w = lw.ErrorWriter
	default:
		w = lw.InfoWriter // debug and info go to info
	}

	return w.Write(p) //nolint:wrapcheck
}

// Write sends level-less events (zerolog.Log()) to the info writer.
func (lw *LevelWriter) Write(p []byte) (int, error) {
	return lw.InfoWriter.Write(p) //nolint:wrapcheck
}

// Init the zerolog logger.
// Depending on the config it enables all, some or no logger at all.
// Be sure to enable at least one logger for output.
func Init(cfg Log) error {
	var (
		logLevel, err = zerolog.ParseLevel(cfg.LogLevel)
		writers       []io.Writer
		stack         bool
	)

	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("loglevel %s is not supported", cfg.LogLevel))
	}

	if cfg.ServiceName == "" {
		return ErrServiceNameIsEmpty
	}

	if cfg.AppName == "" {
		return ErrAppNameIsEmpty
	}

	// use zerolog stack marshal func if trace level is set
	if logLevel == zerolog.TraceLevel {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
		stack = true
	}

	zerolog.SetGlobalLevel(logLevel)
	zerolog.ErrorHandler = ErrorHandler

	hook := NewMetricsHook(cfg.ServiceName)

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg))
	}

	if cfg.File.Enabled {
		if fw := newRollingInfoErrorFile(cfg); fw != nil {
			writers = append(writers, fw)
		}
	}

	mw := zerolog.MultiLevelWriter(writers...)
	base := zerolog.New(mw).Hook(hook).With().Timestamp().Str("app", cfg.AppName)

	switch {
	case cfg.ReportCaller && stack:
		log.Logger = base.Stack().Caller().Logger()
	case cfg.ReportCaller:
		log.Logger = base.Caller().Logger()
	case stack:
		log.Logger = base.Stack().Logger()
	default:
		log.Logger = base.Logger()
	}

	return nil
}

// RollingFile returns a lumberjack writer for r below cfg.File.Path.
func RollingFile(cfg Log, r Rotation) io.Writer {
	return &lumberjack.Logger{
		Filename:   path.Join(cfg.File.Path, r.Name),
		MaxSize:    r.MaxSize,
		MaxAge:     r.MaxAge,
		MaxBackups: r.MaxBackups,
		LocalTime:  false,
		Compress:   false,
	}
}

// newRollingInfoErrorFile uses LevelWriter and lumberjack to create file based log.
func newRollingInfoErrorFile(cfg Log) io.Writer {
	if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil { //nolint: mnd
		log.Error().Err(err).Str("path", cfg.File.Path).Msg("can't create log directory")

		return nil
	}

	f := cfg.File

	return &LevelWriter{
		ErrorWriter: RollingFile(cfg, f.Error),
		InfoWriter:  RollingFile(cfg, f.Info),
		TraceWriter: RollingFile(cfg, f.Trace),
		WarnWriter:  RollingFile(cfg, f.Warn),
	}
}

// NewConsoleWriter creates a zerolog ConsoleWriter.
func NewConsoleWriter(cfg Log) io.Writer {
	if !cfg.Console.UseConsoleWriter {
		return &LevelWriter{
			ErrorWriter: os.Stderr,
			InfoWriter:  os.Stdout,
			TraceWriter: os.Stderr,
			WarnWriter:  os.Stderr,
		}
	}

	pretty := func(out io.Writer) io.Writer {
		return zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    false,
			TimeFormat: zerolog.TimeFieldFormat,
		}
	}

	return &LevelWriter{
		ErrorWriter: pretty(os.Stderr),
		InfoWriter:  pretty(os.Stdout),
		TraceWriter: pretty(os.Stderr),
		WarnWriter:  pretty(os.Stderr),
	}
}
