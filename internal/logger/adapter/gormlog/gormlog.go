// Package gormlog routes gorm's SQL logging into the global zerolog logger.
package gormlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"
)

// SlowThreshold marks statements slower than this as warnings.
const SlowThreshold = 200 * time.Millisecond

// Writer implements gormlogger.Writer on top of zerolog.
type Writer struct {
	Level zerolog.Level
}

// Printf writes one gorm log line. gorm prefixes the source location with a newline.
func (w Writer) Printf(format string, args ...any) {
	msg := strings.TrimSpace(strings.ReplaceAll(fmt.Sprintf(format, args...), "\n", " "))

	log.WithLevel(w.Level).Str("component", "gorm").Msg(msg)
}

// New returns a gorm logger. Dev mode logs every statement at debug level;
// otherwise only errors and slow statements are logged, as warnings.
func New(devMode bool) gormlogger.Interface {
	level, out := gormlogger.Warn, zerolog.WarnLevel
	if devMode {
		level, out = gormlogger.Info, zerolog.DebugLevel
	}

	return gormlogger.New(Writer{Level: out}, gormlogger.Config{
		SlowThreshold:             SlowThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
