package logger

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

var (
	// ErrAppNameIsEmpty is returned when [Log] AppName is not set.
	ErrAppNameIsEmpty = errors.New("log: AppName is required")

	// ErrServiceNameIsEmpty is returned when [Log] ServiceName is not set.
	ErrServiceNameIsEmpty = errors.New("log: ServiceName is required")
)

// ErrorHandler reports events zerolog failed to write. It must not log through zerolog itself.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "legaldesk: dropped log event: %v\n", err)
}
