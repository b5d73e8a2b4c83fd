package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnsupportedGormEngine error if config db.gormengine names no known driver.
	ErrUnsupportedGormEngine = errors.New("toml config db.gormengine must be one of sqlite, mysql, postgres")

	// ErrInvalidTolerance error if config ledger.tolerance is not a non-negative decimal.
	ErrInvalidTolerance = errors.New("toml config ledger.tolerance must be a non-negative decimal")
)
