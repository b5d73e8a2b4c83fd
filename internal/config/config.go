// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvConfigJSON names the environment variable holding a JSON document that
// overrides values read from main.toml.
const EnvConfigJSON = "LEGALDESK_CONFIG_JSON"

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetConfigType("toml")

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without and fills
// in defaults for the optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if c.Webserver.CheckAliveURI == "" {
		c.Webserver.CheckAliveURI = DefaultCheckAliveURI
	}

	c.DB.GormEngine = strings.ToLower(c.DB.GormEngine)
	if c.DB.GormEngine == "" {
		c.DB.GormEngine = EngineSQLite
	}

	if err := validator.New().Struct(c.DB); err != nil {
		return errors.Wrap(ErrUnsupportedGormEngine, err.Error())
	}

	return validateLedger(&c.Ledger)
}

func validateLedger(l *Ledger) error {
	if l.Tolerance == "" {
		l.Tolerance = DefaultTolerance
	}

	tolerance, err := decimal.NewFromString(l.Tolerance)
	if err != nil || tolerance.IsNegative() {
		return errors.Wrapf(ErrInvalidTolerance, "value %q", l.Tolerance)
	}

	if l.MaxRetries <= 0 {
		l.MaxRetries = DefaultMaxRetries
	}

	if l.RetryBackoff <= 0 {
		l.RetryBackoff = DefaultRetryBackoff
	}

	return nil
}
