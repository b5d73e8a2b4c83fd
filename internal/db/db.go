// Package db opens the relational store shared by the authorization engine and the ledger.
package db

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/db/dsn"
	"github.com/legaldesk/legaldesk/internal/db/models"
	"github.com/legaldesk/legaldesk/internal/logger/adapter/gormlog"
)

// ErrConfigNil is returned when no configuration was handed to Open.
var ErrConfigNil = errors.New("config is nil")

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		return postgres.Open(dsn.Create(cfg))
	case config.EngineMySQL:
		return gormmysql.Open(dsn.Create(cfg))
	default:
		return sqlite.Open(dsn.Create(cfg))
	}
}

// Open connects to the configured database. Duplicate key violations are
// translated to gorm.ErrDuplicatedKey so callers can match them with errors.Is.
func Open(cfg *config.Config) (*gorm.DB, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	db, err := gorm.Open(Dialector(cfg), &gorm.Config{
		TranslateError: true,
		Logger:         gormlog.New(cfg.DevMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// sqlite allows a single writer; one connection avoids SQLITE_BUSY between pooled handles.
	if cfg.DB.GormEngine == config.EngineSQLite {
		sqlDB, errDB := db.DB()
		if errDB != nil {
			return nil, fmt.Errorf("failed to access sql pool: %w", errDB)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	log.Info().Str("engine", cfg.DB.GormEngine).Str("name", cfg.DB.Name).Msg("database connected")

	return db, nil
}

// Migrate creates or updates every table of the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
