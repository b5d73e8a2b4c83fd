// Package daemon wires the store, the domain services and the web service together.
package daemon

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/db"
	"github.com/legaldesk/legaldesk/internal/ledger"
	"github.com/legaldesk/legaldesk/internal/rbac"
	"github.com/legaldesk/legaldesk/internal/web"
)

// ErrConfigNil is returned when no configuration is given.
var ErrConfigNil = errors.New("config is nil")

// Services bundles the store and the services built on it.
type Services struct {
	Cfg    *config.Config
	DB     *gorm.DB
	Engine *rbac.Engine
	Ledger *ledger.Service
}

// Bootstrap opens the database and builds the authorization engine and the ledger.
// It neither migrates nor seeds.
func Bootstrap(cfg *config.Config) (*Services, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}

	return assemble(cfg, gdb)
}

// assemble builds the services on an open pool and closes the pool when that fails.
func assemble(cfg *config.Config, gdb *gorm.DB) (*Services, error) {
	services := &Services{Cfg: cfg, DB: gdb}

	if err := services.build(); err != nil {
		_ = services.Close()

		return nil, err
	}

	return services, nil
}

func (s *Services) build() error {
	vocab, err := rbac.NewVocabulary(s.Cfg.RBAC.Vocabulary)
	if err != nil {
		return errors.Wrap(err, "invalid rbac vocabulary")
	}

	if s.Engine, err = rbac.NewEngine(s.DB, vocab); err != nil {
		return err //nolint:wrapcheck
	}

	if s.Ledger, err = ledger.NewService(s.DB, s.Cfg.Ledger); err != nil {
		return err //nolint:wrapcheck
	}

	return nil
}

// Migrate creates the schema and seeds the configured roles.
func (s *Services) Migrate(ctx context.Context) error {
	if err := db.Migrate(s.DB.WithContext(ctx)); err != nil {
		return err
	}

	return seed(ctx, s)
}

// Close releases the database pool.
func (s *Services) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return errors.Wrap(err, "failed to access sql pool")
	}

	return sqlDB.Close() //nolint:wrapcheck
}

// Daemon represents the main application daemon.
type Daemon struct {
	*Services
	webService *web.Service
}

// Start serves HTTP until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	addr := fmt.Sprintf(":%d", d.Cfg.Webserver.Port)
	log.Info().Str("addr", addr).Str("url", d.Cfg.Webserver.URL).Msg("starting web service")

	return d.webService.Start(addr)
}

// New creates a Daemon: the database is migrated and seeded before the web service is built.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	services, err := Bootstrap(cfg)
	if err != nil {
		return nil, err
	}

	if err := services.Migrate(ctx); err != nil {
		_ = services.Close()

		return nil, err
	}

	return &Daemon{
		Services:   services,
		webService: web.New(cfg, services.Engine, services.Ledger),
	}, nil
}
