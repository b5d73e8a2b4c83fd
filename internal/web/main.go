package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/ledger"
	fiberlog "github.com/legaldesk/legaldesk/internal/logger/adapter/fiber"
	"github.com/legaldesk/legaldesk/internal/rbac"
	"github.com/legaldesk/legaldesk/internal/web/handler"
	"github.com/legaldesk/legaldesk/internal/web/handler/authz"
	ledgerhandler "github.com/legaldesk/legaldesk/internal/web/handler/ledger"
	"github.com/legaldesk/legaldesk/internal/web/handler/roles"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address and blocks until it stops.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan error, 1)

	go func() {
		err := s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: !s.cfg.DevMode})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneFiber <- err
			return
		}

		doneFiber <- nil
	}()

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown fails the liveness check for ShutDownTime seconds, so load
// balancers drain this instance, then stops the server.
func (s *Service) Shutdown() {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether the liveness check passes.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

func (s *Service) checkAlive(c fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// New creates a new web service serving the engine and the ledger.
func New(cfg *config.Config, engine *rbac.Engine, ledgerService *ledger.Service) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if engine == nil || ledgerService == nil {
		panic("engine and ledger cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recoverer.New(recoverer.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(requestid.New())
	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: cfg.Webserver.CheckAliveURI,
	}))

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	checkAliveURI := cfg.Webserver.CheckAliveURI
	if checkAliveURI == "" {
		checkAliveURI = config.DefaultCheckAliveURI
	}

	app.Get(checkAliveURI, service.checkAlive)
	app.Get(handler.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	deps := &handler.Deps{
		Cfg:    cfg,
		Engine: engine,
		Guard:  rbac.NewMiddleware(engine, rbac.HeaderPrincipal),
		Ledger: ledgerService,
	}

	api := app.Group(handler.APIPrefix, rbac.RequestCache())

	authz.Handler.Init(api, deps)
	ledgerhandler.Handler.Init(api, deps)
	roles.Handler.Init(api, deps)

	return service
}
