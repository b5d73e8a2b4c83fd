package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/ledger"
	"github.com/legaldesk/legaldesk/internal/rbac"
)

// Deps are the services handlers are built from.
type Deps struct {
	Cfg    *config.Config
	Engine *rbac.Engine
	Guard  *rbac.Middleware
	Ledger *ledger.Service
}

// Service is the interface for a web handler service.
type Service interface {
	Init(router fiber.Router, deps *Deps)
}
