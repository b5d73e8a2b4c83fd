// Package authz exposes the authorization engine over HTTP.
package authz

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/legaldesk/legaldesk/internal/db/models"
	"github.com/legaldesk/legaldesk/internal/rbac"
	"github.com/legaldesk/legaldesk/internal/web/handler"
)

const (
	// CheckPath answers a single authorization question.
	CheckPath = "/authz/check"

	// PermissionsPath lists a principal's permissions.
	PermissionsPath = "/principals/:type/:id/permissions"
)

// Service is the authorization handler service.
type Service struct {
	engine    *rbac.Engine
	validator *validator.Validate
}

// CheckRequest asks whether a principal holds a capability.
type CheckRequest struct {
	Principal struct {
		ID   uint64 `json:"id" validate:"required"`
		Type string `json:"type"`
	} `json:"principal"`
	Capability string `json:"capability" validate:"required"`
	Instance   string `json:"instance,omitempty" validate:"omitempty,max=64"`
}

// PermissionsResponse lists a principal's capabilities.
type PermissionsResponse struct {
	Principal   rbac.Principal `json:"principal"`
	Permissions []string       `json:"permissions"`
}

var (
	// Handler is the authorization handler.
	Handler = Service{}
)

// Init registers the routes on router.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) {
	if router == nil || deps == nil || deps.Engine == nil || deps.Guard == nil {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.engine = deps.Engine
	s.validator = validator.New(validator.WithRequiredStructEnabled())

	router.Post(CheckPath, s.Check)
	router.Get(PermissionsPath, deps.Guard.RequirePermission(rbac.PermRBACRead), s.Permissions)
}

// Check answers POST /authz/check. A deny is a 200 with allowed false.
func (s *Service) Check(c fiber.Ctx) error {
	var req CheckRequest
	if err := c.Bind().Body(&req); err != nil {
		return handler.BadRequest(c, "malformed request body")
	}

	if err := s.validator.Struct(&req); err != nil {
		return handler.BadRequest(c, err.Error())
	}

	capability, err := s.engine.Vocabulary().Parse(req.Capability)
	if err != nil {
		return handler.Error(c, err)
	}

	p := rbac.Principal{ID: req.Principal.ID, Type: models.PrincipalType(req.Principal.Type)}

	var opts []rbac.CheckOption
	if req.Instance != "" {
		opts = append(opts, rbac.WithInstance(req.Instance))
	}

	d, err := s.engine.Authorize(c.Context(), p, capability, opts...)
	if errors.Is(err, rbac.ErrMissingType) || errors.Is(err, rbac.ErrInvalidPrincipalType) {
		return handler.Error(c, err)
	}

	if err != nil {
		log.Error().Err(err).Stringer("principal", p).Stringer("capability", capability).Msg("authorization check failed")

		return c.Status(fiber.StatusInternalServerError).JSON(d)
	}

	return c.JSON(d)
}

// Permissions answers GET /principals/:type/:id/permissions.
func (s *Service) Permissions(c fiber.Ctx) error {
	id := fiber.Params[uint64](c, "id")
	if id == 0 {
		return handler.BadRequest(c, "invalid principal id")
	}

	p := rbac.Principal{ID: id, Type: models.PrincipalType(c.Params("type"))}

	caps, err := s.engine.ListPermissions(c.Context(), p)
	if err != nil {
		return handler.Error(c, err)
	}

	names := make([]string, len(caps))
	for i, capability := range caps {
		names[i] = capability.String()
	}

	return c.JSON(PermissionsResponse{Principal: p, Permissions: names})
}
