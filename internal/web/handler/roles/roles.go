// Package roles exposes role, grant and assignment administration over HTTP.
package roles

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/legaldesk/legaldesk/internal/db/models"
	"github.com/legaldesk/legaldesk/internal/rbac"
	"github.com/legaldesk/legaldesk/internal/web/handler"
)

const (
	// RolesPath lists roles.
	RolesPath = "/rbac/roles"

	// RolePath creates or updates a role.
	RolePath = "/rbac/roles/:name"

	// GrantsPath grants a capability to a role.
	GrantsPath = "/rbac/roles/:name/permissions"

	// GrantPath revokes a capability from a role.
	GrantPath = "/rbac/roles/:name/permissions/:capability"

	// AssignmentsPath lists a principal's assignments.
	AssignmentsPath = "/principals/:type/:id/assignments"

	// AssignmentPath assigns or unassigns a role.
	AssignmentPath = "/principals/:type/:id/assignments/:role"
)

// Service is the role administration handler service.
type Service struct {
	engine    *rbac.Engine
	validator *validator.Validate
}

// RoleRequest is the body of PUT /rbac/roles/:name.
type RoleRequest struct {
	Level       int    `json:"level" validate:"gte=0"`
	Description string `json:"description" validate:"max=255"`
}

// GrantRequest is the body of POST /rbac/roles/:name/permissions.
type GrantRequest struct {
	Capability string `json:"capability" validate:"required"`
}

// AssignRequest is the body of PUT /principals/:type/:id/assignments/:role.
type AssignRequest struct {
	Scopes     []rbac.Scope   `json:"scopes,omitempty" validate:"dive"`
	Attributes map[string]any `json:"attributes,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

// RoleView is the API representation of a role.
type RoleView struct {
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Description string `json:"description,omitempty"`
}

// AssignmentView is the API representation of a role assignment.
type AssignmentView struct {
	Principal rbac.Principal         `json:"principal"`
	Role      string                 `json:"role"`
	Context   rbac.AssignmentContext `json:"context"`
	ExpiresAt *time.Time             `json:"expires_at,omitempty"`
	Expired   bool                   `json:"expired"`
}

var (
	// Handler is the role administration handler.
	Handler = Service{}
)

// Init registers the routes on router. Reads need rbac.read, changes rbac.manage.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) {
	if router == nil || deps == nil || deps.Engine == nil || deps.Guard == nil {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.engine = deps.Engine
	s.validator = validator.New(validator.WithRequiredStructEnabled())

	read := deps.Guard.RequirePermission(rbac.PermRBACRead)
	manage := deps.Guard.RequirePermission(rbac.PermRBACManage)

	router.Get(RolesPath, read, s.Roles)
	router.Put(RolePath, manage, s.EnsureRole)
	router.Post(GrantsPath, manage, s.Grant)
	router.Delete(GrantPath, manage, s.Revoke)
	router.Get(AssignmentsPath, read, s.Assignments)
	router.Put(AssignmentPath, manage, s.Assign)
	router.Delete(AssignmentPath, manage, s.Unassign)
}

// Roles answers GET /rbac/roles.
func (s *Service) Roles(c fiber.Ctx) error {
	roles, err := s.engine.Roles(c.Context())
	if err != nil {
		return handler.Error(c, err)
	}

	out := make([]RoleView, len(roles))
	for i := range roles {
		out[i] = roleView(&roles[i])
	}

	return c.JSON(out)
}

// EnsureRole answers PUT /rbac/roles/:name.
func (s *Service) EnsureRole(c fiber.Ctx) error {
	var req RoleRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	role, err := s.engine.EnsureRole(c.Context(), c.Params("name"), req.Level, req.Description)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(roleView(&role))
}

// Grant answers POST /rbac/roles/:name/permissions.
func (s *Service) Grant(c fiber.Ctx) error {
	var req GrantRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	capability, err := s.engine.Vocabulary().Parse(req.Capability)
	if err != nil {
		return handler.Error(c, err)
	}

	if err := s.engine.Grant(c.Context(), c.Params("name"), capability); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Revoke answers DELETE /rbac/roles/:name/permissions/:capability.
func (s *Service) Revoke(c fiber.Ctx) error {
	capability, err := s.engine.Vocabulary().Parse(c.Params("capability"))
	if err != nil {
		return handler.Error(c, err)
	}

	if err := s.engine.Revoke(c.Context(), c.Params("name"), capability); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Assignments answers GET /principals/:type/:id/assignments.
func (s *Service) Assignments(c fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	assignments, err := s.engine.Assignments(c.Context(), p)
	if err != nil {
		return handler.Error(c, err)
	}

	now := time.Now()

	out := make([]AssignmentView, 0, len(assignments))

	for i := range assignments {
		v, err := assignmentView(p, &assignments[i], now)
		if err != nil {
			return handler.Error(c, err)
		}

		out = append(out, v)
	}

	return c.JSON(out)
}

// Assign answers PUT /principals/:type/:id/assignments/:role. Assigning again
// replaces the scopes and the expiry.
func (s *Service) Assign(c fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req AssignRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	a, err := s.engine.Assign(c.Context(), p, c.Params("role"), rbac.AssignOptions{
		Context:   &rbac.AssignmentContext{Scopes: req.Scopes, Attributes: req.Attributes},
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	v, err := assignmentView(p, &a, time.Now())
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(v)
}

// Unassign answers DELETE /principals/:type/:id/assignments/:role.
func (s *Service) Unassign(c fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := s.engine.Unassign(c.Context(), p, c.Params("role")); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) bind(c fiber.Ctx, out any) error {
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(out); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
		}
	}

	if err := s.validator.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return nil
}

func principal(c fiber.Ctx) (rbac.Principal, error) {
	id := fiber.Params[uint64](c, "id")
	if id == 0 {
		return rbac.Principal{}, fiber.NewError(fiber.StatusBadRequest, "invalid principal id")
	}

	return rbac.Principal{ID: id, Type: models.PrincipalType(c.Params("type"))}, nil
}

func roleView(r *models.Role) RoleView {
	return RoleView{Name: r.Name, Level: r.Level, Description: r.Description}
}

func assignmentView(p rbac.Principal, a *models.RoleAssignment, now time.Time) (AssignmentView, error) {
	ctx, err := rbac.ContextOf(a)
	if err != nil {
		return AssignmentView{}, err //nolint:wrapcheck
	}

	return AssignmentView{
		Principal: p,
		Role:      a.Role.Name,
		Context:   ctx,
		ExpiresAt: a.ExpiresAt,
		Expired:   a.Expired(now),
	}, nil
}
