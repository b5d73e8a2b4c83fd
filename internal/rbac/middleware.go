package rbac

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/legaldesk/legaldesk/internal/db/models"
)

const (
	// HeaderPrincipalID carries the authenticated principal id set by the gateway.
	HeaderPrincipalID = "X-Principal-ID"
	// HeaderPrincipalType carries the principal type, user or lawyer.
	HeaderPrincipalType = "X-Principal-Type"

	localsPrincipal = "rbac.principal"
)

// ErrNoPrincipal is returned by a PrincipalResolver when the request is anonymous.
var ErrNoPrincipal = errors.New("rbac: request carries no principal")

// PrincipalResolver extracts the authenticated principal from a request.
// Authentication itself happens upstream.
type PrincipalResolver func(c fiber.Ctx) (Principal, error)

// HeaderPrincipal reads the principal from the gateway headers. The type is
// passed through unchecked so that the engine reports a missing type.
func HeaderPrincipal(c fiber.Ctx) (Principal, error) {
	rawID := strings.TrimSpace(c.Get(HeaderPrincipalID))
	if rawID == "" {
		return Principal{}, ErrNoPrincipal
	}

	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return Principal{}, ErrNoPrincipal
	}

	return Principal{
		ID:   id,
		Type: models.PrincipalType(strings.ToLower(strings.TrimSpace(c.Get(HeaderPrincipalType)))),
	}, nil
}

// CurrentPrincipal returns the principal stored by the middleware.
func CurrentPrincipal(c fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(localsPrincipal).(Principal)

	return p, ok
}

// RequestCache attaches a grant cache to the request context, so every
// check made while serving the request reads the store once per principal.
func RequestCache() fiber.Handler {
	return func(c fiber.Ctx) error {
		c.SetContext(WithRequestCache(c.Context()))

		return c.Next()
	}
}

// Middleware guards fiber routes with the engine.
type Middleware struct {
	engine  *Engine
	resolve PrincipalResolver
}

// NewMiddleware creates route guards. A nil resolver reads the gateway headers.
func NewMiddleware(engine *Engine, resolve PrincipalResolver) *Middleware {
	if resolve == nil {
		resolve = HeaderPrincipal
	}

	return &Middleware{engine: engine, resolve: resolve}
}

// RequirePermission requires capability on the resource as a whole.
func (m *Middleware) RequirePermission(capability Capability) fiber.Handler {
	return m.guard(capability.String(), func(c fiber.Ctx, p Principal) (bool, error) {
		d, err := m.engine.Authorize(c.Context(), p, capability)

		return d.Allowed, err
	})
}

// RequireInstancePermission requires capability on the instance named by the route parameter.
func (m *Middleware) RequireInstancePermission(capability Capability, param string) fiber.Handler {
	return m.guard(capability.String(), func(c fiber.Ctx, p Principal) (bool, error) {
		d, err := m.engine.Authorize(c.Context(), p, capability, WithInstance(c.Params(param)))

		return d.Allowed, err
	})
}

// RequireAny requires at least one of caps.
func (m *Middleware) RequireAny(caps ...Capability) fiber.Handler {
	return m.guard(joinCapabilities(caps), func(c fiber.Ctx, p Principal) (bool, error) {
		return m.engine.AuthorizeAny(c.Context(), p, caps)
	})
}

// RequireAll requires every one of caps.
func (m *Middleware) RequireAll(caps ...Capability) fiber.Handler {
	return m.guard(joinCapabilities(caps), func(c fiber.Ctx, p Principal) (bool, error) {
		return m.engine.AuthorizeAll(c.Context(), p, caps)
	})
}

func (m *Middleware) guard(label string, check func(fiber.Ctx, Principal) (bool, error)) fiber.Handler {
	return func(c fiber.Ctx) error {
		p, err := m.resolve(c)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("unauthenticated request")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		allowed, err := check(c, p)

		switch {
		case errors.Is(err, ErrMissingType), errors.Is(err, ErrInvalidPrincipalType):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			log.Error().Err(err).Stringer("principal", p).Str("permission", label).
				Msg("failed to check permission")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		case !allowed:
			log.Warn().Stringer("principal", p).Str("permission", label).
				Msg("principal lacks required permission")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}

		c.Locals(localsPrincipal, p)

		return c.Next()
	}
}

func joinCapabilities(caps []Capability) string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}

	return strings.Join(names, ",")
}
