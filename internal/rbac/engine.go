package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/legaldesk/legaldesk/internal/db/models"
)

// Engine answers authorization questions from the role and assignment tables.
type Engine struct {
	db    *gorm.DB
	vocab *Vocabulary
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine over db that accepts the capabilities in vocab.
func NewEngine(db *gorm.DB, vocab *Vocabulary, opts ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if vocab == nil {
		return nil, ErrVocabularyRequired
	}

	e := &Engine{db: db, vocab: vocab, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Vocabulary returns the vocabulary the engine validates against.
func (e *Engine) Vocabulary() *Vocabulary {
	return e.vocab
}

type checkOptions struct {
	instance string
}

// CheckOption refines a single check.
type CheckOption func(*checkOptions)

// WithInstance checks the capability against one resource instance, so that
// assignment scopes for the resource apply.
func WithInstance(id string) CheckOption {
	return func(o *checkOptions) {
		o.instance = id
	}
}

// grant is one live assignment with the permissions of its role.
type grant struct {
	role  string
	scope AssignmentContext
	caps  map[Capability]struct{}
}

// resolution is the result of looking up a principal.
type resolution struct {
	found  bool
	grants []grant
}

// Authorize decides whether principal may perform capability.
// An invalid principal yields ErrMissingType or ErrInvalidPrincipalType.
// A principal without a row is denied without error. Store failures deny and
// return the error.
func (e *Engine) Authorize(ctx context.Context, p Principal, c Capability, opts ...CheckOption) (Decision, error) {
	d, err := e.authorize(ctx, p, c, opts...)
	observe(d)

	switch {
	case err != nil:
		log.Warn().Err(err).Stringer("principal", p).Stringer("capability", c).
			Str("reason", string(d.Reason)).Msg("authorization failed closed")
	default:
		log.Debug().Stringer("principal", p).Stringer("capability", c).
			Str("decision", d.String()).Str("reason", string(d.Reason)).Msg("authorization decision")
	}

	return d, err
}

func (e *Engine) authorize(ctx context.Context, p Principal, c Capability, opts ...CheckOption) (Decision, error) {
	if err := p.Validate(); err != nil {
		return deny(ReasonInvalidPrincipal), err
	}

	if err := e.vocab.Validate(c); err != nil {
		return deny(ReasonUnknownCapability), err
	}

	var o checkOptions
	for _, opt := range opts {
		opt(&o)
	}

	res, err := e.resolve(ctx, p)
	if err != nil {
		return deny(ReasonStoreError), err
	}

	if !res.found {
		return deny(ReasonPrincipalNotFound), nil
	}

	if len(res.grants) == 0 {
		return deny(ReasonNoAssignment), nil
	}

	scoped := false

	for _, g := range res.grants {
		if _, ok := g.caps[c]; !ok {
			continue
		}

		if g.scope.Permits(c.Resource, o.instance) {
			return Decision{Allowed: true, Reason: ReasonGranted, Role: g.role}, nil
		}

		scoped = true
	}

	if scoped {
		return deny(ReasonOutOfScope), nil
	}

	return deny(ReasonNoGrant), nil
}

// Can is Authorize reduced to a boolean. Errors count as deny.
func (e *Engine) Can(ctx context.Context, p Principal, c Capability, opts ...CheckOption) bool {
	d, err := e.Authorize(ctx, p, c, opts...)

	return err == nil && d.Allowed
}

// Enforce returns nil when allowed and an error wrapping ErrAccessDenied otherwise.
func (e *Engine) Enforce(ctx context.Context, p Principal, c Capability, opts ...CheckOption) error {
	d, err := e.Authorize(ctx, p, c, opts...)
	if err != nil {
		return err
	}

	if !d.Allowed {
		return fmt.Errorf("%w: %s lacks %s (%s)", ErrAccessDenied, p, c, d.Reason)
	}

	return nil
}

// AuthorizeAny reports whether principal holds at least one of caps.
func (e *Engine) AuthorizeAny(ctx context.Context, p Principal, caps []Capability, opts ...CheckOption) (bool, error) {
	if len(caps) == 0 {
		return false, nil
	}

	ctx = WithRequestCache(ctx)

	for _, c := range caps {
		d, err := e.Authorize(ctx, p, c, opts...)
		if err != nil {
			return false, err
		}

		if d.Allowed {
			return true, nil
		}
	}

	return false, nil
}

// AuthorizeAll reports whether principal holds every one of caps.
func (e *Engine) AuthorizeAll(ctx context.Context, p Principal, caps []Capability, opts ...CheckOption) (bool, error) {
	if len(caps) == 0 {
		return true, nil
	}

	ctx = WithRequestCache(ctx)

	for _, c := range caps {
		d, err := e.Authorize(ctx, p, c, opts...)
		if err != nil {
			return false, err
		}

		if !d.Allowed {
			return false, nil
		}
	}

	return true, nil
}

// ListPermissions returns the capabilities granted by the principal's live
// assignments, ignoring instance scopes. An unknown principal has none.
func (e *Engine) ListPermissions(ctx context.Context, p Principal) ([]Capability, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res, err := e.resolve(ctx, p)
	if err != nil {
		return nil, err
	}

	set := make(map[Capability]struct{})

	for _, g := range res.grants {
		for c := range g.caps {
			set[c] = struct{}{}
		}
	}

	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}

	sortCapabilities(out)

	return out, nil
}

func (e *Engine) resolve(ctx context.Context, p Principal) (*resolution, error) {
	cache := cacheFrom(ctx)
	if cache != nil {
		if r, ok := cache.get(p); ok {
			return r, nil
		}
	}

	r, err := e.load(ctx, p)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		cache.put(p, r)
	}

	return r, nil
}

func (e *Engine) load(ctx context.Context, p Principal) (*resolution, error) {
	db := e.db.WithContext(ctx)

	found, err := principalExists(db, p)
	if err != nil {
		return nil, err
	}

	if !found {
		return &resolution{}, nil
	}

	var assignments []models.RoleAssignment

	err = db.Preload("Role").
		Where("principal_id = ? AND principal_type = ?", p.ID, p.Type).
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role assignments: %w", err)
	}

	now := e.now()
	res := &resolution{found: true}
	byRole := make(map[uint]int)

	for i := range assignments {
		a := &assignments[i]
		if a.Expired(now) {
			continue
		}

		scope, err := decodeContext(a.Context)
		if err != nil {
			log.Warn().Err(err).Uint64("assignment_id", a.ID).Stringer("principal", p).
				Msg("skipping assignment with unreadable context")

			continue
		}

		byRole[a.RoleID] = len(res.grants)
		res.grants = append(res.grants, grant{
			role:  a.Role.Name,
			scope: scope,
			caps:  make(map[Capability]struct{}),
		})
	}

	if len(byRole) == 0 {
		return res, nil
	}

	roleIDs := make([]uint, 0, len(byRole))
	for id := range byRole {
		roleIDs = append(roleIDs, id)
	}

	var rows []struct {
		RoleID   uint
		Resource string
		Action   string
	}

	err = db.Table("role_permissions").
		Select("role_permissions.role_id, permissions.resource, permissions.action").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id IN ?", roleIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}

	for _, row := range rows {
		res.grants[byRole[row.RoleID]].caps[Capability{Resource: row.Resource, Action: row.Action}] = struct{}{}
	}

	return res, nil
}

func principalExists(db *gorm.DB, p Principal) (bool, error) {
	var model any

	switch p.Type {
	case models.PrincipalUser:
		model = &models.User{}
	case models.PrincipalLawyer:
		model = &models.Lawyer{}
	default:
		return false, ErrInvalidPrincipalType
	}

	var n int64
	if err := db.Model(model).Where("id = ?", p.ID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to look up principal %s: %w", p, err)
	}

	return n > 0, nil
}
