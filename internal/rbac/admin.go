package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/db/models"
)

// AssignOptions refines a role assignment.
type AssignOptions struct {
	// Context scopes the assignment to resource instances. Nil means unscoped.
	Context *AssignmentContext
	// ExpiresAt makes the assignment inert from that instant on. Nil never expires.
	ExpiresAt *time.Time
}

func (e *Engine) withDB(db *gorm.DB) *Engine {
	clone := *e
	clone.db = db

	return &clone
}

// EnsureRole creates the role or updates its level and description.
func (e *Engine) EnsureRole(ctx context.Context, name string, level int, description string) (models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Role{}, ErrRoleNameEmpty
	}

	var role models.Role

	err := e.db.WithContext(ctx).
		Where(models.Role{Name: name}).
		Assign(map[string]any{"level": level, "description": description}).
		FirstOrCreate(&role).Error
	if err != nil {
		return models.Role{}, fmt.Errorf("failed to ensure role %s: %w", name, err)
	}

	return role, nil
}

// Role returns the role with the given name.
func (e *Engine) Role(ctx context.Context, name string) (models.Role, error) {
	var role models.Role

	err := e.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Role{}, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
	}

	if err != nil {
		return models.Role{}, fmt.Errorf("failed to load role %s: %w", name, err)
	}

	return role, nil
}

// Roles lists every role, most privileged first.
func (e *Engine) Roles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role

	if err := e.db.WithContext(ctx).Order("level DESC, name").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

// DefinePermission stores the capability if it does not exist yet.
func (e *Engine) DefinePermission(ctx context.Context, c Capability, description string) (models.Permission, error) {
	if err := e.vocab.Validate(c); err != nil {
		return models.Permission{}, err
	}

	var perm models.Permission

	err := e.db.WithContext(ctx).
		Where(models.Permission{Resource: c.Resource, Action: c.Action}).
		Attrs(models.Permission{Description: description}).
		FirstOrCreate(&perm).Error
	if err != nil {
		return models.Permission{}, fmt.Errorf("failed to define permission %s: %w", c, err)
	}

	return perm, nil
}

// SyncVocabulary defines a permission row for every capability in the vocabulary.
func (e *Engine) SyncVocabulary(ctx context.Context) error {
	for _, c := range e.vocab.Capabilities() {
		if _, err := e.DefinePermission(ctx, c, ""); err != nil {
			return err
		}
	}

	return nil
}

// Grant gives the named role the capability. Granting twice is a no-op.
func (e *Engine) Grant(ctx context.Context, roleName string, c Capability) error {
	role, err := e.Role(ctx, roleName)
	if err != nil {
		return err
	}

	perm, err := e.DefinePermission(ctx, c, "")
	if err != nil {
		return err
	}

	err = e.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error
	if err != nil {
		return fmt.Errorf("failed to grant %s to %s: %w", c, roleName, err)
	}

	invalidate(ctx)

	return nil
}

// Revoke removes the capability from the named role.
func (e *Engine) Revoke(ctx context.Context, roleName string, c Capability) error {
	role, err := e.Role(ctx, roleName)
	if err != nil {
		return err
	}

	res := e.db.WithContext(ctx).
		Where("role_id = ? AND permission_id IN (?)", role.ID,
			e.db.Model(&models.Permission{}).Select("id").Where("resource = ? AND action = ?", c.Resource, c.Action)).
		Delete(&models.RolePermission{})
	if res.Error != nil {
		return fmt.Errorf("failed to revoke %s from %s: %w", c, roleName, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s on %s", ErrGrantNotFound, c, roleName)
	}

	invalidate(ctx)

	return nil
}

// Assign binds the principal to the named role. Assigning again replaces the
// context and expiry of the existing assignment.
func (e *Engine) Assign(ctx context.Context, p Principal, roleName string, opts AssignOptions) (models.RoleAssignment, error) {
	if err := p.Validate(); err != nil {
		return models.RoleAssignment{}, err
	}

	if opts.Context != nil {
		if err := opts.Context.validate(e.vocab); err != nil {
			return models.RoleAssignment{}, err
		}
	}

	raw, err := encodeContext(opts.Context)
	if err != nil {
		return models.RoleAssignment{}, err
	}

	db := e.db.WithContext(ctx)

	found, err := principalExists(db, p)
	if err != nil {
		return models.RoleAssignment{}, err
	}

	if !found {
		return models.RoleAssignment{}, fmt.Errorf("%w: %s", ErrPrincipalNotFound, p)
	}

	role, err := e.Role(ctx, roleName)
	if err != nil {
		return models.RoleAssignment{}, err
	}

	a := models.RoleAssignment{
		PrincipalID:   p.ID,
		PrincipalType: p.Type,
		RoleID:        role.ID,
		Context:       raw,
		ExpiresAt:     opts.ExpiresAt,
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "principal_id"}, {Name: "principal_type"}, {Name: "role_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"context", "expires_at", "updated_at"}),
	}).Create(&a).Error
	if err != nil {
		return models.RoleAssignment{}, fmt.Errorf("failed to assign %s to %s: %w", roleName, p, err)
	}

	var stored models.RoleAssignment

	err = db.Preload("Role").
		Where("principal_id = ? AND principal_type = ? AND role_id = ?", p.ID, p.Type, role.ID).
		First(&stored).Error
	if err != nil {
		return models.RoleAssignment{}, fmt.Errorf("failed to reload assignment: %w", err)
	}

	invalidate(ctx)

	log.Info().Stringer("principal", p).Str("role", roleName).Msg("role assigned")

	return stored, nil
}

// Unassign removes the principal's assignment to the named role.
func (e *Engine) Unassign(ctx context.Context, p Principal, roleName string) error {
	if err := p.Validate(); err != nil {
		return err
	}

	role, err := e.Role(ctx, roleName)
	if err != nil {
		return err
	}

	res := e.db.WithContext(ctx).
		Where("principal_id = ? AND principal_type = ? AND role_id = ?", p.ID, p.Type, role.ID).
		Delete(&models.RoleAssignment{})
	if res.Error != nil {
		return fmt.Errorf("failed to unassign %s from %s: %w", roleName, p, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s on %s", ErrAssignmentNotFound, roleName, p)
	}

	invalidate(ctx)

	return nil
}

// Assignments lists every assignment of the principal, expired ones included.
func (e *Engine) Assignments(ctx context.Context, p Principal) ([]models.RoleAssignment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var out []models.RoleAssignment

	err := e.db.WithContext(ctx).Preload("Role").
		Where("principal_id = ? AND principal_type = ?", p.ID, p.Type).
		Order("role_id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments of %s: %w", p, err)
	}

	return out, nil
}

// SweepExpired deletes assignments that expired at or before now. Checks never
// depend on it; expired rows are ignored whether swept or not.
func (e *Engine) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	var candidates []models.RoleAssignment

	db := e.db.WithContext(ctx)

	if err := db.Where("expires_at IS NOT NULL").Find(&candidates).Error; err != nil {
		return 0, fmt.Errorf("failed to load expiring assignments: %w", err)
	}

	ids := make([]uint64, 0, len(candidates))

	for i := range candidates {
		if candidates[i].Expired(now) {
			ids = append(ids, candidates[i].ID)
		}
	}

	if len(ids) == 0 {
		return 0, nil
	}

	res := db.Where("id IN ?", ids).Delete(&models.RoleAssignment{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired assignments: %w", res.Error)
	}

	invalidate(ctx)

	log.Info().Int64("deleted", res.RowsAffected).Msg("expired role assignments swept")

	return res.RowsAffected, nil
}

// SeedRoles defines the vocabulary and makes sure every seeded role exists
// with at least its configured permissions. It runs in one transaction.
func (e *Engine) SeedRoles(ctx context.Context, seeds []config.RoleSeed) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		te := e.withDB(tx)

		if err := te.SyncVocabulary(ctx); err != nil {
			return err
		}

		for _, seed := range seeds {
			if _, err := te.EnsureRole(ctx, seed.Name, seed.Level, seed.Description); err != nil {
				return err
			}

			for _, name := range seed.Permissions {
				c, err := e.vocab.Parse(name)
				if err != nil {
					return fmt.Errorf("role %s: %w", seed.Name, err)
				}

				if err := te.Grant(ctx, seed.Name, c); err != nil {
					return err
				}
			}

			log.Debug().Str("role", seed.Name).Int("permissions", len(seed.Permissions)).Msg("role seeded")
		}

		return nil
	})
}
