package daemon

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// seed defines the vocabulary and the configured roles, then drops assignments
// that have already expired.
func seed(ctx context.Context, s *Services) error {
	if err := s.Engine.SeedRoles(ctx, s.Cfg.RBAC.Roles); err != nil {
		return errors.Wrap(err, "failed to seed roles")
	}

	swept, err := s.Engine.SweepExpired(ctx, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to sweep expired assignments")
	}

	log.Info().Int("roles", len(s.Cfg.RBAC.Roles)).Int64("swept", swept).Msg("rbac seeded")

	return nil
}
