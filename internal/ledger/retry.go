package ledger

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// inTx runs fn in a database transaction and reruns it while the summary
// version check fails, waiting with exponential backoff between attempts.
// Every other error ends the operation.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(s.backoff),
		backoff.WithMaxElapsedTime(0),
	)

	attempt := 0

	err := backoff.Retry(func() error {
		attempt++

		err := s.db.WithContext(ctx).Transaction(fn)
		if errors.Is(err, ErrConcurrentUpdateConflict) {
			conflictsTotal.Inc()
			log.Debug().Str("op", op).Int("attempt", attempt).Msg("earnings summary changed concurrently, retrying")

			return err
		}

		if err != nil {
			return backoff.Permanent(err)
		}

		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxRetries)), ctx))

	observe(op, err)

	if errors.Is(err, ErrConcurrentUpdateConflict) {
		log.Warn().Str("op", op).Int("attempts", attempt).Msg("gave up on earnings summary update")
	}

	return err
}
