// Package retention removes deal records that have aged past the horizon.
// Deals are not demoted when they stop qualifying; they simply stop being
// rewritten and expire here once stale.
package retention

import (
	"fmt"
	"log/slog"
	"time"

	"bricksync/internal/model"
	"bricksync/internal/store"
)

// DefaultHorizon is the maximum age a deal record may reach.
const DefaultHorizon = 24 * time.Hour

// Sweeper deletes deals whose last update is older than the horizon.
type Sweeper struct {
	deals *store.DealStore
	log   *slog.Logger
	now   func() time.Time
}

func NewSweeper(deals *store.DealStore, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{deals: deals, log: log, now: time.Now}
}

// Sweep deletes deals last updated before now-horizon, in chunked batches.
// Returns the number of deleted records.
func (s *Sweeper) Sweep(horizon time.Duration) (int, error) {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	cutoff := s.now().Add(-horizon).Unix()

	var stale []string
	err := s.deals.Each(func(key string, deal model.Deal) error {
		if deal.LastUpdated < cutoff {
			stale = append(stale, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan deals: %w", err)
	}
	if len(stale) == 0 {
		s.log.Info("retention_sweep_noop", "cutoff", cutoff)
		return 0, nil
	}
	if err := s.deals.DeleteKeys(stale); err != nil {
		return 0, fmt.Errorf("delete stale deals: %w", err)
	}
	s.log.Info("retention_sweep_done", "deleted", len(stale), "cutoff", cutoff)
	return len(stale), nil
}
