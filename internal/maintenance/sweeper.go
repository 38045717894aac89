package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/internal/market"
)

// Sweeper periodically evicts stale zones and expired sweeps. It takes the
// same per-instrument locks as ingestion but holds each one only for the
// O(zones) purge.
type Sweeper struct {
	registry *market.Registry
	interval time.Duration
	zoneTTL  time.Duration
	sweepTTL time.Duration
	logger   zerolog.Logger
}

// NewSweeper creates a maintenance sweeper
func NewSweeper(registry *market.Registry, interval, zoneTTL, sweepTTL time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		registry: registry,
		interval: interval,
		zoneTTL:  zoneTTL,
		sweepTTL: sweepTTL,
		logger:   logger.With().Str("component", "maintenance").Logger(),
	}
}

// Run sweeps on a fixed interval until the context is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(time.Now().UTC())
		}
	}
}

// Sweep purges every tracked instrument once
func (s *Sweeper) Sweep(now time.Time) {
	total := 0
	for _, symbol := range s.registry.Symbols() {
		st := s.registry.Get(symbol)
		if st == nil {
			continue
		}
		st.Lock()
		total += st.PurgeStale(now, s.zoneTTL, s.sweepTTL)
		st.Unlock()
	}
	if total > 0 {
		s.logger.Info().Int("evicted", total).Msg("Maintenance sweep complete")
	}
}
