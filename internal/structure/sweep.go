package structure

import (
	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/internal/market"
	"github.com/Alias1177/Sentinel/models"
)

// SweepDetector flags zones as swept on a confirmed breach-then-reversal.
// Breach alone is not enough: one of the recent ticks must have traded
// beyond the zone by the breach threshold while the current tick is already
// back through it.
type SweepDetector struct {
	breachPips float64
	lookback   int
	logger     zerolog.Logger
}

// NewSweepDetector creates a sweep detector
func NewSweepDetector(breachPips float64, lookback int, logger zerolog.Logger) *SweepDetector {
	return &SweepDetector{
		breachPips: breachPips,
		lookback:   lookback,
		logger:     logger.With().Str("component", "sweep").Logger(),
	}
}

// Check inspects every un-swept zone against the latest tick. The tick must
// already be in the buffer. On confirmation the zone is marked swept exactly
// once, a MarketSweep is recorded and an alert returned for publication.
// Caller must hold the state lock.
func (d *SweepDetector) Check(st *market.MarketState, tick models.Tick) []models.SweepAlert {
	price := tick.Mid()
	pip := models.PipSize(price)

	recent := st.RecentTicks(d.lookback + 1)
	if len(recent) < 2 {
		return nil
	}
	prior := recent[:len(recent)-1]

	var alerts []models.SweepAlert
	for _, z := range st.Zones {
		if z.Swept {
			continue
		}

		var confirmed bool
		var kind models.SweepKind

		switch z.Kind {
		case models.ZoneResistance:
			// Stops above resistance harvested, price back below the level.
			if price < z.Price+pip && breachedAbove(prior, z.Price+d.breachPips*pip) {
				confirmed = true
				kind = models.SweepBearish
			}
		case models.ZoneSupport:
			if price > z.Price-pip && breachedBelow(prior, z.Price-d.breachPips*pip) {
				confirmed = true
				kind = models.SweepBullish
			}
		}

		if !confirmed {
			continue
		}

		z.Swept = true
		z.SweptAt = tick.Timestamp
		st.AddSweep(models.MarketSweep{
			Symbol:    st.Symbol,
			Kind:      kind,
			Price:     z.Price,
			Timestamp: tick.Timestamp,
		})

		d.logger.Info().
			Str("symbol", st.Symbol).
			Str("kind", string(kind)).
			Float64("zone_price", z.Price).
			Float64("tick_price", price).
			Msg("Liquidity sweep confirmed")

		alerts = append(alerts, models.SweepAlert{
			Type:         "sweep",
			Symbol:       st.Symbol,
			SweepType:    kind,
			Price:        z.Price,
			ZoneStrength: z.Strength,
			Timestamp:    tick.Timestamp,
		})
	}

	return alerts
}

func breachedAbove(ticks []models.Tick, threshold float64) bool {
	for _, t := range ticks {
		if t.Mid() > threshold {
			return true
		}
	}
	return false
}

func breachedBelow(ticks []models.Tick, threshold float64) bool {
	for _, t := range ticks {
		if t.Mid() < threshold {
			return true
		}
	}
	return false
}
