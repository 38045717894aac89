package protect

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/internal/calculate"
	"github.com/Alias1177/Sentinel/internal/market"
	"github.com/Alias1177/Sentinel/models"
)

// Fixed factor weights. They sum to 1 so the fold below keeps the score on
// the same [1,10] scale as the individual factors.
const (
	weightZoneProximity = 0.30
	weightRecentSweep   = 0.25
	weightVolatility    = 0.20
	weightSession       = 0.15
	weightConfluence    = 0.10

	neutral = 5.0

	atrPeriod        = 14
	sweepBonusWindow = time.Hour
	proximityPips    = 20 // zone influence and sweep relevance radius
)

// Scorer computes the bounded protection score for a candidate entry.
// It is stateless apart from the registry it reads from.
type Scorer struct {
	registry *market.Registry
	logger   zerolog.Logger
}

// NewScorer creates a protection scorer over the shared registry
func NewScorer(registry *market.Registry, logger zerolog.Logger) *Scorer {
	return &Scorer{
		registry: registry,
		logger:   logger.With().Str("component", "protect").Logger(),
	}
}

// Score evaluates a candidate entry price against current market structure.
// An unknown instrument is not an error: every factor contributes its
// neutral value and the result is the midpoint.
func (s *Scorer) Score(symbol string, entry float64, now time.Time) models.ScoreResponse {
	var snap market.Snapshot
	if st := s.registry.Get(symbol); st != nil {
		st.Lock()
		snap = st.SnapshotFor(models.M1)
		st.Unlock()
	} else {
		s.logger.Debug().Str("symbol", symbol).Msg("No state for instrument, scoring neutral")
	}

	factors := map[string]float64{
		"zone_proximity":       zoneProximityFactor(snap.Zones, entry),
		"recent_sweep":         recentSweepFactor(snap.Sweeps, entry, now),
		"volatility":           volatilityFactor(snap.Candles, entry),
		"session":              sessionFactor(now),
		"timeframe_confluence": neutral, // reserved, no multi-timeframe model yet
	}

	score := neutral +
		weightZoneProximity*(factors["zone_proximity"]-neutral) +
		weightRecentSweep*(factors["recent_sweep"]-neutral) +
		weightVolatility*(factors["volatility"]-neutral) +
		weightSession*(factors["session"]-neutral) +
		weightConfluence*(factors["timeframe_confluence"]-neutral)

	score = clamp(score, 1, 10)
	level, recommendation := riskLevel(score)

	return models.ScoreResponse{
		Symbol:          symbol,
		EntryPrice:      entry,
		ProtectionScore: math.Round(score*100) / 100,
		RiskLevel:       level,
		Recommendation:  recommendation,
		Factors:         factors,
		Timestamp:       now,
	}
}

// zoneProximityFactor penalizes entries near strong un-swept zones. Swept
// zones no longer hold resting liquidity and are ignored.
func zoneProximityFactor(zones []models.LiquidityZone, entry float64) float64 {
	radius := proximityPips * models.PipSize(entry)

	factor := neutral
	for _, z := range zones {
		if z.Swept {
			continue
		}
		dist := math.Abs(z.Price - entry)
		if dist > radius {
			continue
		}
		penalty := (z.Strength / 10) * (1 - dist/radius) * 4
		if neutral-penalty < factor {
			factor = neutral - penalty
		}
	}
	return clamp(factor, 0, 10)
}

// recentSweepFactor rewards entries near a level whose liquidity was just
// harvested. The bonus decays linearly over the window. Queries carry no
// direction, so the bonus applies on either side of the swept level.
func recentSweepFactor(sweeps []models.MarketSweep, entry float64, now time.Time) float64 {
	radius := proximityPips * models.PipSize(entry)

	factor := neutral
	for _, sw := range sweeps {
		age := now.Sub(sw.Timestamp)
		if age < 0 || age > sweepBonusWindow {
			continue
		}
		if math.Abs(sw.Price-entry) > radius {
			continue
		}
		bonus := 5 * (1 - age.Seconds()/sweepBonusWindow.Seconds())
		if neutral+bonus > factor {
			factor = neutral + bonus
		}
	}
	return clamp(factor, 0, 10)
}

// volatilityFactor rewards a normal ATR band and penalizes both dead and
// chaotic tape
func volatilityFactor(candles []models.Candle, entry float64) float64 {
	atr := calculate.ATR(candles, atrPeriod)
	if atr == 0 || entry <= 0 {
		return neutral
	}

	ratio := atr / entry
	switch {
	case ratio < 0.00005:
		return 3
	case ratio < 0.0001:
		return 6
	case ratio <= 0.0005:
		return 8
	case ratio <= 0.0015:
		return 8 - 5*(ratio-0.0005)/0.001
	default:
		return 2
	}
}

// sessionFactor scores liquidity by UTC session. The London/New York overlap
// is the deepest market; the late-US lull the thinnest.
func sessionFactor(now time.Time) float64 {
	h := now.UTC().Hour()
	switch {
	case h >= 12 && h < 16:
		return 9 // London/NY overlap
	case h >= 7 && h < 12:
		return 8 // London
	case h >= 16 && h < 21:
		return 7 // New York afternoon
	case h >= 23 || h < 7:
		return 5 // Asian session
	default:
		return 3 // thin hours between NY close and Tokyo open
	}
}

func riskLevel(score float64) (string, string) {
	switch {
	case score >= 7.5:
		return "low", "Entry well protected by market structure"
	case score >= 5.5:
		return "moderate", "Acceptable entry, monitor nearby liquidity"
	case score >= 3.5:
		return "elevated", "Entry sits close to un-swept liquidity, tighten risk"
	default:
		return "high", "Avoid entry, structure offers no protection"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
