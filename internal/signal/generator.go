package signal

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Alias1177/Sentinel/internal/calculate"
	"github.com/Alias1177/Sentinel/internal/market"
	"github.com/Alias1177/Sentinel/models"
)

const (
	rsiPeriod      = 14
	factorWindow   = 20
	trendWindow    = 6
	volumeSpikeMul = 2.0

	confidencePerFactor = 0.2
)

// factor is one independent confluence vote. Direction is +1 bullish,
// -1 bearish, 0 for non-directional context factors.
type factor struct {
	name      string
	direction int
}

// Generator turns confluence across independent factors into rate-limited
// signals. Emission is gated four ways: confidence threshold, minimum factor
// count, per-instrument minimum gap and a per-instrument daily cap that
// resets at the UTC day boundary.
type Generator struct {
	confidenceThreshold float64
	minFactors          int
	minGap              time.Duration
	dailyCap            int
	logger              zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	daily    map[string]*dayCounter
}

type dayCounter struct {
	day   string
	count int
}

// NewGenerator creates a confluence signal generator
func NewGenerator(confidenceThreshold float64, minFactors int, minGap time.Duration, dailyCap int, logger zerolog.Logger) *Generator {
	return &Generator{
		confidenceThreshold: confidenceThreshold,
		minFactors:          minFactors,
		minGap:              minGap,
		dailyCap:            dailyCap,
		logger:              logger.With().Str("component", "signal").Logger(),
		limiters:            make(map[string]*rate.Limiter),
		daily:               make(map[string]*dayCounter),
	}
}

// Evaluate inspects the finest series and returns a signal when enough
// independent factors agree and no rate limit is hit, nil otherwise
func (g *Generator) Evaluate(snap market.Snapshot, now time.Time) *models.Signal {
	candles := snap.Candles
	if len(candles) < factorWindow+1 {
		return nil
	}

	factors := collectFactors(candles)
	if len(factors) < g.minFactors {
		return nil
	}

	confidence := confidencePerFactor * float64(len(factors))
	if confidence < g.confidenceThreshold {
		return nil
	}
	if confidence > 1 {
		confidence = 1
	}

	vote := 0
	names := make([]string, 0, len(factors))
	for _, f := range factors {
		vote += f.direction
		names = append(names, f.name)
	}
	direction := ""
	switch {
	case vote > 0:
		direction = "buy"
	case vote < 0:
		direction = "sell"
	default:
		return nil // directional factors disagree
	}

	if !g.allow(snap.Symbol, now) {
		return nil
	}

	sig := &models.Signal{
		ID:          fmt.Sprintf("%s-%d", snap.Symbol, now.UnixNano()),
		Symbol:      snap.Symbol,
		Direction:   direction,
		Confidence:  confidence,
		Factors:     names,
		GeneratedAt: now,
	}

	g.logger.Info().
		Str("symbol", sig.Symbol).
		Str("direction", sig.Direction).
		Float64("confidence", sig.Confidence).
		Strs("factors", sig.Factors).
		Msg("Signal emitted")

	return sig
}

// allow enforces the daily cap and the minimum gap. The limiter token is
// only consumed once the cap check passed, so a capped instrument does not
// burn a gap token.
func (g *Generator) allow(symbol string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := now.UTC().Format("2006-01-02")
	dc := g.daily[symbol]
	if dc == nil || dc.day != day {
		dc = &dayCounter{day: day}
		g.daily[symbol] = dc
	}
	if dc.count >= g.dailyCap {
		g.logger.Debug().Str("symbol", symbol).Msg("Daily signal cap reached")
		return false
	}

	lim := g.limiters[symbol]
	if lim == nil {
		lim = rate.NewLimiter(rate.Every(g.minGap), 1)
		g.limiters[symbol] = lim
	}
	if !lim.AllowN(now, 1) {
		return false
	}

	dc.count++
	return true
}

// collectFactors evaluates every confluence factor over the series and
// returns the ones that fired
func collectFactors(candles []models.Candle) []factor {
	var out []factor
	last := candles[len(candles)-1]

	// Momentum extreme on RSI bands: oversold argues for a long, overbought
	// for a short.
	rsi := calculate.RSI(candles, rsiPeriod)
	if rsi < 30 {
		out = append(out, factor{name: "momentum", direction: +1})
	} else if rsi > 70 {
		out = append(out, factor{name: "momentum", direction: -1})
	}

	// Abnormal volume against the trailing average.
	if avg := calculate.AverageVolume(candles, factorWindow); avg > 0 && last.Volume > volumeSpikeMul*avg {
		out = append(out, factor{name: "volume"})
	}

	// Trend structure: higher highs with higher lows, or the mirror.
	hh, hl, lh, ll := 0, 0, 0, 0
	start := len(candles) - trendWindow
	for i := start + 1; i < len(candles); i++ {
		if candles[i].High > candles[i-1].High {
			hh++
		} else {
			lh++
		}
		if candles[i].Low > candles[i-1].Low {
			hl++
		} else {
			ll++
		}
	}
	if hh >= 3 && hl >= 3 {
		out = append(out, factor{name: "trend", direction: +1})
	} else if lh >= 3 && ll >= 3 {
		out = append(out, factor{name: "trend", direction: -1})
	}

	// Breakout beyond the prior window's extremes.
	prior := candles[len(candles)-1-factorWindow : len(candles)-1]
	hi, lo := prior[0].High, prior[0].Low
	for _, c := range prior[1:] {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	if last.Close > hi {
		out = append(out, factor{name: "breakout", direction: +1})
	} else if last.Close < lo {
		out = append(out, factor{name: "breakout", direction: -1})
	}

	// Volatility inside the tradable band.
	if last.Close > 0 {
		ratio := calculate.ATR(candles, rsiPeriod) / last.Close
		if ratio >= 0.0001 && ratio <= 0.0005 {
			out = append(out, factor{name: "volatility"})
		}
	}

	return out
}
