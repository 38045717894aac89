package structure

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/internal/market"
	"github.com/Alias1177/Sentinel/models"
)

// tolerancePips is how close two levels must be (in pips) to count as the
// same zone, and how close a candle extreme must be to count as a touch.
const tolerancePips = 10

// Detector finds swing points on the finest candle series and maintains the
// instrument's liquidity zones from them.
type Detector struct {
	window   int // trailing candles considered
	lookback int // symmetric neighborhood half-width k
	logger   zerolog.Logger
}

// NewDetector creates a structure detector
func NewDetector(window, lookback int, logger zerolog.Logger) *Detector {
	return &Detector{
		window:   window,
		lookback: lookback,
		logger:   logger.With().Str("component", "structure").Logger(),
	}
}

// IsSwingHigh reports whether index i is the strict maximum of the
// symmetric neighborhood [i-k, i+k]
func IsSwingHigh(values []float64, i, k int) bool {
	if i-k < 0 || i+k >= len(values) {
		return false
	}
	for j := i - k; j <= i+k; j++ {
		if j == i {
			continue
		}
		if values[j] >= values[i] {
			return false
		}
	}
	return true
}

// IsSwingLow is the mirrored rule for local minima
func IsSwingLow(values []float64, i, k int) bool {
	if i-k < 0 || i+k >= len(values) {
		return false
	}
	for j := i - k; j <= i+k; j++ {
		if j == i {
			continue
		}
		if values[j] <= values[i] {
			return false
		}
	}
	return true
}

// SwingHighs returns every index of values that is a strict local maximum
// over the symmetric neighborhood of half-width k
func SwingHighs(values []float64, k int) []int {
	var out []int
	for i := k; i < len(values)-k; i++ {
		if IsSwingHigh(values, i, k) {
			out = append(out, i)
		}
	}
	return out
}

// OnCandleSealed examines the newest confirmable point of the finest series.
// A swing needs k candles on both sides, so the candidate sits k candles
// behind the freshly sealed one. Caller must hold the state lock.
func (d *Detector) OnCandleSealed(st *market.MarketState, tf models.Timeframe) {
	hist := st.History[tf]
	if len(hist) < 2*d.lookback+1 {
		return
	}

	start := 0
	if len(hist) > d.window {
		start = len(hist) - d.window
	}
	win := hist[start:]

	i := len(win) - 1 - d.lookback

	highs := make([]float64, len(win))
	lows := make([]float64, len(win))
	for j, c := range win {
		highs[j] = c.High
		lows[j] = c.Low
	}

	if IsSwingHigh(highs, i, d.lookback) {
		d.upsertZone(st, win, win[i], win[i].High, models.ZoneResistance)
	}
	if IsSwingLow(lows, i, d.lookback) {
		d.upsertZone(st, win, win[i], win[i].Low, models.ZoneSupport)
	}
}

// upsertZone either merges the swing into an existing same-kind zone within
// tolerance or registers a new one
func (d *Detector) upsertZone(st *market.MarketState, win []models.Candle, c models.Candle, level float64, kind models.ZoneKind) {
	tol := tolerancePips * models.PipSize(level)
	testedAt := c.OpenTime.Add(c.Timeframe.Duration())

	for _, z := range st.Zones {
		if z.Kind != kind {
			continue
		}
		if math.Abs(z.Price-level) <= tol {
			z.TestCount++
			z.LastTestAt = testedAt
			z.Strength = math.Min(10, z.Strength+0.5)
			return
		}
	}

	zone := &models.LiquidityZone{
		Symbol:     st.Symbol,
		Price:      level,
		Kind:       kind,
		Strength:   zoneStrength(win, c, level, kind, tol),
		CreatedAt:  testedAt,
		LastTestAt: testedAt,
		TestCount:  1,
	}
	st.AddZone(zone)

	d.logger.Debug().
		Str("symbol", st.Symbol).
		Str("kind", string(kind)).
		Float64("price", level).
		Float64("strength", zone.Strength).
		Msg("Liquidity zone created")
}

// zoneStrength combines relative volume at the swing with how many window
// extremes already touched the level. Both components cap at 5, total at 10.
func zoneStrength(win []models.Candle, c models.Candle, level float64, kind models.ZoneKind, tol float64) float64 {
	var avgVol float64
	for _, w := range win {
		avgVol += w.Volume
	}
	avgVol /= float64(len(win))

	volumeComponent := 2.5
	if avgVol > 0 {
		volumeComponent = math.Min(5, c.Volume/avgVol*2.5)
	}

	touches := 0.0
	for _, w := range win {
		extreme := w.High
		if kind == models.ZoneSupport {
			extreme = w.Low
		}
		if math.Abs(extreme-level) <= tol {
			touches++
		}
	}
	touchComponent := math.Min(5, touches)

	return math.Min(10, volumeComponent+touchComponent)
}
