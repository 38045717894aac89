package signal

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/internal/market"
	"github.com/Alias1177/Sentinel/models"
)

// bearishConfluence builds a series where momentum, trend, breakout and
// volume all argue the same way: steadily falling closes, lower highs and
// lower lows, a final bar collapsing below the prior window's low on a
// volume spike.
func bearishConfluence() market.Snapshot {
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	n := 30
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		close := 1.2000 - float64(i)*0.0003
		vol := 100.0
		if i == n-1 {
			close -= 0.0010 // breakout below the prior lows
			vol = 400       // abnormal volume
		}
		candles[i] = models.Candle{
			Symbol:    "EURUSD",
			Timeframe: models.M1,
			OpenTime:  t0.Add(time.Duration(i) * time.Minute),
			Open:      close + 0.0002,
			High:      close + 0.0002,
			Low:       close - 0.0002,
			Close:     close,
			Volume:    vol,
		}
	}
	return market.Snapshot{Symbol: "EURUSD", Candles: candles}
}

func newTestGenerator(dailyCap int) *Generator {
	return NewGenerator(0.6, 3, 15*time.Minute, dailyCap, zerolog.Nop())
}

func TestEvaluateEmitsOnConfluence(t *testing.T) {
	g := newTestGenerator(10)
	now := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)

	sig := g.Evaluate(bearishConfluence(), now)
	if sig == nil {
		t.Fatal("expected a signal, got none")
	}
	if sig.Direction != "sell" {
		t.Errorf("direction = %q, want sell", sig.Direction)
	}
	if sig.Confidence < 0.6 || sig.Confidence > 1 {
		t.Errorf("confidence = %v, outside [0.6,1]", sig.Confidence)
	}
	if len(sig.Factors) < 3 {
		t.Errorf("factors = %v, want at least 3", sig.Factors)
	}
	if sig.ID == "" || !sig.GeneratedAt.Equal(now) {
		t.Errorf("signal identity incomplete: %+v", sig)
	}
}

func TestEvaluateRespectsMinGap(t *testing.T) {
	g := newTestGenerator(10)
	now := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)
	snap := bearishConfluence()

	if g.Evaluate(snap, now) == nil {
		t.Fatal("first evaluation should emit")
	}
	if g.Evaluate(snap, now.Add(time.Minute)) != nil {
		t.Fatal("emitted inside the minimum gap")
	}
	if g.Evaluate(snap, now.Add(16*time.Minute)) == nil {
		t.Fatal("gap elapsed, expected a signal")
	}
}

func TestEvaluateRespectsDailyCap(t *testing.T) {
	g := newTestGenerator(2)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := bearishConfluence()

	emitted := 0
	for i := 0; i < 20; i++ {
		if g.Evaluate(snap, now.Add(time.Duration(i)*16*time.Minute)) != nil {
			emitted++
		}
	}
	if emitted != 2 {
		t.Fatalf("emitted %d signals on one UTC day, cap is 2", emitted)
	}

	// The cap resets at the UTC day boundary.
	if g.Evaluate(snap, now.Add(24*time.Hour)) == nil {
		t.Fatal("expected emission after UTC day rollover")
	}
}

func TestEvaluateGapIsPerInstrument(t *testing.T) {
	g := newTestGenerator(10)
	now := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)

	first := bearishConfluence()
	second := bearishConfluence()
	second.Symbol = "GBPUSD"

	if g.Evaluate(first, now) == nil {
		t.Fatal("first instrument should emit")
	}
	if g.Evaluate(second, now) == nil {
		t.Fatal("gap on one instrument must not silence another")
	}
}

func TestEvaluateNoSignalWithoutConfluence(t *testing.T) {
	g := newTestGenerator(10)
	now := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)

	// Flat tape: nothing extreme, nothing trending, nothing breaking out.
	t0 := now.Add(-time.Hour)
	candles := make([]models.Candle, 30)
	for i := range candles {
		wiggle := float64(i%2) * 0.00002
		candles[i] = models.Candle{
			Symbol:    "EURUSD",
			Timeframe: models.M1,
			OpenTime:  t0.Add(time.Duration(i) * time.Minute),
			Open:      1.2 + wiggle,
			High:      1.2 + wiggle + 0.00002,
			Low:       1.2 + wiggle - 0.00002,
			Close:     1.2 + wiggle,
			Volume:    100,
		}
	}

	if sig := g.Evaluate(market.Snapshot{Symbol: "EURUSD", Candles: candles}, now); sig != nil {
		t.Fatalf("flat tape emitted %+v", sig)
	}
}

func TestEvaluateTooLittleHistory(t *testing.T) {
	g := newTestGenerator(10)
	snap := bearishConfluence()
	snap.Candles = snap.Candles[:10]

	if g.Evaluate(snap, time.Now().UTC()) != nil {
		t.Fatal("emitted with insufficient history")
	}
}
