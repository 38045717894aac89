package aggregate

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/internal/market"
	"github.com/Alias1177/Sentinel/models"
)

func tick(price, volume float64, ts time.Time) models.Tick {
	return models.Tick{Symbol: "EURUSD", Bid: price, Ask: price, Volume: volume, Timestamp: ts}
}

func TestApplyBuildsCandleWithinBucket(t *testing.T) {
	agg := New([]models.Timeframe{models.M1}, 500, zerolog.Nop())
	st := market.NewMarketState("EURUSD", 1000, 20)
	t0 := time.Date(2025, 3, 10, 12, 0, 10, 0, time.UTC)

	agg.Apply(st, tick(1.1000, 10, t0))
	agg.Apply(st, tick(1.1010, 20, t0.Add(15*time.Second)))
	agg.Apply(st, tick(1.0995, 30, t0.Add(30*time.Second)))

	cur := st.Current[models.M1]
	if cur == nil {
		t.Fatal("no open candle")
	}
	if cur.Open != 1.1000 || cur.High != 1.1010 || cur.Low != 1.0995 || cur.Close != 1.0995 {
		t.Errorf("OHLC = %v/%v/%v/%v", cur.Open, cur.High, cur.Low, cur.Close)
	}
	if cur.Volume != 60 {
		t.Errorf("volume = %v, want 60", cur.Volume)
	}
	if !cur.OpenTime.Equal(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("open_time = %v", cur.OpenTime)
	}
}

func TestApplySealsOnBucketBoundary(t *testing.T) {
	agg := New([]models.Timeframe{models.M1, models.M5}, 500, zerolog.Nop())
	st := market.NewMarketState("EURUSD", 1000, 20)
	t0 := time.Date(2025, 3, 10, 12, 0, 30, 0, time.UTC)

	agg.Apply(st, tick(1.1000, 10, t0))
	sealed := agg.Apply(st, tick(1.1005, 10, t0.Add(time.Minute)))

	if len(sealed) != 1 {
		t.Fatalf("sealed %d candles, want 1 (only M1 boundary crossed)", len(sealed))
	}
	if sealed[0].Timeframe != models.M1 || sealed[0].Close != 1.1000 {
		t.Errorf("sealed candle = %+v", sealed[0])
	}
	if len(st.History[models.M1]) != 1 {
		t.Errorf("M1 history length = %d, want 1", len(st.History[models.M1]))
	}
	if len(st.History[models.M5]) != 0 {
		t.Errorf("M5 history length = %d, want 0", len(st.History[models.M5]))
	}
}

// Every sealed candle must satisfy low <= open,close <= high, and the sealed
// sequence per timeframe must have strictly increasing open times.
func TestSealedCandleInvariants(t *testing.T) {
	agg := New(models.Timeframes, 500, zerolog.Nop())
	st := market.NewMarketState("EURUSD", 1000, 20)
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	prices := []float64{1.1000, 1.1020, 1.0990, 1.1015, 1.1005, 1.0980, 1.1030, 1.1010}
	for i := 0; i < 240; i++ {
		agg.Apply(st, tick(prices[i%len(prices)], 5, t0.Add(time.Duration(i)*15*time.Second)))
	}

	for tf, hist := range st.History {
		var prev time.Time
		for _, c := range hist {
			if c.Low > c.Open || c.Open > c.High || c.Low > c.Close || c.Close > c.High {
				t.Fatalf("%s candle violates OHLC ordering: %+v", tf, c)
			}
			if !prev.IsZero() && !c.OpenTime.After(prev) {
				t.Fatalf("%s open_time not increasing: %v then %v", tf, prev, c.OpenTime)
			}
			prev = c.OpenTime
		}
	}
}

func TestHistoryTrimmedToCap(t *testing.T) {
	agg := New([]models.Timeframe{models.M1}, 3, zerolog.Nop())
	st := market.NewMarketState("EURUSD", 1000, 20)
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		agg.Apply(st, tick(1.1, 1, t0.Add(time.Duration(i)*time.Minute)))
	}

	if got := len(st.History[models.M1]); got != 3 {
		t.Errorf("history length = %d, want cap 3", got)
	}
}

func TestOutOfOrderTickFoldsIntoOpenCandle(t *testing.T) {
	agg := New([]models.Timeframe{models.M1}, 500, zerolog.Nop())
	st := market.NewMarketState("EURUSD", 1000, 20)
	t0 := time.Date(2025, 3, 10, 12, 1, 0, 0, time.UTC)

	agg.Apply(st, tick(1.1000, 10, t0))
	// Stale tick from the previous minute: its bucket is gone, but the price
	// excursion must still be reflected.
	sealed := agg.Apply(st, tick(1.1050, 10, t0.Add(-time.Minute)))

	if len(sealed) != 0 {
		t.Fatalf("stale tick sealed a candle")
	}
	if st.Current[models.M1].High != 1.1050 {
		t.Errorf("high = %v, want 1.1050", st.Current[models.M1].High)
	}
}

func TestBucketStart(t *testing.T) {
	ts := time.Date(2025, 3, 10, 13, 47, 31, 0, time.UTC)

	tests := []struct {
		tf   models.Timeframe
		want time.Time
	}{
		{models.M1, time.Date(2025, 3, 10, 13, 47, 0, 0, time.UTC)},
		{models.M5, time.Date(2025, 3, 10, 13, 45, 0, 0, time.UTC)},
		{models.M15, time.Date(2025, 3, 10, 13, 45, 0, 0, time.UTC)},
		{models.H1, time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)},
		{models.H4, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)},
		{models.D1, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.tf), func(t *testing.T) {
			if got := BucketStart(ts, tt.tf); !got.Equal(tt.want) {
				t.Errorf("BucketStart(%s) = %v, want %v", tt.tf, got, tt.want)
			}
		})
	}
}
