package calculate

import (
	"testing"

	"github.com/Alias1177/Sentinel/models"
)

func generateTestCandles(n int, build func(i int) models.Candle) []models.Candle {
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		out[i] = build(i)
	}
	return out
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name    string
		candles []models.Candle
		check   func(t *testing.T, rsi float64)
	}{
		{
			name:    "insufficient data returns neutral",
			candles: generateTestCandles(5, func(i int) models.Candle { return models.Candle{Close: 1.1} }),
			check: func(t *testing.T, rsi float64) {
				if rsi != 50 {
					t.Errorf("rsi = %v, want neutral 50", rsi)
				}
			},
		},
		{
			name: "all gains saturates high",
			candles: generateTestCandles(30, func(i int) models.Candle {
				return models.Candle{Close: 1.1 + float64(i)*0.001}
			}),
			check: func(t *testing.T, rsi float64) {
				if rsi != 100 {
					t.Errorf("rsi = %v, want 100", rsi)
				}
			},
		},
		{
			name: "all losses saturates low",
			candles: generateTestCandles(30, func(i int) models.Candle {
				return models.Candle{Close: 1.2 - float64(i)*0.001}
			}),
			check: func(t *testing.T, rsi float64) {
				if rsi > 1 {
					t.Errorf("rsi = %v, want near 0", rsi)
				}
			},
		},
		{
			name: "mixed tape stays in the middle",
			candles: generateTestCandles(30, func(i int) models.Candle {
				return models.Candle{Close: 1.1 + float64(i%2)*0.001}
			}),
			check: func(t *testing.T, rsi float64) {
				if rsi < 20 || rsi > 80 {
					t.Errorf("rsi = %v, want mid-range", rsi)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, RSI(tt.candles, 14))
		})
	}
}

func TestATR(t *testing.T) {
	candles := generateTestCandles(20, func(i int) models.Candle {
		return models.Candle{Open: 1.1, High: 1.1006, Low: 1.1000, Close: 1.1003}
	})

	atr := ATR(candles, 14)
	if atr < 0.00059 || atr > 0.00061 {
		t.Errorf("atr = %v, want ~0.0006 for constant-range candles", atr)
	}

	if got := ATR(candles[:5], 14); got != 0 {
		t.Errorf("atr on short series = %v, want 0", got)
	}
}

func TestAverageVolumeExcludesLatestBar(t *testing.T) {
	candles := generateTestCandles(21, func(i int) models.Candle {
		vol := 100.0
		if i == 20 {
			vol = 900 // the bar under test must not skew its own baseline
		}
		return models.Candle{Volume: vol}
	})

	if got := AverageVolume(candles, 20); got != 100 {
		t.Errorf("average volume = %v, want 100", got)
	}
}
