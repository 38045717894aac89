package calculate

import (
	"math"

	"github.com/Alias1177/Sentinel/models"
)

// RSI computes the latest Relative Strength Index over closes
func RSI(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 50.0 // Default value if not enough data
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	// Wilder smoothing for the remainder of the series
	for i := period + 1; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			avgGain = (avgGain*float64(period-1) + change) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - change) / float64(period)
		}
	}

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// ATR computes the Average True Range over the last period candles
func ATR(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	start := len(candles) - period
	atr := 0.0
	for i := start; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		atr += tr
	}

	return atr / float64(period)
}

// AverageVolume returns the mean volume of the last period candles,
// excluding the final one (so the latest bar can be compared against it)
func AverageVolume(candles []models.Candle, period int) float64 {
	if len(candles) < 2 {
		return 0
	}

	end := len(candles) - 1
	start := end - period
	if start < 0 {
		start = 0
	}
	if end == start {
		return 0
	}

	sum := 0.0
	for i := start; i < end; i++ {
		sum += candles[i].Volume
	}
	return sum / float64(end-start)
}
