package aggregate

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/internal/market"
	"github.com/Alias1177/Sentinel/models"
)

// Aggregator maintains one open candle per (instrument, timeframe) and seals
// it when a tick crosses the bucket boundary. Ticks for one instrument must
// arrive in order; the per-instrument lock held by the caller guarantees it.
type Aggregator struct {
	timeframes []models.Timeframe
	historyCap int
	logger     zerolog.Logger
}

// New creates an aggregator over the given timeframes
func New(timeframes []models.Timeframe, historyCap int, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		timeframes: timeframes,
		historyCap: historyCap,
		logger:     logger.With().Str("component", "aggregator").Logger(),
	}
}

// BucketStart truncates a timestamp to the open time of its bucket
func BucketStart(ts time.Time, tf models.Timeframe) time.Time {
	if tf == models.D1 {
		return ts.UTC().Truncate(24 * time.Hour)
	}
	return ts.UTC().Truncate(tf.Duration())
}

// Apply folds one tick into every timeframe of the instrument's state and
// returns the candles sealed by this tick. Caller must hold the state lock.
func (a *Aggregator) Apply(st *market.MarketState, tick models.Tick) []models.Candle {
	price := tick.Mid()
	var sealed []models.Candle

	for _, tf := range a.timeframes {
		bucket := BucketStart(tick.Timestamp, tf)
		cur := st.Current[tf]

		if cur == nil {
			st.Current[tf] = newCandle(tick, tf, bucket, price)
			continue
		}

		if bucket.After(cur.OpenTime) {
			st.History[tf] = append(st.History[tf], *cur)
			if len(st.History[tf]) > a.historyCap {
				st.History[tf] = st.History[tf][len(st.History[tf])-a.historyCap:]
			}
			sealed = append(sealed, *cur)
			st.Current[tf] = newCandle(tick, tf, bucket, price)
			continue
		}

		if bucket.Before(cur.OpenTime) {
			// Out-of-order tick. The bucket it belongs to is already sealed;
			// fold it into the open candle so no price excursion is lost.
			a.logger.Warn().
				Str("symbol", tick.Symbol).
				Str("timeframe", string(tf)).
				Time("tick_time", tick.Timestamp).
				Time("open_time", cur.OpenTime).
				Msg("Out-of-order tick, folding into open candle")
		}

		updateCandle(cur, price, tick.Volume)
	}

	return sealed
}

func newCandle(tick models.Tick, tf models.Timeframe, bucket time.Time, price float64) *models.Candle {
	return &models.Candle{
		Symbol:    tick.Symbol,
		Timeframe: tf,
		OpenTime:  bucket,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    tick.Volume,
	}
}

func updateCandle(c *models.Candle, price, volume float64) {
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
	c.Volume += volume
}
