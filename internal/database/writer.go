package database

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/models"
)

// Writer persists ticks and sealed candles off the ingestion path. Writes go
// through a bounded queue; when the queue is full or an insert fails the
// record is logged and dropped. Audit persistence is best-effort and must
// never slow down or fail ingestion.
type Writer struct {
	db     *DB
	ticks  chan models.Tick
	sealed chan models.Candle
	logger zerolog.Logger
}

// NewWriter creates an async best-effort writer. A nil *Writer is valid;
// every method on it is a no-op.
func NewWriter(db *DB, queueSize int, logger zerolog.Logger) *Writer {
	return &Writer{
		db:     db,
		ticks:  make(chan models.Tick, queueSize),
		sealed: make(chan models.Candle, queueSize),
		logger: logger.With().Str("component", "db_writer").Logger(),
	}
}

// EnqueueTick queues a tick for persistence without ever blocking
func (w *Writer) EnqueueTick(t models.Tick) {
	if w == nil {
		return
	}
	select {
	case w.ticks <- t:
	default:
		w.logger.Warn().Str("symbol", t.Symbol).Msg("Persistence queue full, tick dropped")
	}
}

// EnqueueCandle queues a sealed candle for persistence without ever blocking
func (w *Writer) EnqueueCandle(c models.Candle) {
	if w == nil {
		return
	}
	select {
	case w.sealed <- c:
	default:
		w.logger.Warn().Str("symbol", c.Symbol).Msg("Persistence queue full, candle dropped")
	}
}

// Run drains the queues until the context is cancelled
func (w *Writer) Run(ctx context.Context) {
	if w == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-w.ticks:
			if err := w.db.InsertTick(t); err != nil {
				w.logger.Warn().Err(err).Str("symbol", t.Symbol).Msg("Tick insert failed")
			}
		case c := <-w.sealed:
			if err := w.db.InsertCandle(c); err != nil {
				w.logger.Warn().Err(err).Str("symbol", c.Symbol).Msg("Candle insert failed")
			}
		}
	}
}
