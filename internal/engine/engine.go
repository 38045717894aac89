package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/internal/aggregate"
	"github.com/Alias1177/Sentinel/internal/database"
	"github.com/Alias1177/Sentinel/internal/market"
	"github.com/Alias1177/Sentinel/internal/signal"
	"github.com/Alias1177/Sentinel/internal/structure"
	"github.com/Alias1177/Sentinel/models"
)

// AlertSink receives outbound alerts and signals for broadcast
type AlertSink interface {
	PublishAlert(ctx context.Context, alert models.SweepAlert)
	PublishSignal(ctx context.Context, sig models.Signal)
}

// Engine is the ingestion pipeline: normalize, store, aggregate, detect
// structure, detect sweeps, evaluate signals. One tick for one instrument is
// processed entirely under that instrument's lock, which gives the strict
// per-instrument ordering candle correctness depends on.
type Engine struct {
	registry  *market.Registry
	agg       *aggregate.Aggregator
	detector  *structure.Detector
	sweeps    *structure.SweepDetector
	generator *signal.Generator
	sink      AlertSink
	writer    *database.Writer
	logger    zerolog.Logger
}

// New wires the pipeline together. writer may be nil when persistence is
// not configured.
func New(
	registry *market.Registry,
	agg *aggregate.Aggregator,
	detector *structure.Detector,
	sweeps *structure.SweepDetector,
	generator *signal.Generator,
	sink AlertSink,
	writer *database.Writer,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		registry:  registry,
		agg:       agg,
		detector:  detector,
		sweeps:    sweeps,
		generator: generator,
		sink:      sink,
		writer:    writer,
		logger:    logger.With().Str("component", "engine").Logger(),
	}
}

// Run consumes raw feed payloads until the context is cancelled
func (e *Engine) Run(ctx context.Context, in <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-in:
			e.ProcessRaw(ctx, raw, time.Now().UTC())
		}
	}
}

// ProcessRaw normalizes one feed message and runs it through the pipeline.
// A malformed message is logged and dropped; processing always continues.
func (e *Engine) ProcessRaw(ctx context.Context, raw []byte, now time.Time) {
	tick, err := market.Normalize(raw, now)
	if err != nil {
		e.logger.Warn().Err(err).Bytes("payload", raw).Msg("Dropped malformed tick")
		return
	}
	e.ProcessTick(ctx, tick)
}

// ProcessTick runs one normalized tick through aggregation, structure and
// sweep detection, then signal evaluation on a fresh sealed candle
func (e *Engine) ProcessTick(ctx context.Context, tick models.Tick) {
	st := e.registry.GetOrCreate(tick.Symbol)

	st.Lock()
	st.AppendTick(tick)
	sealed := e.agg.Apply(st, tick)

	sealedM1 := false
	for _, c := range sealed {
		if c.Timeframe == models.M1 {
			sealedM1 = true
			e.detector.OnCandleSealed(st, models.M1)
		}
	}

	alerts := e.sweeps.Check(st, tick)

	var snap market.Snapshot
	if sealedM1 {
		snap = st.SnapshotFor(models.M1)
	}
	st.Unlock()

	for _, alert := range alerts {
		e.sink.PublishAlert(ctx, alert)
	}

	// Confluence is only re-evaluated when the finest series gains a bar;
	// intra-bar ticks cannot change any factor.
	if sealedM1 {
		if sig := e.generator.Evaluate(snap, tick.Timestamp); sig != nil {
			e.sink.PublishSignal(ctx, *sig)
		}
	}

	e.writer.EnqueueTick(tick)
	for _, c := range sealed {
		e.writer.EnqueueCandle(c)
	}
}
