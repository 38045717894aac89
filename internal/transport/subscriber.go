package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TickSubscriber consumes the external tick feed and hands raw payloads to
// the ingestion loop through a bounded queue. When the queue is full the
// oldest queued tick is discarded.
type TickSubscriber struct {
	rdb     *redis.Client
	channel string
	out     chan []byte
	logger  zerolog.Logger
}

// NewTickSubscriber creates a subscriber with the given intake queue size
func NewTickSubscriber(rdb *redis.Client, channel string, queueSize int, logger zerolog.Logger) *TickSubscriber {
	return &TickSubscriber{
		rdb:     rdb,
		channel: channel,
		out:     make(chan []byte, queueSize),
		logger:  logger.With().Str("component", "tick_subscriber").Logger(),
	}
}

// Ticks returns the intake queue read by the ingestion loop
func (s *TickSubscriber) Ticks() <-chan []byte {
	return s.out
}

// Run subscribes to the feed and pumps messages until the context is
// cancelled, reconnecting with capped exponential backoff on any failure
func (s *TickSubscriber) Run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	for ctx.Err() == nil {
		if err := s.consume(ctx, bo.Reset); err != nil && ctx.Err() == nil {
			wait := bo.NextBackOff()
			s.logger.Warn().Err(err).Dur("retry_in", wait).Msg("Tick subscription lost, reconnecting")
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

// consume subscribes and pumps messages; connected fires once the
// subscription is confirmed so the reconnect backoff starts over.
func (s *TickSubscriber) consume(ctx context.Context, connected func()) error {
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()

	// Confirm the subscription before trusting the channel.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	connected()

	s.logger.Info().Str("channel", s.channel).Msg("Subscribed to tick feed")
	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return redis.ErrClosed
			}
			s.enqueue([]byte(msg.Payload))
		}
	}
}

// enqueue pushes a payload, dropping the oldest queued tick on overflow
func (s *TickSubscriber) enqueue(raw []byte) {
	select {
	case s.out <- raw:
		return
	default:
	}

	select {
	case <-s.out:
		s.logger.Warn().Msg("Intake queue full, dropped oldest tick")
	default:
	}

	select {
	case s.out <- raw:
	default:
		s.logger.Warn().Msg("Intake queue full, dropped incoming tick")
	}
}
