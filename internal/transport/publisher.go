package transport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/models"
)

// Frame topics for the outbound broadcast channel
const (
	TopicAlert  = "ALERT"
	TopicSignal = "SIGNAL"
)

// Publisher broadcasts alerts and signals as tagged text frames
// ("<TOPIC> <json>") on a single pub/sub channel. Publication is
// fire-and-forget: a failed publish is logged and never retried.
type Publisher struct {
	rdb     *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewPublisher creates a publisher on the given channel
func NewPublisher(rdb *redis.Client, channel string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		rdb:     rdb,
		channel: channel,
		logger:  logger.With().Str("component", "publisher").Logger(),
	}
}

// PublishAlert broadcasts an unsolicited sweep alert
func (p *Publisher) PublishAlert(ctx context.Context, alert models.SweepAlert) {
	p.publish(ctx, TopicAlert, alert)
}

// signalFrame is the wire body of a broadcast signal. Every outbound body
// carries type, symbol and timestamp; the symbol comes from the embedded
// signal.
type signalFrame struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	models.Signal
}

// PublishSignal broadcasts an emitted confluence signal
func (p *Publisher) PublishSignal(ctx context.Context, sig models.Signal) {
	p.publish(ctx, TopicSignal, signalFrame{
		Type:      "signal",
		Timestamp: sig.GeneratedAt,
		Signal:    sig,
	})
}

func (p *Publisher) publish(ctx context.Context, topic string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Msg("Failed to marshal outbound frame")
		return
	}

	frame := topic + " " + string(body)
	if err := p.rdb.Publish(ctx, p.channel, frame).Err(); err != nil {
		p.logger.Warn().Err(err).Str("topic", topic).Msg("Publish failed, frame dropped")
	}
}
