package models

import (
	"errors"
	"time"
)

// Config holds all application configuration
type Config struct {
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	TicksChannel   string `env:"TICKS_CHANNEL" envDefault:"ticks"`
	SignalsChannel string `env:"SIGNALS_CHANNEL" envDefault:"signals"`
	RequestsList   string `env:"REQUESTS_LIST" envDefault:"protection:requests"`
	ResponsesList  string `env:"RESPONSES_LIST" envDefault:"protection:responses"`

	TickBufferSize  int `env:"TICK_BUFFER_SIZE" envDefault:"1000"`
	CandleHistory   int `env:"CANDLE_HISTORY" envDefault:"500"`
	ZoneCap         int `env:"ZONE_CAP" envDefault:"20"`
	SwingLookback   int `env:"SWING_LOOKBACK" envDefault:"5"`
	StructureWindow int `env:"STRUCTURE_WINDOW" envDefault:"50"`

	SweepBreachPips float64 `env:"SWEEP_BREACH_PIPS" envDefault:"3"`
	SweepLookback   int     `env:"SWEEP_LOOKBACK" envDefault:"5"`
	SweepTTLHours   int     `env:"SWEEP_TTL_HOURS" envDefault:"24"`
	ZoneStaleHours  int     `env:"ZONE_STALE_HOURS" envDefault:"24"`

	MinSignalGapMin     int     `env:"MIN_SIGNAL_GAP_MIN" envDefault:"15"`
	DailySignalCap      int     `env:"DAILY_SIGNAL_CAP" envDefault:"10"`
	ConfidenceThreshold float64 `env:"CONFIDENCE_THRESHOLD" envDefault:"0.6"`
	MinFactors          int     `env:"MIN_FACTORS" envDefault:"3"`

	MaintenanceIntervalMin int    `env:"MAINTENANCE_INTERVAL_MIN" envDefault:"5"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`

	DBHost     string `env:"DB_HOST" envDefault:""`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:""`
	DBPassword string `env:"DB_PASSWORD" envDefault:""`
	DBName     string `env:"DB_NAME" envDefault:""`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// Error taxonomy. Every failure in the pipeline maps onto one of these and
// is matched with errors.Is at the stage that handles it.
var (
	ErrMalformedInput = errors.New("malformed input")
	ErrStateNotFound  = errors.New("no state for instrument")
)

// Timeframe identifies one of the aggregated candle series
type Timeframe string

const (
	M1  Timeframe = "M1"
	M5  Timeframe = "M5"
	M15 Timeframe = "M15"
	H1  Timeframe = "H1"
	H4  Timeframe = "H4"
	D1  Timeframe = "D1"
)

// Timeframes lists every series the aggregator maintains, finest first
var Timeframes = []Timeframe{M1, M5, M15, H1, H4, D1}

// Duration returns the bucket width of the timeframe
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case M1:
		return time.Minute
	case M5:
		return 5 * time.Minute
	case M15:
		return 15 * time.Minute
	case H1:
		return time.Hour
	case H4:
		return 4 * time.Hour
	case D1:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Tick is a single normalized quote. Immutable once created.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Mid returns the mid price used for candle aggregation
func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// Candle represents a single price candle for one (symbol, timeframe) bucket
type Candle struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	OpenTime  time.Time `json:"open_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// ZoneKind tells which side of price a liquidity zone sits on
type ZoneKind string

const (
	ZoneSupport    ZoneKind = "support"
	ZoneResistance ZoneKind = "resistance"
)

// LiquidityZone is a price level built from one or more swing points.
// Strength stays within [0,10]; Swept transitions false->true exactly once.
type LiquidityZone struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Kind       ZoneKind  `json:"kind"`
	Strength   float64   `json:"strength"`
	CreatedAt  time.Time `json:"created_at"`
	LastTestAt time.Time `json:"last_test_at"`
	TestCount  int       `json:"test_count"`
	Swept      bool      `json:"swept"`
	SweptAt    time.Time `json:"swept_at,omitempty"`
}

// SweepKind classifies a liquidity grab by the side that was harvested
type SweepKind string

const (
	SweepBullish SweepKind = "bullish" // stops below support taken out
	SweepBearish SweepKind = "bearish" // stops above resistance taken out
)

// MarketSweep records a confirmed breach-and-reversal through a zone.
// Created exactly once per zone, retained with a rolling expiry.
type MarketSweep struct {
	Symbol    string    `json:"symbol"`
	Kind      SweepKind `json:"kind"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Signal is an emitted confluence signal. Immutable once emitted.
type Signal struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Direction   string    `json:"direction"`
	Confidence  float64   `json:"confidence"`
	Factors     []string  `json:"factors"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SweepAlert is the wire body of an unsolicited sweep alert
type SweepAlert struct {
	Type         string    `json:"type"`
	Symbol       string    `json:"symbol"`
	SweepType    SweepKind `json:"sweep_type"`
	Price        float64   `json:"price"`
	ZoneStrength float64   `json:"zone_strength"`
	Timestamp    time.Time `json:"timestamp"`
}

// ScoreRequest is a synchronous protection-score query
type ScoreRequest struct {
	Symbol     string  `json:"symbol"`
	EntryPrice float64 `json:"entry_price"`
	ReplyTo    string  `json:"reply_to,omitempty"`
}

// ScoreResponse carries the bounded protection score plus its breakdown.
// Pure function of current state; nothing here is persisted.
type ScoreResponse struct {
	Symbol          string             `json:"symbol"`
	EntryPrice      float64            `json:"entry_price"`
	ProtectionScore float64            `json:"protection_score"`
	RiskLevel       string             `json:"risk_level"`
	Recommendation  string             `json:"recommendation"`
	Factors         map[string]float64 `json:"factors"`
	Timestamp       time.Time          `json:"timestamp"`
	Error           string             `json:"error,omitempty"`
}
