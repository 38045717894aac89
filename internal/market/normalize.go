package market

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/Alias1177/Sentinel/models"
)

// rawTick mirrors the inbound feed message. Unknown fields are ignored;
// timestamp is optional and may arrive as unix seconds.
type rawTick struct {
	Symbol    string   `json:"symbol"`
	Bid       *float64 `json:"bid"`
	Ask       *float64 `json:"ask"`
	Volume    float64  `json:"volume"`
	Timestamp int64    `json:"timestamp"`
}

// Normalize parses and validates one raw feed message. Any missing or
// non-finite required field yields ErrMalformedInput; the caller drops the
// message and moves on.
func Normalize(raw []byte, received time.Time) (models.Tick, error) {
	var r rawTick
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.Tick{}, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}

	if r.Symbol == "" {
		return models.Tick{}, fmt.Errorf("%w: missing symbol", models.ErrMalformedInput)
	}
	if r.Bid == nil || r.Ask == nil {
		return models.Tick{}, fmt.Errorf("%w: missing bid/ask", models.ErrMalformedInput)
	}
	if !isFinite(*r.Bid) || !isFinite(*r.Ask) || !isFinite(r.Volume) {
		return models.Tick{}, fmt.Errorf("%w: non-finite numeric field", models.ErrMalformedInput)
	}
	if *r.Bid <= 0 || *r.Ask <= 0 {
		return models.Tick{}, fmt.Errorf("%w: non-positive price", models.ErrMalformedInput)
	}
	if r.Volume < 0 {
		return models.Tick{}, fmt.Errorf("%w: negative volume", models.ErrMalformedInput)
	}

	ts := received
	if r.Timestamp > 0 {
		ts = time.Unix(r.Timestamp, 0).UTC()
	}

	return models.Tick{
		Symbol:    r.Symbol,
		Bid:       *r.Bid,
		Ask:       *r.Ask,
		Volume:    r.Volume,
		Timestamp: ts,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
