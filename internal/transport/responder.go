package transport

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alias1177/Sentinel/models"
)

// pollTimeout bounds every blocking receive so shutdown is observed promptly
const pollTimeout = time.Second

// Scorer is the synchronous query the responder serves
type Scorer interface {
	Score(symbol string, entry float64, now time.Time) models.ScoreResponse
}

// QueryResponder serves protection-score requests over a Redis list pair:
// BLPOP on the request list, RPUSH of the response to the requested reply
// list. A malformed request gets a fixed low-confidence placeholder back
// instead of being dropped.
type QueryResponder struct {
	rdb          *redis.Client
	requestList  string
	defaultReply string
	scorer       Scorer
	logger       zerolog.Logger
}

// NewQueryResponder creates a responder on the given request list
func NewQueryResponder(rdb *redis.Client, requestList, defaultReply string, scorer Scorer, logger zerolog.Logger) *QueryResponder {
	return &QueryResponder{
		rdb:          rdb,
		requestList:  requestList,
		defaultReply: defaultReply,
		scorer:       scorer,
		logger:       logger.With().Str("component", "query_responder").Logger(),
	}
}

// Run polls for requests until the context is cancelled
func (r *QueryResponder) Run(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := r.rdb.BLPop(ctx, pollTimeout, r.requestList).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // poll timeout, check shutdown and go again
			}
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn().Err(err).Msg("Request poll failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollTimeout):
			}
			continue
		}
		r.handle(ctx, res[1])
	}
}

func (r *QueryResponder) handle(ctx context.Context, payload string) {
	now := time.Now().UTC()
	reply := r.defaultReply

	var req models.ScoreRequest
	var resp models.ScoreResponse

	err := json.Unmarshal([]byte(payload), &req)
	switch {
	case err != nil, req.Symbol == "", req.EntryPrice <= 0,
		math.IsNaN(req.EntryPrice), math.IsInf(req.EntryPrice, 0):
		r.logger.Warn().Str("payload", payload).Msg("Malformed score request")
		resp = placeholderResponse(req, now)
	default:
		if req.ReplyTo != "" {
			reply = req.ReplyTo
		}
		resp = r.scorer.Score(req.Symbol, req.EntryPrice, now)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to marshal score response")
		return
	}
	if err := r.rdb.RPush(ctx, reply, body).Err(); err != nil {
		r.logger.Warn().Err(err).Str("reply", reply).Msg("Failed to push score response")
	}
}

// placeholderResponse is the fixed low-confidence answer for requests that
// could not be parsed. The connection stays up; only this request fails.
func placeholderResponse(req models.ScoreRequest, now time.Time) models.ScoreResponse {
	return models.ScoreResponse{
		Symbol:          req.Symbol,
		EntryPrice:      req.EntryPrice,
		ProtectionScore: 1,
		RiskLevel:       "unknown",
		Recommendation:  "Request could not be parsed, do not trade on this response",
		Factors:         map[string]float64{},
		Timestamp:       now,
		Error:           models.ErrMalformedInput.Error(),
	}
}
