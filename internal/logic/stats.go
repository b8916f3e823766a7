package logic

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/pitchside/strategy-api/internal/models"
)

const (
	statKeyAnalyses  = "stats:analyses"
	statKeyDetected  = "stats:scenarios_detected"
	statKeyValidated = "stats:scenarios_validated"
	statKeyRejected  = "stats:scenarios_rejected"
)

// Counters tracks the running totals behind GET /stats. Redis keeps them
// across restarts; the atomics answer when Redis is absent or down.
type Counters struct {
	redis RedisClient

	analyses  atomic.Int64
	detected  atomic.Int64
	validated atomic.Int64
	rejected  atomic.Int64
}

func NewCounters(redis RedisClient) *Counters {
	return &Counters{redis: redis}
}

func (c *Counters) Add(ctx context.Context, analyses, detected, validated, rejected int64) {
	c.analyses.Add(analyses)
	c.detected.Add(detected)
	c.validated.Add(validated)
	c.rejected.Add(rejected)

	if c.redis == nil {
		return
	}
	for key, delta := range map[string]int64{
		statKeyAnalyses:  analyses,
		statKeyDetected:  detected,
		statKeyValidated: validated,
		statKeyRejected:  rejected,
	} {
		if delta != 0 {
			c.redis.IncrBy(ctx, key, delta)
		}
	}
}

// Snapshot prefers the Redis totals and falls back to process-local counts.
func (c *Counters) Snapshot(ctx context.Context) models.EngineStats {
	local := models.EngineStats{
		Analyses:           c.analyses.Load(),
		ScenariosDetected:  c.detected.Load(),
		ScenariosValidated: c.validated.Load(),
		ScenariosRejected:  c.rejected.Load(),
	}
	if c.redis == nil {
		return local
	}

	vals, err := c.redis.MGet(ctx, statKeyAnalyses, statKeyDetected, statKeyValidated, statKeyRejected).Result()
	if err != nil || len(vals) != 4 {
		return local
	}
	parse := func(v any, fallback int64) int64 {
		s, ok := v.(string)
		if !ok {
			return fallback
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fallback
		}
		return n
	}
	return models.EngineStats{
		Analyses:           parse(vals[0], local.Analyses),
		ScenariosDetected:  parse(vals[1], local.ScenariosDetected),
		ScenariosValidated: parse(vals[2], local.ScenariosValidated),
		ScenariosRejected:  parse(vals[3], local.ScenariosRejected),
	}
}
