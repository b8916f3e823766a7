package logic

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/pitchside/strategy-api/internal/models"
)

// PgPool defines the interface for PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RedisClient defines the interface for Redis client
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	IncrBy(ctx context.Context, key string, value int64) *redis.IntCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// ProfileService loads team fingerprints.
type ProfileService interface {
	Load(ctx context.Context, teamName string) (*models.TeamProfile, error)
	Invalidate(ctx context.Context, teamName string)
}

// FrictionService looks up precomputed matchup records.
type FrictionService interface {
	Get(ctx context.Context, home, away string) models.FrictionRecord
}

// HistoryService provides per-scenario historical performance overrides.
type HistoryService interface {
	Overrides(ctx context.Context) map[string]ScenarioHistory
}

// ScenarioHistory is one row of the historical-performance table.
type ScenarioHistory struct {
	ROI     float64
	WinRate float64
	Samples int
}

// StrategyRecorder receives finished strategies for async logging.
// The worker pool implements it; a nil recorder is tolerated.
type StrategyRecorder interface {
	Record(strategy *models.MatchStrategy) bool
}
