package handlers

import (
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/logic"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// StrategyQueue is the slice of the worker pool the handlers need.
type StrategyQueue interface {
	QueueDepth() int
}

type Config struct {
	Engine     *logic.Engine
	Profiles   logic.ProfileService
	WorkerPool StrategyQueue
	Postgres   *pgxpool.Pool
	ClickHouse driver.Conn
	Redis      *redis.Client
	Logger     *zap.Logger
	BatchLimit int
}

type Handler struct {
	engine     *logic.Engine
	profiles   logic.ProfileService
	pool       StrategyQueue
	pg         *pgxpool.Pool
	ch         driver.Conn
	redis      *redis.Client
	logger     *zap.SugaredLogger
	validator  *validator.Validate
	batchLimit int
}

func New(cfg Config) *Handler {
	limit := cfg.BatchLimit
	if limit <= 0 {
		limit = 20
	}
	return &Handler{
		engine:     cfg.Engine,
		profiles:   cfg.Profiles,
		pool:       cfg.WorkerPool,
		pg:         cfg.Postgres,
		ch:         cfg.ClickHouse,
		redis:      cfg.Redis,
		logger:     cfg.Logger.Sugar(),
		validator:  validator.New(),
		batchLimit: limit,
	}
}
