// Package worker implements the buffered worker pool pattern for async
// strategy logging. This decouples HTTP request handling from warehouse
// writes, providing:
// - Backpressure handling via load shedding
// - Batch inserts for efficient ClickHouse writes
// - Graceful shutdown with flush guarantees

package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/models"
)

// Prometheus metrics
var (
	strategiesQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strategy_log_queued_total",
		Help: "Total number of strategies queued for logging",
	})

	strategiesLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strategy_log_written_total",
		Help: "Total number of strategies written to the warehouse",
	})

	strategiesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strategy_log_failed_total",
		Help: "Total number of strategies that failed to persist",
	})

	strategiesShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strategy_log_shed_total",
		Help: "Total number of strategies dropped due to load shedding",
	})

	logQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "strategy_log_queue_depth",
		Help: "Current depth of the logging queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "strategy_log_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})
)

// Job wraps one finished strategy with its serialized form.
type Job struct {
	Strategy *models.MatchStrategy
	RawJSON  string
	QueuedAt time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Postgres      *pgxpool.Pool
	Redis         *redis.Client
	Logger        *zap.Logger
}

// Pool manages a pool of workers writing finished strategies to the
// warehouse and maintaining the scenario history read-model.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop gracefully shuts down the worker pool. The queue is closed first so
// workers drain everything already accepted before exiting.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	close(p.jobQueue)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Worker pool stopped")
}

// Record queues a strategy for async logging. Sheds load when the queue
// is full rather than blocking the request path.
func (p *Pool) Record(strategy *models.MatchStrategy) bool {
	rawJSON, _ := json.Marshal(strategy)

	job := Job{
		Strategy: strategy,
		RawJSON:  string(rawJSON),
		QueuedAt: time.Now(),
	}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to queue strategy (pool stopped)", "error", r)
		}
	}()

	select {
	case p.jobQueue <- job:
		strategiesQueued.Inc()
		return true
	default:
		p.logger.Warnw("Strategy log queue full, shedding", "analysis_id", strategy.AnalysisID)
		strategiesShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch processing failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			strategiesFailed.Add(float64(len(batch)))
		} else {
			strategiesLogged.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			flush()
			return
		}
	}
}

// processBatch writes one batch to ClickHouse, then fans side effects out
// to Redis and Postgres.
func (p *Pool) processBatch(batch []Job) error {
	if len(batch) == 0 {
		return nil
	}

	ctx := context.Background()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO pitchside.strategy_log (
			analyzed_at, analysis_id, home_team, away_team,
			decision_source, confidence_overall, scenarios_count,
			primary_scenario, recommendations_count, avoid_count,
			validation_score, processing_time_ms, raw_json
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		s := job.Strategy

		primaryScenario := ""
		if len(s.Scenarios) > 0 {
			primaryScenario = s.Scenarios[0].ScenarioID
		}

		err := chBatch.Append(
			s.AnalyzedAt,
			s.AnalysisID,
			s.HomeTeam,
			s.AwayTeam,
			string(s.DecisionSource),
			s.ConfidenceOverall,
			uint16(s.ScenariosCount),
			primaryScenario,
			uint16(len(s.Recommendations)),
			uint16(len(s.AvoidMarkets)),
			s.MonteCarlo.MeanValidationScore,
			uint32(s.ProcessingTimeMs),
			job.RawJSON,
		)
		if err != nil {
			p.logger.Warnw("Failed to append strategy to batch", "error", err, "analysis_id", s.AnalysisID)
			continue
		}
	}

	// Must copy: the slice is reused in the worker loop
	batchCopy := make([]Job, len(batch))
	copy(batchCopy, batch)
	go p.processBatchSideEffects(ctx, batchCopy)

	if err := chBatch.Send(); err != nil {
		p.logger.Errorw("Failed to send batch to ClickHouse", "error", err, "batchSize", len(batch))
		return err
	}

	return nil
}

// processBatchSideEffects keeps the live read-models current: per-scenario
// trigger counts in Postgres and the recent analyses feed in Redis.
func (p *Pool) processBatchSideEffects(ctx context.Context, batch []Job) {
	if len(batch) == 0 {
		return
	}

	triggered := map[string]int{}
	for _, job := range batch {
		for _, eval := range job.Strategy.Scenarios {
			triggered[eval.ScenarioID]++
		}
	}

	if p.config.Redis != nil {
		pipe := p.config.Redis.Pipeline()
		for _, job := range batch {
			pipe.LPush(ctx, "recent_analyses", job.RawJSON)
		}
		pipe.LTrim(ctx, "recent_analyses", 0, 99)

		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			p.logger.Errorw("Redis pipeline failed", "error", err)
		}
	}

	if p.config.Postgres == nil || len(triggered) == 0 {
		return
	}

	// Trigger counts feed the sample sizes behind scenario_history; ROI and
	// win rate are settled later by the results backfill once fixtures finish.
	for id, count := range triggered {
		_, err := p.config.Postgres.Exec(ctx, `
			INSERT INTO scenario_history (scenario_id, roi, win_rate, samples)
			VALUES ($1, 0, 0, $2)
			ON CONFLICT (scenario_id) DO UPDATE SET samples = scenario_history.samples + $2
		`, id, count)
		if err != nil {
			p.logger.Warnw("Failed to bump scenario samples", "scenario", id, "error", err)
		}
	}
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logQueueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
