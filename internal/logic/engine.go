package logic

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pitchside/strategy-api/internal/models"
)

// EngineConfig carries the rule-engine knobs.
type EngineConfig struct {
	MinConfidence      float64
	MinEdge            float64
	MaxRecommendations int
	MonteCarloEnabled  bool
	MonteCarlo         MonteCarloOptions
	UseKelly           bool
}

// DefaultEngineConfig mirrors the documented defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinConfidence:      50,
		MinEdge:            0.05,
		MaxRecommendations: 5,
		MonteCarloEnabled:  true,
		MonteCarlo:         DefaultMonteCarloOptions(),
		UseKelly:           true,
	}
}

// Engine is the public entry point: it composes loader, calculator,
// detector, validator and synthesiser into one synchronous pipeline.
type Engine struct {
	profiles    ProfileService
	friction    FrictionService
	calculator  *FeatureCalculator
	detector    *ScenarioDetector
	validator   *MonteCarloValidator
	synthesiser *RecommendationSynthesiser
	recorder    StrategyRecorder
	counters    *Counters
	logger      *zap.SugaredLogger

	mu  sync.RWMutex
	cfg EngineConfig
}

// EngineDeps bundles the engine's collaborators.
type EngineDeps struct {
	Profiles ProfileService
	Friction FrictionService
	History  HistoryService
	Recorder StrategyRecorder
	Counters *Counters
	Logger   *zap.SugaredLogger
}

// NewEngine wires the pipeline. Historical overrides are read once at
// construction; the detector keeps the merged catalogue.
func NewEngine(ctx context.Context, deps EngineDeps, cfg EngineConfig) *Engine {
	overrides := map[string]ScenarioHistory{}
	if deps.History != nil {
		overrides = deps.History.Overrides(ctx)
	}
	counters := deps.Counters
	if counters == nil {
		counters = NewCounters(nil)
	}
	return &Engine{
		profiles:    deps.Profiles,
		friction:    deps.Friction,
		calculator:  NewFeatureCalculator(),
		detector:    NewScenarioDetector(ScenarioCatalogue(), overrides, deps.Logger),
		validator:   NewMonteCarloValidator(deps.Logger),
		synthesiser: NewRecommendationSynthesiser(deps.Logger),
		recorder:    deps.Recorder,
		counters:    counters,
		logger:      deps.Logger,
		cfg:         cfg,
	}
}

// Detector exposes the catalogue for the /scenarios endpoints.
func (e *Engine) Detector() *ScenarioDetector { return e.detector }

// Validator exposes the Monte Carlo validator for the stand-alone endpoint.
func (e *Engine) Validator() *MonteCarloValidator { return e.validator }

// Counters exposes the running totals.
func (e *Engine) Counters() *Counters { return e.counters }

// Config returns a copy of the current engine configuration.
func (e *Engine) Config() EngineConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// UpdateMonteCarlo applies the runtime configuration request.
func (e *Engine) UpdateMonteCarlo(req models.MonteCarloConfigRequest) EngineConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	if req.Enabled != nil {
		e.cfg.MonteCarloEnabled = *req.Enabled
	}
	if req.Simulations != nil {
		e.cfg.MonteCarlo.Simulations = *req.Simulations
	}
	if req.NoiseLevel != nil {
		e.cfg.MonteCarlo.NoiseLevel = *req.NoiseLevel
	}
	if req.MinValidationScore != nil {
		e.cfg.MonteCarlo.MinValidationScore = *req.MinValidationScore
	}
	if req.MinSuccessRate != nil {
		e.cfg.MonteCarlo.MinSuccessRate = *req.MinSuccessRate
	}
	if req.StressTestRequired != nil {
		e.cfg.MonteCarlo.StressTest = *req.StressTestRequired
	}
	if req.UseKelly != nil {
		e.cfg.UseKelly = *req.UseKelly
	}
	return e.cfg
}

// Analyze runs the full pipeline for one fixture. quick swaps in the
// reduced Monte Carlo budget. On cancellation the partial strategy built
// so far is returned together with the context error.
func (e *Engine) Analyze(ctx context.Context, req models.AnalyzeRequest, quick bool) (*models.MatchStrategy, error) {
	start := time.Now()
	cfg := e.Config()

	strategy := &models.MatchStrategy{
		AnalysisID:      uuid.NewString(),
		HomeTeam:        CanonicalName(req.HomeTeam),
		AwayTeam:        CanonicalName(req.AwayTeam),
		DecisionSource:  models.SourceMLFallback,
		AvoidMarkets:    []models.MarketType{},
		Recommendations: []models.MarketRecommendation{},
		Scenarios:       []models.ScenarioEvaluation{},
		AnalyzedAt:      time.Now().UTC(),
	}
	finish := func() *models.MatchStrategy {
		strategy.ProcessingTimeMs = time.Since(start).Milliseconds()
		return strategy
	}

	// phase 1: the two profile loads share no state and run concurrently
	var home, away *models.TeamProfile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		home, err = e.profiles.Load(gctx, req.HomeTeam)
		return err
	})
	g.Go(func() error {
		var err error
		away, err = e.profiles.Load(gctx, req.AwayTeam)
		return err
	})
	if err := g.Wait(); err != nil {
		return finish(), err
	}
	strategy.HomeTeam = home.Name
	strategy.AwayTeam = away.Name
	strategy.HomeDataQuality = home.DataQuality
	strategy.AwayDataQuality = away.DataQuality

	if err := ctx.Err(); err != nil {
		return finish(), err
	}

	// insufficient data degrades to an empty fallback strategy
	if home.DataQuality == models.QualityInsufficient || away.DataQuality == models.QualityInsufficient {
		strategy.ConfidenceOverall = (home.DataCompleteness + away.DataCompleteness) / 2 / 4
		e.counters.Add(ctx, 1, 0, 0, 0)
		e.record(strategy)
		return finish(), nil
	}

	// phase 2: friction + features
	friction := e.friction.Get(ctx, home.Name, away.Name)
	matchCtx := parseContext(req.Context)
	features := e.calculator.Calculate(home, away, friction, matchCtx)

	if err := ctx.Err(); err != nil {
		return finish(), err
	}

	// phase 3: detection
	detection := e.detector.Detect(features, cfg.MinConfidence)
	strategy.DecisionSource = detection.DecisionSource
	strategy.ConfidenceOverall = detection.OverallConfidence
	detectedCount := int64(len(detection.Scenarios))

	if err := ctx.Err(); err != nil {
		strategy.Scenarios = detection.Scenarios
		strategy.ScenariosCount = len(detection.Scenarios)
		return finish(), err
	}

	odds := parseOdds(req.Odds, e.logger)

	// phase 4: Monte Carlo validation filters the detected list
	mcOpts := cfg.MonteCarlo
	if quick {
		mcOpts = QuickMonteCarloOptions()
		mcOpts.MinValidationScore = cfg.MonteCarlo.MinValidationScore
		mcOpts.MinSuccessRate = cfg.MonteCarlo.MinSuccessRate
	}
	if req.Seed != nil {
		mcOpts.Seed = req.Seed
	}

	scenarios := detection.Scenarios
	var validated, rejected int64
	if cfg.MonteCarloEnabled && mcOpts.Simulations >= mcMinSimulations {
		scenarios, validated, rejected = e.validate(ctx, detection.Scenarios, features, odds, mcOpts, &strategy.MonteCarlo)
		strategy.MonteCarlo.Enabled = true
	}

	strategy.Scenarios = scenarios
	strategy.ScenariosCount = len(scenarios)

	if err := ctx.Err(); err != nil {
		return finish(), err
	}

	// phase 5: synthesis
	recs, avoided := e.synthesiser.Synthesise(scenarios, features, odds, SynthesiserOptions{
		MinEdge:            cfg.MinEdge,
		MaxRecommendations: cfg.MaxRecommendations,
		UseKelly:           cfg.UseKelly,
		IncludeSecondary:   true,
	})
	strategy.Recommendations = recs
	strategy.AvoidMarkets = avoided

	e.counters.Add(ctx, 1, detectedCount, validated, rejected)
	e.record(strategy)
	return finish(), nil
}

// validate runs Monte Carlo per scenario, keeps the survivors in rank
// order and fills the per-match summary.
func (e *Engine) validate(ctx context.Context, scenarios []models.ScenarioEvaluation, features models.FeatureMap, odds map[models.MarketType]float64, opts MonteCarloOptions, summary *models.MonteCarloSummary) ([]models.ScenarioEvaluation, int64, int64) {
	var kept []models.ScenarioEvaluation
	var validated, rejected int64
	summary.RobustnessCounts = map[models.Robustness]int{}

	// re-derive per-scenario seeds so one caller seed still yields
	// distinct but reproducible trial streams
	for i := range scenarios {
		eval := scenarios[i]
		scenarioOpts := opts
		if opts.Seed != nil {
			s := *opts.Seed + int64(i)*15485863
			scenarioOpts.Seed = &s
		}

		def, ok := e.defFor(eval.ScenarioID)
		if !ok {
			kept = append(kept, eval)
			continue
		}
		val := e.validator.Validate(ctx, def, features, leadOdds(eval, odds), scenarioOpts)
		eval.MonteCarlo = &val

		summary.MeanValidationScore += val.ValidationScore
		summary.MeanSuccessRate += val.SuccessRate
		summary.RobustnessCounts[val.Robustness]++
		summary.AggregateKellyHalf += val.KellyHalf
		switch val.StressTest {
		case models.StressPassed:
			summary.StressPassed++
		case models.StressFailed:
			summary.StressFailed++
		}

		if IsRejected(val, scenarioOpts) {
			rejected++
			e.logger.Infow("scenario rejected by monte carlo",
				"scenario", eval.ScenarioID,
				"score", val.ValidationScore,
				"success_rate", val.SuccessRate,
				"robustness", val.Robustness)
			continue
		}
		validated++
		kept = append(kept, eval)
	}

	total := validated + rejected
	if total > 0 {
		summary.MeanValidationScore /= float64(total)
		summary.MeanSuccessRate /= float64(total)
	}
	summary.ScenariosValidated = int(validated)
	summary.ScenariosRejected = int(rejected)
	return kept, validated, rejected
}

func (e *Engine) defFor(id string) (models.ScenarioDefinition, bool) {
	for _, def := range e.detector.Catalogue() {
		if def.ID == id {
			return def, true
		}
	}
	return models.ScenarioDefinition{}, false
}

// leadOdds picks the price of the scenario's first primary market.
func leadOdds(eval models.ScenarioEvaluation, odds map[models.MarketType]float64) float64 {
	if len(eval.RecommendedMarkets) == 0 {
		return defaultOdds
	}
	if price, ok := odds[eval.RecommendedMarkets[0].Market]; ok && price > 1 {
		return price
	}
	return defaultOdds
}

func (e *Engine) record(strategy *models.MatchStrategy) {
	if e.recorder == nil {
		return
	}
	if !e.recorder.Record(strategy) {
		e.logger.Warnw("strategy log queue full, dropping record", "analysis_id", strategy.AnalysisID)
	}
}

// parseContext reads the recognised context options; others are ignored.
func parseContext(raw map[string]any) models.MatchContext {
	ctx := models.DefaultContext()
	if raw == nil {
		return ctx
	}
	if v, ok := asInt(raw["rest_days_home"]); ok && v > 0 {
		ctx.RestDaysHome = v
	}
	if v, ok := asInt(raw["rest_days_away"]); ok && v > 0 {
		ctx.RestDaysAway = v
	}
	if v, ok := raw["is_european_week_home"].(bool); ok {
		ctx.IsEuropeanWeekHome = v
	}
	if v, ok := raw["is_european_week_away"].(bool); ok {
		ctx.IsEuropeanWeekAway = v
	}
	if v, ok := raw["importance"].(string); ok {
		switch models.MatchImportance(v) {
		case models.ImportanceLow, models.ImportanceNormal, models.ImportanceHigh, models.ImportanceCritical:
			ctx.Importance = models.MatchImportance(v)
		}
	}
	if v, ok := raw["weather"].(string); ok {
		ctx.Weather = v
	}
	return ctx
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// parseOdds keeps positive decimal odds; invalid prices are dropped with
// a warning and unknown market names pass through harmlessly.
func parseOdds(raw map[string]float64, logger *zap.SugaredLogger) map[models.MarketType]float64 {
	out := map[models.MarketType]float64{}
	for name, price := range raw {
		if price <= 1 {
			logger.Warnw("ignoring invalid odds", "market", name, "odds", price)
			continue
		}
		out[models.MarketType(name)] = price
	}
	return out
}
