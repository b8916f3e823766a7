package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/models"
)

func strongProfile(name string) *models.TeamProfile {
	return &models.TeamProfile{
		Name:   CanonicalName(name),
		League: "premier-league",
		Season: "2025-2026",
		Offensive: models.OffensiveProfile{
			Shots:            16,
			ShotsOnTarget:    7,
			DangerousAttacks: 60,
			XGPerMatch:       models.NewConfidentMetric(1.9, 30),
			ConversionRate:   12,
		},
		Defensive: models.DefensiveProfile{
			XGAPerMatch: models.NewConfidentMetric(1.5, 30),
		},
		Possession: models.PossessionProfile{
			AvgPossession: 55,
			PassAccuracy:  84,
		},
		Coach: models.CoachProfile{
			FormationPrimary:  "4-3-3",
			StructureRigidity: 50,
			KillerInstinct:    60,
			ResilienceIndex:   60,
		},
		Context:          models.ContextProfile{LeaguePosition: 5, PPG: 1.8},
		DataQuality:      models.QualityHigh,
		DataCompleteness: 92,
	}
}

func thinProfile(name string) *models.TeamProfile {
	return &models.TeamProfile{
		Name:             CanonicalName(name),
		DataQuality:      models.QualityInsufficient,
		DataCompleteness: 40,
	}
}

func chaoticFriction(home, away string) *models.FrictionRecord {
	rec := models.NeutralFriction(home, away)
	rec.ChaosPotential = 72
	rec.KineticFrictionHome = 55
	rec.KineticFrictionAway = 55
	rec.PredictedGoals = 3.2
	return &rec
}

func newTestEngine(profiles map[string]*models.TeamProfile, friction *models.FrictionRecord, recorder StrategyRecorder) *Engine {
	deps := EngineDeps{
		Profiles: &mockProfiles{profiles: profiles},
		Friction: &mockFriction{rec: friction},
		History:  &mockHistory{},
		Recorder: recorder,
		Logger:   zap.NewNop().Sugar(),
	}
	return NewEngine(context.Background(), deps, DefaultEngineConfig())
}

func TestAnalyzeInsufficientDataFallback(t *testing.T) {
	recorder := &mockRecorder{}
	engine := newTestEngine(map[string]*models.TeamProfile{
		"arsenal": thinProfile("Arsenal"),
		"burnley": strongProfile("Burnley"),
	}, nil, recorder)

	strategy, err := engine.Analyze(context.Background(), models.AnalyzeRequest{HomeTeam: "Arsenal", AwayTeam: "Burnley"}, true)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if strategy.DecisionSource != models.SourceMLFallback {
		t.Errorf("source = %v, want ML_FALLBACK", strategy.DecisionSource)
	}
	// (40 + 92) / 2 / 4
	if !approxEq(strategy.ConfidenceOverall, 16.5, 1e-9) {
		t.Errorf("fallback confidence = %v, want 16.5", strategy.ConfidenceOverall)
	}
	if len(strategy.Scenarios) != 0 || len(strategy.Recommendations) != 0 {
		t.Error("fallback strategy should carry no scenarios or recommendations")
	}
	if strategy.AnalysisID == "" {
		t.Error("missing analysis id")
	}
	if recorder.count() != 1 {
		t.Errorf("recorder called %d times, want 1", recorder.count())
	}
}

func TestAnalyzeProfileLoadError(t *testing.T) {
	engine := newTestEngine(map[string]*models.TeamProfile{
		"arsenal": strongProfile("Arsenal"),
	}, nil, nil)

	strategy, err := engine.Analyze(context.Background(), models.AnalyzeRequest{HomeTeam: "Arsenal", AwayTeam: "Nowhere FC"}, true)
	if err == nil {
		t.Fatal("want error for missing profile")
	}
	if strategy == nil {
		t.Fatal("partial strategy must still be returned")
	}
}

func TestAnalyzeChaoticFixtureDeterministic(t *testing.T) {
	profiles := map[string]*models.TeamProfile{
		"liverpool":       strongProfile("Liverpool"),
		"manchester city": strongProfile("Manchester City"),
	}
	recorder := &mockRecorder{}
	engine := newTestEngine(profiles, chaoticFriction("liverpool", "manchester city"), recorder)

	seed := int64(20260828)
	req := models.AnalyzeRequest{
		HomeTeam: "Liverpool",
		AwayTeam: "Manchester City",
		Odds:     map[string]float64{string(models.MarketOver25): 2.1},
		Seed:     &seed,
	}

	first, err := engine.Analyze(context.Background(), req, true)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if first.ScenariosCount == 0 {
		t.Fatal("chaotic fixture detected no scenarios")
	}
	var chaos *models.ScenarioEvaluation
	for i := range first.Scenarios {
		if first.Scenarios[i].ScenarioID == "TOTAL_CHAOS" {
			chaos = &first.Scenarios[i]
		}
	}
	if chaos == nil {
		t.Fatalf("TOTAL_CHAOS not among %d detected scenarios", first.ScenariosCount)
	}
	if chaos.MonteCarlo == nil {
		t.Fatal("surviving scenario carries no validation")
	}
	if !chaos.MonteCarlo.IsValidated {
		t.Errorf("TOTAL_CHAOS not validated: score %v", chaos.MonteCarlo.ValidationScore)
	}
	if !first.MonteCarlo.Enabled || first.MonteCarlo.ScenariosValidated == 0 {
		t.Errorf("monte carlo summary = %+v", first.MonteCarlo)
	}
	if first.DecisionSource == models.SourceMLFallback {
		t.Errorf("decision source = %v", first.DecisionSource)
	}
	if len(first.Recommendations) == 0 {
		t.Error("no recommendations for a validated chaos fixture")
	}
	if recorder.count() != 1 {
		t.Errorf("recorder called %d times, want 1", recorder.count())
	}

	second, err := engine.Analyze(context.Background(), req, true)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if first.ScenariosCount != second.ScenariosCount {
		t.Fatalf("scenario counts differ: %d vs %d", first.ScenariosCount, second.ScenariosCount)
	}
	for i := range first.Scenarios {
		a, b := first.Scenarios[i], second.Scenarios[i]
		if a.ScenarioID != b.ScenarioID {
			t.Fatalf("scenario order differs at %d: %s vs %s", i, a.ScenarioID, b.ScenarioID)
		}
		if a.MonteCarlo == nil || b.MonteCarlo == nil {
			continue
		}
		if a.MonteCarlo.ValidationScore != b.MonteCarlo.ValidationScore {
			t.Errorf("%s: seeded runs produced different scores: %v vs %v", a.ScenarioID, a.MonteCarlo.ValidationScore, b.MonteCarlo.ValidationScore)
		}
	}
	if len(first.Recommendations) != len(second.Recommendations) {
		t.Fatalf("recommendation counts differ: %d vs %d", len(first.Recommendations), len(second.Recommendations))
	}
	for i := range first.Recommendations {
		if first.Recommendations[i].Market != second.Recommendations[i].Market {
			t.Errorf("recommendation order differs at %d", i)
		}
	}
}

func TestAnalyzeSameSeedIdenticalPayload(t *testing.T) {
	profiles := map[string]*models.TeamProfile{
		"liverpool":       strongProfile("Liverpool"),
		"manchester city": strongProfile("Manchester City"),
	}
	engine := newTestEngine(profiles, chaoticFriction("liverpool", "manchester city"), nil)

	seed := int64(42)
	req := models.AnalyzeRequest{
		HomeTeam: "Liverpool",
		AwayTeam: "Manchester City",
		Odds:     map[string]float64{string(models.MarketOver25): 2.1},
		Seed:     &seed,
	}

	// only the per-run identifier and timestamps may differ between runs
	marshal := func(s *models.MatchStrategy) []byte {
		t.Helper()
		s.AnalysisID = ""
		s.AnalyzedAt = time.Time{}
		s.ProcessingTimeMs = 0
		raw, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal strategy: %v", err)
		}
		return raw
	}

	first, err := engine.Analyze(context.Background(), req, true)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := engine.Analyze(context.Background(), req, true)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if a, b := marshal(first), marshal(second); !bytes.Equal(a, b) {
		t.Errorf("same-seed payloads differ:\n%s\n%s", a, b)
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	engine := newTestEngine(map[string]*models.TeamProfile{
		"arsenal": strongProfile("Arsenal"),
		"burnley": strongProfile("Burnley"),
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strategy, err := engine.Analyze(ctx, models.AnalyzeRequest{HomeTeam: "Arsenal", AwayTeam: "Burnley"}, true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if strategy == nil {
		t.Fatal("partial strategy must still be returned")
	}
}

func TestAnalyzeRecorderFullDoesNotFail(t *testing.T) {
	recorder := &mockRecorder{full: true}
	engine := newTestEngine(map[string]*models.TeamProfile{
		"arsenal": strongProfile("Arsenal"),
		"burnley": strongProfile("Burnley"),
	}, nil, recorder)

	if _, err := engine.Analyze(context.Background(), models.AnalyzeRequest{HomeTeam: "Arsenal", AwayTeam: "Burnley"}, true); err != nil {
		t.Fatalf("Analyze with saturated recorder: %v", err)
	}
}

func TestUpdateMonteCarlo(t *testing.T) {
	engine := newTestEngine(map[string]*models.TeamProfile{}, nil, nil)

	enabled := false
	sims := 2000
	noise := 0.25
	useKelly := false
	cfg := engine.UpdateMonteCarlo(models.MonteCarloConfigRequest{
		Enabled:     &enabled,
		Simulations: &sims,
		NoiseLevel:  &noise,
		UseKelly:    &useKelly,
	})

	if cfg.MonteCarloEnabled {
		t.Error("enabled flag not applied")
	}
	if cfg.MonteCarlo.Simulations != 2000 || cfg.MonteCarlo.NoiseLevel != 0.25 {
		t.Errorf("monte carlo opts = %+v", cfg.MonteCarlo)
	}
	if cfg.UseKelly {
		t.Error("kelly flag not applied")
	}
	if got := engine.Config(); got.MonteCarlo.Simulations != 2000 {
		t.Error("Config() does not reflect the update")
	}
}

func TestParseContext(t *testing.T) {
	// JSON numbers decode as float64
	ctx := parseContext(map[string]any{
		"rest_days_home":        float64(3),
		"rest_days_away":        4,
		"is_european_week_away": true,
		"importance":            "HIGH",
		"weather":               "rain",
		"unknown_key":           "ignored",
	})
	if ctx.RestDaysHome != 3 || ctx.RestDaysAway != 4 {
		t.Errorf("rest days = %d/%d", ctx.RestDaysHome, ctx.RestDaysAway)
	}
	if ctx.IsEuropeanWeekHome || !ctx.IsEuropeanWeekAway {
		t.Errorf("european weeks = %v/%v", ctx.IsEuropeanWeekHome, ctx.IsEuropeanWeekAway)
	}
	if ctx.Importance != models.ImportanceHigh {
		t.Errorf("importance = %v", ctx.Importance)
	}

	if got := parseContext(nil); got != models.DefaultContext() {
		t.Errorf("nil context = %+v", got)
	}
	if got := parseContext(map[string]any{"importance": "BOGUS"}); got.Importance != models.ImportanceNormal {
		t.Errorf("invalid importance accepted: %v", got.Importance)
	}
}

func TestParseOdds(t *testing.T) {
	out := parseOdds(map[string]float64{
		"OVER_25":  2.05,
		"BTTS_YES": 0.9, // invalid, dropped
		"HOME_WIN": 1.0, // invalid, dropped
	}, zap.NewNop().Sugar())

	if len(out) != 1 {
		t.Fatalf("parsed odds = %v", out)
	}
	if out[models.MarketOver25] != 2.05 {
		t.Errorf("OVER_25 = %v", out[models.MarketOver25])
	}
}

func TestLeadOdds(t *testing.T) {
	eval := models.ScenarioEvaluation{RecommendedMarkets: []models.MarketPick{{Market: models.MarketOver25}}}

	if got := leadOdds(eval, map[models.MarketType]float64{models.MarketOver25: 1.85}); got != 1.85 {
		t.Errorf("leadOdds = %v, want 1.85", got)
	}
	if got := leadOdds(eval, nil); got != defaultOdds {
		t.Errorf("leadOdds without prices = %v, want %v", got, defaultOdds)
	}
	if got := leadOdds(models.ScenarioEvaluation{}, nil); got != defaultOdds {
		t.Errorf("leadOdds without markets = %v, want %v", got, defaultOdds)
	}
}
