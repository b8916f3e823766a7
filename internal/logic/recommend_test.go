package logic

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/models"
)

func testSynth() *RecommendationSynthesiser {
	return NewRecommendationSynthesiser(zap.NewNop().Sugar())
}

func evalWith(id string, adjConf float64, recs []models.MarketPick, avoid []models.MarketType) models.ScenarioEvaluation {
	return models.ScenarioEvaluation{
		ScenarioID:         id,
		ScenarioName:       id,
		Category:           models.CategoryTactical,
		ConditionsMet:      3,
		ConditionsTotal:    4,
		AdjustedConfidence: adjConf,
		RecommendedMarkets: recs,
		AvoidMarkets:       avoid,
	}
}

func flatFeatures() models.FeatureMap {
	return models.FeatureMap{"chaos_potential": 50, "xg_combined": 2.5}
}

func TestSynthesiseAvoidWinsOverRecommend(t *testing.T) {
	evals := []models.ScenarioEvaluation{
		evalWith("A", 80, []models.MarketPick{{Market: models.MarketOver25, TypicalConfidence: 75}}, nil),
		evalWith("B", 70, nil, []models.MarketType{models.MarketOver25}),
	}

	recs, avoided := testSynth().Synthesise(evals, flatFeatures(), map[models.MarketType]float64{models.MarketOver25: 2.2}, DefaultSynthesiserOptions())

	if len(avoided) != 1 || avoided[0] != models.MarketOver25 {
		t.Fatalf("avoided = %v", avoided)
	}
	for _, r := range recs {
		if r.Market == models.MarketOver25 {
			t.Error("avoided market was still recommended")
		}
	}
}

func TestSynthesiseEdgeFilter(t *testing.T) {
	// adjConf 75 on a flat feature map prices OVER_25 at 0.55
	eval := evalWith("A", 75, []models.MarketPick{{Market: models.MarketOver25, TypicalConfidence: 75}}, nil)

	synth := testSynth()

	recs, _ := synth.Synthesise([]models.ScenarioEvaluation{eval}, flatFeatures(), map[models.MarketType]float64{models.MarketOver25: 2.0}, DefaultSynthesiserOptions())
	if len(recs) != 1 {
		t.Fatalf("odds 2.0 should clear the edge floor, got %d recs", len(recs))
	}
	if !approxEq(recs[0].CalculatedProbability, 0.55, 1e-9) {
		t.Errorf("calculated probability = %v, want 0.55", recs[0].CalculatedProbability)
	}
	if !approxEq(recs[0].Edge, 0.05, 1e-9) {
		t.Errorf("edge = %v, want 0.05", recs[0].Edge)
	}
	if !approxEq(recs[0].Confidence, 75, 1e-9) {
		t.Errorf("confidence = %v, want 75", recs[0].Confidence)
	}

	recs, _ = synth.Synthesise([]models.ScenarioEvaluation{eval}, flatFeatures(), map[models.MarketType]float64{models.MarketOver25: 1.9}, DefaultSynthesiserOptions())
	if len(recs) != 0 {
		t.Errorf("odds 1.9 edge is below 0.05, got %d recs", len(recs))
	}
}

func TestSynthesiseInvalidOddsDropped(t *testing.T) {
	eval := evalWith("A", 90, []models.MarketPick{{Market: models.MarketOver25, TypicalConfidence: 80}}, nil)
	recs, _ := testSynth().Synthesise([]models.ScenarioEvaluation{eval}, flatFeatures(), map[models.MarketType]float64{models.MarketOver25: 1.0}, DefaultSynthesiserOptions())
	if len(recs) != 0 {
		t.Errorf("odds <= 1 should drop the market, got %d recs", len(recs))
	}
}

func TestSynthesiseDedupesByMarket(t *testing.T) {
	evals := []models.ScenarioEvaluation{
		evalWith("A", 85, []models.MarketPick{{Market: models.MarketOver25, TypicalConfidence: 80}}, nil),
		evalWith("B", 70, []models.MarketPick{{Market: models.MarketOver25, TypicalConfidence: 70}}, nil),
	}

	recs, _ := testSynth().Synthesise(evals, flatFeatures(), nil, DefaultSynthesiserOptions())
	if len(recs) != 1 {
		t.Fatalf("want one deduped rec, got %d", len(recs))
	}
	got := recs[0].ContributingScenarios
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("contributing scenarios = %v", got)
	}
	// pricing comes from the first scenario that named the market
	if !approxEq(recs[0].Confidence, (80+85)/2.0, 1e-9) {
		t.Errorf("confidence = %v", recs[0].Confidence)
	}
}

func TestSynthesiseSortsByEVAndCaps(t *testing.T) {
	eval := evalWith("A", 90, []models.MarketPick{
		{Market: models.MarketOver15, TypicalConfidence: 85},
		{Market: models.MarketOver25, TypicalConfidence: 80},
		{Market: models.MarketBTTSYes, TypicalConfidence: 75},
	}, nil)

	opts := DefaultSynthesiserOptions()
	opts.MaxRecommendations = 2
	opts.MinEdge = 0.01

	features := flatFeatures()
	features["xga_home"] = 1.5
	features["xga_away"] = 1.4

	recs, _ := testSynth().Synthesise([]models.ScenarioEvaluation{eval}, features, map[models.MarketType]float64{
		models.MarketOver15:  2.0,
		models.MarketOver25:  2.0,
		models.MarketBTTSYes: 2.0,
	}, opts)

	if len(recs) != 2 {
		t.Fatalf("want 2 recs after cap, got %d", len(recs))
	}
	if recs[0].ExpectedValue < recs[1].ExpectedValue {
		t.Errorf("recs not sorted by EV desc: %v < %v", recs[0].ExpectedValue, recs[1].ExpectedValue)
	}
}

func TestSynthesiseUnknownMarketUsesDefaultOdds(t *testing.T) {
	eval := evalWith("A", 90, []models.MarketPick{{Market: models.MarketOver15, TypicalConfidence: 85}}, nil)
	recs, _ := testSynth().Synthesise([]models.ScenarioEvaluation{eval}, flatFeatures(), nil, DefaultSynthesiserOptions())
	if len(recs) != 1 {
		t.Fatalf("got %d recs", len(recs))
	}
	if recs[0].Odds != defaultOdds {
		t.Errorf("odds = %v, want %v", recs[0].Odds, defaultOdds)
	}
}

func TestStakeTierKellyPath(t *testing.T) {
	cases := []struct {
		name       string
		kellyHalf  float64
		robustness models.Robustness
		want       models.StakeTier
	}{
		{"rock solid big kelly", 0.125, models.RobustnessRockSolid, models.TierSniper}, // 0.125*24*1.0 = 3.0
		{"robust mid kelly", 0.08, models.RobustnessRobust, models.TierNormal},         // 0.08*24*0.85 = 1.632
		{"robust small kelly", 0.05, models.RobustnessRobust, models.TierSmall},        // 0.05*24*0.85 = 1.02
		{"fragile", 0.05, models.RobustnessFragile, models.TierMicro},                  // 0.05*24*0.50 = 0.6
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mc := &models.MonteCarloValidation{KellyHalf: c.kellyHalf, Robustness: c.robustness}
			if got := stakeTier(0.1, 80, mc, true); got != c.want {
				t.Errorf("tier = %v, want %v", got, c.want)
			}
		})
	}
}

func TestStakeTierFallbackPath(t *testing.T) {
	cases := []struct {
		name       string
		edge, conf float64
		want       models.StakeTier
	}{
		{"sniper", 0.13, 80, models.TierSniper}, // score 10.4
		{"normal", 0.12, 80, models.TierNormal}, // score 9.6, conf < sniper bar irrelevant
		{"small", 0.06, 55, models.TierSmall},   // score 3.3
		{"micro", 0.03, 50, models.TierMicro},   // score 1.5
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := stakeTier(c.edge, c.conf, nil, true); got != c.want {
				t.Errorf("tier = %v, want %v", got, c.want)
			}
		})
	}
}

func TestAvoidUnionDedupes(t *testing.T) {
	evals := []models.ScenarioEvaluation{
		evalWith("A", 80, nil, []models.MarketType{models.MarketUnder25, models.MarketBTTSNo}),
		evalWith("B", 70, nil, []models.MarketType{models.MarketUnder25, models.MarketDraw}),
	}
	got := avoidUnion(evals)
	want := []models.MarketType{models.MarketUnder25, models.MarketBTTSNo, models.MarketDraw}
	if len(got) != len(want) {
		t.Fatalf("union = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("union[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAvoidUnionEmptyIsNotNull(t *testing.T) {
	evals := []models.ScenarioEvaluation{
		evalWith("A", 80, []models.MarketPick{{Market: models.MarketOver25, TypicalConfidence: 70}}, nil),
	}
	_, avoided := testSynth().Synthesise(evals, flatFeatures(), nil,
		SynthesiserOptions{MinEdge: 0.01, MaxRecommendations: 5})
	if avoided == nil {
		t.Fatal("avoid list is nil and would serialise as null")
	}
	if len(avoided) != 0 {
		t.Errorf("avoid list = %v, want empty", avoided)
	}

	raw, err := json.Marshal(avoided)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "[]" {
		t.Errorf("avoid list serialises as %s, want []", raw)
	}
}
