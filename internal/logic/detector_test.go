package logic

import (
	"testing"

	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/models"
)

func testDetector(catalogue []models.ScenarioDefinition) *ScenarioDetector {
	return NewScenarioDetector(catalogue, nil, zap.NewNop().Sugar())
}

func TestEvaluateCondition(t *testing.T) {
	cases := []struct {
		name     string
		op       models.ConditionOperator
		thresh   float64
		actual   float64
		met      bool
		margin   float64
		strength models.ConditionStrength
	}{
		{"gt strong", models.OpGT, 100, 130, true, 0.30, models.StrengthStrong},
		{"gt moderate", models.OpGT, 100, 115, true, 0.15, models.StrengthModerate},
		{"gt weak", models.OpGT, 100, 102, true, 0.02, models.StrengthWeak},
		{"gt failed", models.OpGT, 100, 100, false, 0, models.StrengthFailed},
		{"lt moderate", models.OpLT, 100, 80, true, 0.20, models.StrengthModerate},
		{"lt failed", models.OpLT, 100, 120, false, -0.20, models.StrengthFailed},
		{"gte boundary", models.OpGTE, 2, 2, true, 0, models.StrengthWeak},
		{"lte boundary", models.OpLTE, 2, 2, true, 0, models.StrengthWeak},
		{"eq met", models.OpEQ, 1, 1, true, 0, models.StrengthWeak},
		{"eq failed", models.OpEQ, 1, 0, false, 0, models.StrengthFailed},
		{"neq met", models.OpNEQ, 1, 0, true, 1, models.StrengthStrong},
		// small thresholds use denominator 1 so margins stay sane
		{"small threshold", models.OpGT, 0.2, 0.5, true, 0.3, models.StrengthStrong},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := evaluateCondition(models.ScenarioCondition{
				Metric: "m", Operator: c.op, Threshold: c.thresh,
			}, c.actual)
			if res.Met != c.met {
				t.Errorf("met = %v, want %v", res.Met, c.met)
			}
			if !approxEq(res.Margin, c.margin, 1e-9) {
				t.Errorf("margin = %v, want %v", res.Margin, c.margin)
			}
			if res.Strength != c.strength {
				t.Errorf("strength = %v, want %v", res.Strength, c.strength)
			}
		})
	}
}

func TestEvaluateModifiers(t *testing.T) {
	def := models.ScenarioDefinition{
		ID: "TEST", Name: "Test", Category: models.CategoryTactical,
		Conditions: []models.ScenarioCondition{
			{Metric: "a", Operator: models.OpGT, Threshold: 10, Description: "a clears big"},
			{Metric: "b", Operator: models.OpGT, Threshold: 10, Description: "b clears"},
			{Metric: "c", Operator: models.OpGT, Threshold: 10, Description: "c fails"},
		},
		PrimaryMarkets: []models.MarketPick{{Market: models.MarketOver25}},
		HistoricalROI:  16,
	}
	f := models.FeatureMap{"a": 20, "b": 11, "c": 5}

	eval := testDetector(nil).Evaluate(def, f)

	if eval.ConditionsMet != 2 {
		t.Fatalf("conditions met = %d, want 2", eval.ConditionsMet)
	}
	if !approxEq(eval.BaseConfidence, 200.0/3, 1e-9) {
		t.Errorf("base confidence = %v, want %v", eval.BaseConfidence, 200.0/3)
	}
	// one STRONG condition (+5) and ROI 16 (+3.2)
	if !approxEq(eval.Modifiers["strong_conditions"], 5, 1e-9) {
		t.Errorf("strong bonus = %v, want 5", eval.Modifiers["strong_conditions"])
	}
	if !approxEq(eval.Modifiers["historical_roi"], 3.2, 1e-9) {
		t.Errorf("roi bonus = %v, want 3.2", eval.Modifiers["historical_roi"])
	}
	want := 200.0/3 + 5 + 3.2
	if !approxEq(eval.AdjustedConfidence, want, 1e-9) {
		t.Errorf("adjusted = %v, want %v", eval.AdjustedConfidence, want)
	}
	if len(eval.KeyFactors) != 1 || eval.KeyFactors[0] != "a clears big" {
		t.Errorf("key factors = %v", eval.KeyFactors)
	}
}

func TestEvaluateROIPenalty(t *testing.T) {
	def := models.ScenarioDefinition{
		ID: "LOSING", Name: "Losing", Category: models.CategoryTactical,
		Conditions: []models.ScenarioCondition{
			{Metric: "a", Operator: models.OpGT, Threshold: 10},
		},
		PrimaryMarkets: []models.MarketPick{{Market: models.MarketOver25}},
		HistoricalROI:  -60,
	}
	eval := testDetector(nil).Evaluate(def, models.FeatureMap{"a": 11})

	// penalty floors at -15 even for ROI -60
	if !approxEq(eval.Modifiers["historical_roi"], -15, 1e-9) {
		t.Errorf("roi penalty = %v, want -15", eval.Modifiers["historical_roi"])
	}
	if !approxEq(eval.AdjustedConfidence, 85, 1e-9) {
		t.Errorf("adjusted = %v, want 85", eval.AdjustedConfidence)
	}
}

func TestEvaluateClampsAtHundred(t *testing.T) {
	def := CatalogueByID()["TOTAL_CHAOS"]
	f := neutralFeatures()
	f["pace_factor_combined"] = 170
	f["xg_combined"] = 4.2
	f["chaos_potential"] = 85
	f["defensive_solidity_home"] = 30
	f["defensive_solidity_away"] = 30

	eval := testDetector(nil).Evaluate(def, f)
	if eval.BaseConfidence != 100 {
		t.Errorf("base = %v, want 100", eval.BaseConfidence)
	}
	if eval.AdjustedConfidence != 100 {
		t.Errorf("adjusted should clamp at 100, got %v", eval.AdjustedConfidence)
	}
}

func TestEvaluateMissingMetric(t *testing.T) {
	def := models.ScenarioDefinition{
		ID: "GHOST", Name: "Ghost", Category: models.CategoryTactical,
		Conditions: []models.ScenarioCondition{
			{Metric: "does_not_exist", Operator: models.OpGT, Threshold: 5},
		},
		PrimaryMarkets: []models.MarketPick{{Market: models.MarketOver25}},
	}
	eval := testDetector(nil).Evaluate(def, models.FeatureMap{})

	if eval.ConditionsMet != 0 {
		t.Errorf("missing metric treated as met")
	}
	if len(eval.Warnings) == 0 {
		t.Error("expected a warning for the missing metric")
	}
}

func TestDetectChaosMatch(t *testing.T) {
	f := neutralFeatures()
	f["pace_factor_combined"] = 130
	f["xg_combined"] = 3.4
	f["chaos_potential"] = 72
	f["defensive_solidity_home"] = 45
	f["defensive_solidity_away"] = 50

	result := testDetector(ScenarioCatalogue()).Detect(f, 50)

	if result.Primary == nil || result.Primary.ScenarioID != "TOTAL_CHAOS" {
		t.Fatalf("primary = %+v, want TOTAL_CHAOS", result.Primary)
	}
	if result.Primary.ConditionsMet != 4 {
		t.Errorf("conditions met = %d, want 4", result.Primary.ConditionsMet)
	}
	if result.DecisionSource != models.SourceRuleEngine {
		t.Errorf("decision source = %v, want RULE_ENGINE", result.DecisionSource)
	}
	if result.OverallConfidence < 75 {
		t.Errorf("overall confidence = %v, want >= 75", result.OverallConfidence)
	}
}

func containsMarket(markets []models.MarketType, want models.MarketType) bool {
	for _, m := range markets {
		if m == want {
			return true
		}
	}
	return false
}

func findScenario(t *testing.T, result models.DetectionResult, id string) models.ScenarioEvaluation {
	t.Helper()
	for _, s := range result.Scenarios {
		if s.ScenarioID == id {
			return s
		}
	}
	t.Fatalf("%s not among detected scenarios", id)
	return models.ScenarioEvaluation{}
}

func TestDetectLateGameAsymmetry(t *testing.T) {
	f := neutralFeatures()
	f["diesel_factor_home"] = 0.72
	f["diesel_factor_combined"] = 1.05
	f["clutch_factor_home"] = 0.70
	f["late_punishment_potential_home"] = 2.2
	f["pressing_decay_away"] = 0.35
	f["fatigue_away"] = 0.6

	result := testDetector(ScenarioCatalogue()).Detect(f, 50)
	late := findScenario(t, result, "LATE_PUNISHMENT")
	if late.AdjustedConfidence < 65 {
		t.Errorf("confidence = %v, want >= 65", late.AdjustedConfidence)
	}

	recs, avoided := testSynth().Synthesise([]models.ScenarioEvaluation{late}, f, nil,
		SynthesiserOptions{MinEdge: 0.05, MaxRecommendations: 5, IncludeSecondary: true})
	if len(recs) == 0 {
		t.Fatal("no recommendations for a late-goal fixture")
	}
	lateWindows := map[models.MarketType]bool{
		models.MarketGoal7690:         true,
		models.MarketHome2HOver05:     true,
		models.MarketSecondHalfOver15: true,
	}
	if !lateWindows[recs[0].Market] {
		t.Errorf("top market = %s, want a late-window market", recs[0].Market)
	}
	if !containsMarket(avoided, models.MarketFirstHalfOver15) {
		t.Errorf("avoid list %v misses FIRST_HALF_OVER_15", avoided)
	}
}

func TestDetectSniperDuel(t *testing.T) {
	f := neutralFeatures()
	f["sniper_index_home"] = 78
	f["sniper_index_away"] = 74
	f["shots_on_target_combined"] = 13
	f["xg_combined"] = 3.0
	f["xga_home"] = 1.6
	f["xga_away"] = 1.6

	result := testDetector(ScenarioCatalogue()).Detect(f, 50)
	if result.Primary == nil || result.Primary.ScenarioID != "SNIPER_DUEL" {
		t.Fatalf("primary = %+v, want SNIPER_DUEL", result.Primary)
	}

	odds := map[models.MarketType]float64{models.MarketBTTSYes: 1.85}
	recs, avoided := testSynth().Synthesise([]models.ScenarioEvaluation{*result.Primary}, f, odds,
		SynthesiserOptions{MinEdge: 0.05, MaxRecommendations: 5, IncludeSecondary: true})

	var btts *models.MarketRecommendation
	for i := range recs {
		if recs[i].Market == models.MarketBTTSYes {
			btts = &recs[i]
		}
	}
	if btts == nil {
		t.Fatalf("BTTS_YES not recommended: %+v", recs)
	}
	if btts.Edge < 0.10 {
		t.Errorf("BTTS_YES edge = %v at odds 1.85, want >= 0.10", btts.Edge)
	}
	if !containsMarket(avoided, models.MarketHomeCleanSheet) || !containsMarket(avoided, models.MarketAwayCleanSheet) {
		t.Errorf("avoid list %v misses the clean-sheet markets", avoided)
	}
}

func TestDetectConservativeWall(t *testing.T) {
	f := neutralFeatures()
	f["mentality_conservative_home"] = 1
	f["clean_sheet_rate_home"] = 0.45
	f["vs_low_block_weakness_away"] = 0.60
	f["xg_combined"] = 2.0

	result := testDetector(ScenarioCatalogue()).Detect(f, 50)
	if result.Primary == nil || result.Primary.ScenarioID != "CONSERVATIVE_WALL" {
		t.Fatalf("primary = %+v, want CONSERVATIVE_WALL", result.Primary)
	}

	recs, avoided := testSynth().Synthesise([]models.ScenarioEvaluation{*result.Primary}, f, nil,
		SynthesiserOptions{MinEdge: 0.05, MaxRecommendations: 5, IncludeSecondary: true})

	found := false
	for _, r := range recs {
		if r.Market == models.MarketUnder25 {
			found = true
		}
	}
	if !found {
		t.Errorf("UNDER_25 not recommended: %+v", recs)
	}
	if !containsMarket(avoided, models.MarketBTTSYes) || !containsMarket(avoided, models.MarketOver35) {
		t.Errorf("avoid list %v misses BTTS_YES / OVER_35", avoided)
	}
}

func TestDetectHonoursScenarioFloor(t *testing.T) {
	def := models.ScenarioDefinition{
		ID: "PICKY", Name: "Picky", Category: models.CategoryTactical,
		Conditions: []models.ScenarioCondition{
			{Metric: "a", Operator: models.OpGT, Threshold: 10},
			{Metric: "b", Operator: models.OpGT, Threshold: 10},
			{Metric: "c", Operator: models.OpGT, Threshold: 10},
			{Metric: "d", Operator: models.OpGT, Threshold: 10},
		},
		PrimaryMarkets: []models.MarketPick{{Market: models.MarketOver25}},
		MinConfidence:  90,
	}
	// 3/4 met with moderate margins: adjusted confidence 75
	f := models.FeatureMap{"a": 11, "b": 11, "c": 11, "d": 5}

	result := testDetector([]models.ScenarioDefinition{def}).Detect(f, 50)
	if len(result.Scenarios) != 0 {
		t.Errorf("scenario below its own 90 floor was detected")
	}

	def.MinConfidence = 70
	result = testDetector([]models.ScenarioDefinition{def}).Detect(f, 50)
	if len(result.Scenarios) != 1 {
		t.Errorf("scenario clearing its own floor was not detected")
	}
}

func TestDetectNothingOnNeutral(t *testing.T) {
	// a fully neutral fixture should not light up betting scenarios
	result := testDetector(ScenarioCatalogue()).Detect(neutralFeatures(), 50)
	if len(result.Scenarios) != 0 {
		ids := make([]string, 0, len(result.Scenarios))
		for _, s := range result.Scenarios {
			ids = append(ids, s.ScenarioID)
		}
		t.Errorf("neutral fixture detected %v, want none", ids)
	}
	if result.DecisionSource != models.SourceMLFallback {
		t.Errorf("decision source = %v, want ML_FALLBACK", result.DecisionSource)
	}
}

func TestDetectSkipsCorruptDefinitions(t *testing.T) {
	catalogue := []models.ScenarioDefinition{
		{ID: "NO_CONDITIONS", Name: "x", PrimaryMarkets: []models.MarketPick{{Market: models.MarketOver25}}},
		{ID: "NO_MARKETS", Name: "y", Conditions: []models.ScenarioCondition{{Metric: "a", Operator: models.OpGT, Threshold: 0}}},
	}
	result := testDetector(catalogue).Detect(models.FeatureMap{"a": 1}, 0)
	if len(result.Scenarios) != 0 {
		t.Errorf("corrupt definitions evaluated: %+v", result.Scenarios)
	}
}

func TestHistoryOverrides(t *testing.T) {
	overrides := map[string]ScenarioHistory{
		"TOTAL_CHAOS": {ROI: -20, WinRate: 40, Samples: 200},
	}
	d := NewScenarioDetector(ScenarioCatalogue(), overrides, zap.NewNop().Sugar())
	def, ok := d.Definition("TOTAL_CHAOS")
	if !ok {
		t.Fatal("TOTAL_CHAOS missing")
	}
	if def.HistoricalROI != -20 || def.HistoricalWinRate != 40 {
		t.Errorf("override not applied: roi %v, win rate %v", def.HistoricalROI, def.HistoricalWinRate)
	}
}
