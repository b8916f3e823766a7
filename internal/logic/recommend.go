package logic

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/models"
)

const (
	defaultOdds       = 2.0
	kellyUnitScale    = 24.0
	maxScenarioSpread = 3 // markets are drawn from the top three scenarios
)

// baseProbabilities are the market priors before feature adjustments.
var baseProbabilities = map[models.MarketType]float64{
	models.MarketOver15:            0.65,
	models.MarketOver25:            0.50,
	models.MarketOver35:            0.35,
	models.MarketUnder25:           0.50,
	models.MarketUnder35:           0.65,
	models.MarketBTTSYes:           0.50,
	models.MarketBTTSNo:            0.50,
	models.MarketHomeWin:           0.45,
	models.MarketDraw:              0.25,
	models.MarketAwayWin:           0.30,
	models.MarketFirstHalfOver15:   0.35,
	models.MarketFirstHalfOver05:   0.70,
	models.MarketSecondHalfOver15:  0.40,
	models.MarketGoal0015:          0.30,
	models.MarketGoal7590:          0.35,
	models.MarketGoal7690:          0.33,
	models.MarketHome2HOver05:      0.55,
	models.MarketAway2HOver05:      0.45,
	models.MarketHomeOver15:        0.45,
	models.MarketAwayOver15:        0.35,
	models.MarketHomeCleanSheet:    0.30,
	models.MarketAwayCleanSheet:    0.22,
	models.MarketCornersOver:       0.50,
	models.MarketCornersUnder:      0.50,
	models.MarketPenaltyYes:        0.28,
	models.MarketFirstScorerFwd:    0.60,
	models.MarketFirstScorerDef:    0.08,
	models.MarketTeamToScoreLast:   0.50,
	models.MarketAsianHandicapHome: 0.50,
	models.MarketAsianHandicapAway: 0.50,
}

var marketSelections = map[models.MarketType]string{
	models.MarketOver15:            "Over 1.5 goals",
	models.MarketOver25:            "Over 2.5 goals",
	models.MarketOver35:            "Over 3.5 goals",
	models.MarketUnder25:           "Under 2.5 goals",
	models.MarketUnder35:           "Under 3.5 goals",
	models.MarketBTTSYes:           "Both teams to score: yes",
	models.MarketBTTSNo:            "Both teams to score: no",
	models.MarketHomeWin:           "Home win",
	models.MarketDraw:              "Draw",
	models.MarketAwayWin:           "Away win",
	models.MarketFirstHalfOver15:   "1st half over 1.5 goals",
	models.MarketFirstHalfOver05:   "1st half over 0.5 goals",
	models.MarketSecondHalfOver15:  "2nd half over 1.5 goals",
	models.MarketGoal0015:          "Goal before the 15th minute",
	models.MarketGoal7590:          "Goal after the 75th minute",
	models.MarketGoal7690:          "Goal in minutes 76-90",
	models.MarketHome2HOver05:      "Home to score in the 2nd half",
	models.MarketAway2HOver05:      "Away to score in the 2nd half",
	models.MarketHomeOver15:        "Home over 1.5 team goals",
	models.MarketAwayOver15:        "Away over 1.5 team goals",
	models.MarketHomeCleanSheet:    "Home clean sheet: yes",
	models.MarketAwayCleanSheet:    "Away clean sheet: yes",
	models.MarketCornersOver:       "Corners over the line",
	models.MarketCornersUnder:      "Corners under the line",
	models.MarketPenaltyYes:        "Penalty awarded: yes",
	models.MarketFirstScorerFwd:    "First goalscorer: forward",
	models.MarketFirstScorerDef:    "First goalscorer: defender",
	models.MarketTeamToScoreLast:   "Team to score last",
	models.MarketAsianHandicapHome: "Asian handicap: home",
	models.MarketAsianHandicapAway: "Asian handicap: away",
}

var overMarkets = map[models.MarketType]bool{
	models.MarketOver15: true, models.MarketOver25: true, models.MarketOver35: true,
	models.MarketHomeOver15: true, models.MarketAwayOver15: true,
}

var underMarkets = map[models.MarketType]bool{
	models.MarketUnder25: true, models.MarketUnder35: true, models.MarketBTTSNo: true,
	models.MarketCornersUnder: true,
}

var lateWindowMarkets = map[models.MarketType]bool{
	models.MarketGoal7590: true, models.MarketGoal7690: true,
	models.MarketHome2HOver05: true, models.MarketAway2HOver05: true,
	models.MarketSecondHalfOver15: true, models.MarketTeamToScoreLast: true,
}

var earlyWindowMarkets = map[models.MarketType]bool{
	models.MarketGoal0015: true, models.MarketFirstHalfOver15: true,
	models.MarketFirstHalfOver05: true,
}

// SynthesiserOptions tune the recommendation output.
type SynthesiserOptions struct {
	MinEdge            float64
	MaxRecommendations int
	UseKelly           bool
	IncludeSecondary   bool
}

// DefaultSynthesiserOptions mirror the engine defaults.
func DefaultSynthesiserOptions() SynthesiserOptions {
	return SynthesiserOptions{MinEdge: 0.05, MaxRecommendations: 5, UseKelly: true, IncludeSecondary: true}
}

// RecommendationSynthesiser prices and sizes markets from validated scenarios.
type RecommendationSynthesiser struct {
	logger *zap.SugaredLogger
}

func NewRecommendationSynthesiser(logger *zap.SugaredLogger) *RecommendationSynthesiser {
	return &RecommendationSynthesiser{logger: logger}
}

// Synthesise turns the surviving scenarios into a ranked recommendation list
// plus the avoided-market union. Avoid always wins over recommend.
func (s *RecommendationSynthesiser) Synthesise(scenarios []models.ScenarioEvaluation, features models.FeatureMap, odds map[models.MarketType]float64, opts SynthesiserOptions) ([]models.MarketRecommendation, []models.MarketType) {
	if opts.MaxRecommendations <= 0 {
		opts.MaxRecommendations = 5
	}

	top := scenarios
	if len(top) > maxScenarioSpread {
		top = top[:maxScenarioSpread]
	}

	avoided := avoidUnion(top)
	avoidSet := map[models.MarketType]bool{}
	for _, m := range avoided {
		avoidSet[m] = true
	}

	byMarket := map[models.MarketType]*models.MarketRecommendation{}
	var order []models.MarketType

	for i := range top {
		eval := &top[i]
		picks := eval.RecommendedMarkets
		if opts.IncludeSecondary {
			picks = append(append([]models.MarketPick{}, picks...), eval.SecondaryMarkets...)
		}
		for _, p := range picks {
			if avoidSet[p.Market] {
				continue
			}
			if existing, ok := byMarket[p.Market]; ok {
				existing.ContributingScenarios = append(existing.ContributingScenarios, eval.ScenarioID)
				continue
			}
			rec, ok := s.price(p, eval, features, odds, opts)
			if !ok {
				continue
			}
			byMarket[p.Market] = &rec
			order = append(order, p.Market)
		}
	}

	recs := make([]models.MarketRecommendation, 0, len(order))
	for _, m := range order {
		recs = append(recs, *byMarket[m])
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].ExpectedValue > recs[j].ExpectedValue
	})
	if len(recs) > opts.MaxRecommendations {
		recs = recs[:opts.MaxRecommendations]
	}
	return recs, avoided
}

func (s *RecommendationSynthesiser) price(p models.MarketPick, eval *models.ScenarioEvaluation, features models.FeatureMap, odds map[models.MarketType]float64, opts SynthesiserOptions) (models.MarketRecommendation, bool) {
	price, known := odds[p.Market]
	if !known {
		price = defaultOdds
	} else if price <= 1 {
		s.logger.Warnw("dropping market with invalid odds", "market", p.Market, "odds", price)
		return models.MarketRecommendation{}, false
	}

	calc := calculatedProbability(p.Market, eval, features)
	implied := 1 / price
	edge := calc - implied
	if edge < opts.MinEdge {
		return models.MarketRecommendation{}, false
	}

	confidence := clamp((p.TypicalConfidence+eval.AdjustedConfidence)/2, 0, 100)
	ev := edge*price - (1 - calc)

	tier := stakeTier(edge, confidence, eval.MonteCarlo, opts.UseKelly)

	return models.MarketRecommendation{
		Market:                p.Market,
		Selection:             marketSelections[p.Market],
		Odds:                  price,
		CalculatedProbability: calc,
		ImpliedProbability:    implied,
		Edge:                  edge,
		Confidence:            confidence,
		StakeTier:             tier,
		StakeUnits:            tier.Units(),
		ExpectedValue:         ev,
		Reasoning:             reasoning(p.Market, eval),
		ContributingScenarios: []string{eval.ScenarioID},
	}, true
}

// calculatedProbability is the base prior plus the feature adjustments for
// the market family plus the scenario bonus, clamped to [0.05, 0.95].
func calculatedProbability(market models.MarketType, eval *models.ScenarioEvaluation, f models.FeatureMap) float64 {
	calc, ok := baseProbabilities[market]
	if !ok {
		calc = 0.50
	}

	chaosAdj := (f["chaos_potential"] - 50) / 200
	xgAdj := (f["xg_combined"] - 2.5) / 10

	switch {
	case overMarkets[market]:
		calc += chaosAdj + xgAdj
	case underMarkets[market]:
		calc -= chaosAdj + xgAdj
	case market == models.MarketBTTSYes:
		calc += chaosAdj + (f["xga_home"]+f["xga_away"]-2.2)/10
	case lateWindowMarkets[market]:
		calc += (f["diesel_factor_combined"]-1.0)/5 + f["fatigue_away"]/5
	case earlyWindowMarkets[market]:
		calc += (f["sprinter_factor_combined"] - 1.0) / 5
	}

	calc += (eval.AdjustedConfidence - 50) / 500
	return clamp(calc, 0.05, 0.95)
}

// stakeTier sizes the bet. With Monte Carlo present the Kelly path rules;
// otherwise the flat edge*confidence score decides.
func stakeTier(edge, confidence float64, mc *models.MonteCarloValidation, useKelly bool) models.StakeTier {
	if useKelly && mc != nil {
		units := mc.KellyHalf * kellyUnitScale * mc.Robustness.StakeMultiplier()
		switch {
		case units >= 2.5:
			return models.TierSniper
		case units >= 1.5:
			return models.TierNormal
		case units >= 0.8:
			return models.TierSmall
		default:
			return models.TierMicro
		}
	}

	score := edge * 100 * confidence / 100
	switch {
	case score >= 10 && confidence >= 75:
		return models.TierSniper
	case score >= 6 && confidence >= 60:
		return models.TierNormal
	case score >= 3:
		return models.TierSmall
	default:
		return models.TierMicro
	}
}

func reasoning(market models.MarketType, eval *models.ScenarioEvaluation) string {
	base := fmt.Sprintf("%s (%s, %d/%d conditions)", eval.ScenarioName, eval.Category, eval.ConditionsMet, eval.ConditionsTotal)
	if len(eval.KeyFactors) > 0 {
		limit := len(eval.KeyFactors)
		if limit > 2 {
			limit = 2
		}
		base += ": " + strings.Join(eval.KeyFactors[:limit], "; ")
	}
	return base
}

// avoidUnion collects every avoided market across the considered scenarios.
// Always non-nil so the strategy payload serialises an empty list, not null.
func avoidUnion(scenarios []models.ScenarioEvaluation) []models.MarketType {
	seen := map[models.MarketType]bool{}
	out := []models.MarketType{}
	for _, s := range scenarios {
		for _, m := range s.AvoidMarkets {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}
