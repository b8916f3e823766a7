package models

import "time"

// StakeTier bands stake sizes.
type StakeTier string

const (
	TierSniper StakeTier = "SNIPER"
	TierNormal StakeTier = "NORMAL"
	TierSmall  StakeTier = "SMALL"
	TierMicro  StakeTier = "MICRO"
)

// Units returns the flat stake units for a tier.
func (t StakeTier) Units() float64 {
	switch t {
	case TierSniper:
		return 3.0
	case TierNormal:
		return 2.0
	case TierSmall:
		return 1.0
	default:
		return 0.5
	}
}

// MarketRecommendation is one priced, sized market pick.
type MarketRecommendation struct {
	Market                MarketType `json:"market"`
	Selection             string     `json:"selection"`
	Odds                  float64    `json:"odds"`
	CalculatedProbability float64    `json:"calculated_probability"`
	ImpliedProbability    float64    `json:"implied_probability"`
	Edge                  float64    `json:"edge"`
	Confidence            float64    `json:"confidence"`
	StakeTier             StakeTier  `json:"stake_tier"`
	StakeUnits            float64    `json:"stake_units"`
	ExpectedValue         float64    `json:"expected_value"`
	Reasoning             string     `json:"reasoning"`
	ContributingScenarios []string   `json:"contributing_scenarios"`
}

// MatchStrategy is the public output of the rule engine.
type MatchStrategy struct {
	AnalysisID        string                 `json:"analysis_id"`
	HomeTeam          string                 `json:"home_team"`
	AwayTeam          string                 `json:"away_team"`
	DecisionSource    DecisionSource         `json:"decision_source"`
	ConfidenceOverall float64                `json:"confidence_overall"`
	ScenariosCount    int                    `json:"scenarios_count"`
	Scenarios         []ScenarioEvaluation   `json:"scenarios"`
	Recommendations   []MarketRecommendation `json:"recommendations"`
	AvoidMarkets      []MarketType           `json:"avoid_markets"`
	MonteCarlo        MonteCarloSummary      `json:"monte_carlo"`
	HomeDataQuality   DataQuality            `json:"home_data_quality"`
	AwayDataQuality   DataQuality            `json:"away_data_quality"`
	ProcessingTimeMs  int64                  `json:"processing_time_ms"`
	AnalyzedAt        time.Time              `json:"analyzed_at"`
}
