package models

// FeatureMap is the flat feature vector produced by the calculator.
type FeatureMap map[string]float64

// Clone returns a shallow copy safe to perturb.
func (f FeatureMap) Clone() FeatureMap {
	out := make(FeatureMap, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// MarketType enumerates the supported betting markets.
type MarketType string

const (
	MarketOver15            MarketType = "OVER_15"
	MarketOver25            MarketType = "OVER_25"
	MarketOver35            MarketType = "OVER_35"
	MarketUnder25           MarketType = "UNDER_25"
	MarketUnder35           MarketType = "UNDER_35"
	MarketBTTSYes           MarketType = "BTTS_YES"
	MarketBTTSNo            MarketType = "BTTS_NO"
	MarketHomeWin           MarketType = "HOME_WIN"
	MarketDraw              MarketType = "DRAW"
	MarketAwayWin           MarketType = "AWAY_WIN"
	MarketFirstHalfOver15   MarketType = "FIRST_HALF_OVER_15"
	MarketFirstHalfOver05   MarketType = "FIRST_HALF_OVER_05"
	MarketSecondHalfOver15  MarketType = "SECOND_HALF_OVER_15"
	MarketGoal0015          MarketType = "GOAL_0_15"
	MarketGoal7590          MarketType = "GOAL_75_90"
	MarketGoal7690          MarketType = "GOAL_76_90"
	MarketHome2HOver05      MarketType = "HOME_2H_OVER_05"
	MarketAway2HOver05      MarketType = "AWAY_2H_OVER_05"
	MarketHomeOver15        MarketType = "HOME_OVER_15"
	MarketAwayOver15        MarketType = "AWAY_OVER_15"
	MarketHomeCleanSheet    MarketType = "HOME_CLEAN_SHEET_YES"
	MarketAwayCleanSheet    MarketType = "AWAY_CLEAN_SHEET_YES"
	MarketCornersOver       MarketType = "CORNERS_OVER"
	MarketCornersUnder      MarketType = "CORNERS_UNDER"
	MarketPenaltyYes        MarketType = "PENALTY_YES"
	MarketFirstScorerFwd    MarketType = "FIRST_GOALSCORER_FORWARD"
	MarketFirstScorerDef    MarketType = "FIRST_GOALSCORER_DEFENDER"
	MarketTeamToScoreLast   MarketType = "TEAM_TO_SCORE_LAST"
	MarketAsianHandicapHome MarketType = "ASIAN_HANDICAP_HOME"
	MarketAsianHandicapAway MarketType = "ASIAN_HANDICAP_AWAY"
)

// ScenarioCategory groups scenario definitions.
type ScenarioCategory string

const (
	CategoryTactical      ScenarioCategory = "TACTICAL"
	CategoryTemporal      ScenarioCategory = "TEMPORAL"
	CategoryPhysical      ScenarioCategory = "PHYSICAL"
	CategoryPsychological ScenarioCategory = "PSYCHOLOGICAL"
	CategoryNemesis       ScenarioCategory = "NEMESIS"
)

// ConditionOperator is the comparison applied to a feature value.
type ConditionOperator string

const (
	OpGT  ConditionOperator = ">"
	OpLT  ConditionOperator = "<"
	OpGTE ConditionOperator = ">="
	OpLTE ConditionOperator = "<="
	OpEQ  ConditionOperator = "=="
	OpNEQ ConditionOperator = "!="
)

// ScenarioCondition is one threshold predicate over the feature map.
type ScenarioCondition struct {
	Metric      string            `json:"metric"`
	Operator    ConditionOperator `json:"operator"`
	Threshold   float64           `json:"threshold"`
	Description string            `json:"description"`
}

// MarketPick attaches a typical edge and confidence to a market.
type MarketPick struct {
	Market            MarketType `json:"market"`
	TypicalEdgePct    float64    `json:"typical_edge_pct"`
	TypicalConfidence float64    `json:"typical_confidence"`
}

// ScenarioDefinition is a declarative scenario: a conjunction of conditions
// plus the markets it points at and its historical prior.
type ScenarioDefinition struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Category          ScenarioCategory    `json:"category"`
	Conditions        []ScenarioCondition `json:"conditions"`
	PrimaryMarkets    []MarketPick        `json:"primary_markets"`
	SecondaryMarkets  []MarketPick        `json:"secondary_markets"`
	AvoidMarkets      []MarketType        `json:"avoid_markets"`
	HistoricalROI     float64             `json:"historical_roi"`      // percent
	HistoricalWinRate float64             `json:"historical_win_rate"` // percent
	MinConfidence     float64             `json:"min_confidence_threshold"`
}

// ConditionStrength grades how comfortably a met condition cleared.
type ConditionStrength string

const (
	StrengthFailed   ConditionStrength = "FAILED"
	StrengthWeak     ConditionStrength = "WEAK"
	StrengthModerate ConditionStrength = "MODERATE"
	StrengthStrong   ConditionStrength = "STRONG"
)

// ConditionResult is the outcome of one condition check.
type ConditionResult struct {
	Metric      string            `json:"metric"`
	Operator    ConditionOperator `json:"operator"`
	Threshold   float64           `json:"threshold"`
	Actual      float64           `json:"actual"`
	Met         bool              `json:"met"`
	Margin      float64           `json:"margin"`
	Strength    ConditionStrength `json:"strength"`
	Description string            `json:"description"`
}

// ScenarioEvaluation is one scenario checked against one match.
type ScenarioEvaluation struct {
	ScenarioID         string                `json:"scenario_id"`
	ScenarioName       string                `json:"scenario_name"`
	Category           ScenarioCategory      `json:"category"`
	Conditions         []ConditionResult     `json:"conditions"`
	ConditionsMet      int                   `json:"conditions_met"`
	ConditionsTotal    int                   `json:"conditions_total"`
	BaseConfidence     float64               `json:"base_confidence"`
	AdjustedConfidence float64               `json:"adjusted_confidence"`
	Modifiers          map[string]float64    `json:"modifiers"`
	KeyFactors         []string              `json:"key_factors"`
	RecommendedMarkets []MarketPick          `json:"recommended_markets"`
	SecondaryMarkets   []MarketPick          `json:"secondary_markets"`
	AvoidMarkets       []MarketType          `json:"avoid_markets"`
	HistoricalROI      float64               `json:"historical_roi"`
	HistoricalWinRate  float64               `json:"historical_win_rate"`
	Warnings           []string              `json:"warnings,omitempty"`
	MonteCarlo         *MonteCarloValidation `json:"monte_carlo,omitempty"`
}

// DecisionSource labels which path produced the strategy.
type DecisionSource string

const (
	SourceRuleEngine DecisionSource = "RULE_ENGINE"
	SourceHybrid     DecisionSource = "HYBRID"
	SourceMLFallback DecisionSource = "ML_FALLBACK"
)

// DetectionResult is the detector output for one match.
type DetectionResult struct {
	Scenarios         []ScenarioEvaluation `json:"scenarios"`
	Primary           *ScenarioEvaluation  `json:"primary,omitempty"`
	Secondary         *ScenarioEvaluation  `json:"secondary,omitempty"`
	OverallConfidence float64              `json:"overall_confidence"`
	DecisionSource    DecisionSource       `json:"decision_source"`
}
