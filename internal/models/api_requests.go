package models

// AnalyzeRequest is the body for POST /analyze and /analyze/quick.
type AnalyzeRequest struct {
	HomeTeam string             `json:"home_team" validate:"required,min=2"`
	AwayTeam string             `json:"away_team" validate:"required,min=2"`
	Context  map[string]any     `json:"context,omitempty"`
	Odds     map[string]float64 `json:"odds,omitempty"`
	Seed     *int64             `json:"seed,omitempty"`
}

// BatchAnalyzeRequest is the body for POST /analyze/batch.
type BatchAnalyzeRequest struct {
	Matches []AnalyzeRequest `json:"matches" validate:"required,min=1,max=20,dive"`
}

// BatchAnalyzeResponse wraps the per-match strategies.
type BatchAnalyzeResponse struct {
	Strategies []*MatchStrategy `json:"strategies"`
	Errors     []string         `json:"errors,omitempty"`
}

// MonteCarloConfigRequest tunes the validator at runtime.
// Pointer fields distinguish "absent" from zero.
type MonteCarloConfigRequest struct {
	Enabled            *bool    `json:"enabled,omitempty"`
	Simulations        *int     `json:"n_simulations,omitempty" validate:"omitempty,min=500,max=10000"`
	NoiseLevel         *float64 `json:"noise_level,omitempty" validate:"omitempty,gt=0,lte=1"`
	MinValidationScore *float64 `json:"min_validation_score,omitempty" validate:"omitempty,min=0,max=100"`
	MinSuccessRate     *float64 `json:"min_success_rate,omitempty" validate:"omitempty,min=0,max=1"`
	StressTestRequired *bool    `json:"stress_test_required,omitempty"`
	UseKelly           *bool    `json:"use_kelly,omitempty"`
}

// ValidateScenarioRequest drives the stand-alone Monte Carlo endpoint.
// The scenario may reference catalogue metrics or ad-hoc feature keys
// supplied in Features.
type ValidateScenarioRequest struct {
	Scenario    ScenarioDefinition `json:"scenario" validate:"required"`
	Features    FeatureMap         `json:"features" validate:"required,min=1"`
	Odds        float64            `json:"odds" validate:"omitempty,gt=1"`
	Simulations int                `json:"n_simulations" validate:"omitempty,min=500,max=10000"`
	NoiseLevel  float64            `json:"noise_level" validate:"omitempty,gt=0,lte=1"`
	Seed        *int64             `json:"seed,omitempty"`
}

// EngineStats are the running counters behind GET /stats.
type EngineStats struct {
	Analyses           int64 `json:"analyses"`
	ScenariosDetected  int64 `json:"scenarios_detected"`
	ScenariosValidated int64 `json:"scenarios_validated"`
	ScenariosRejected  int64 `json:"scenarios_rejected"`
}
