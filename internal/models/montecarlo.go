package models

// Robustness classifies a scenario's sensitivity to feature noise.
type Robustness string

const (
	RobustnessRockSolid  Robustness = "ROCK_SOLID"
	RobustnessRobust     Robustness = "ROBUST"
	RobustnessModerate   Robustness = "MODERATE"
	RobustnessFragile    Robustness = "FRAGILE"
	RobustnessUnreliable Robustness = "UNRELIABLE"
)

// StakeMultiplier scales Kelly stakes by robustness class.
func (r Robustness) StakeMultiplier() float64 {
	switch r {
	case RobustnessRockSolid:
		return 1.0
	case RobustnessRobust:
		return 0.85
	case RobustnessModerate:
		return 0.70
	case RobustnessFragile:
		return 0.50
	default:
		return 0.25
	}
}

// StressVerdict is the high-noise degradation verdict.
type StressVerdict string

const (
	StressPassed   StressVerdict = "PASSED"
	StressDegraded StressVerdict = "DEGRADED"
	StressFailed   StressVerdict = "FAILED"
	StressSkipped  StressVerdict = "SKIPPED"
)

// ConfidenceInterval carries the distribution stats for one trial metric.
type ConfidenceInterval struct {
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	CI95Low  float64 `json:"ci95_low"`
	CI95High float64 `json:"ci95_high"`
	CI99Low  float64 `json:"ci99_low"`
	CI99High float64 `json:"ci99_high"`
	Median   float64 `json:"median"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// StressPoint is the success rate observed at one noise level.
type StressPoint struct {
	NoiseLevel  float64 `json:"noise_level"`
	SuccessRate float64 `json:"success_rate"`
}

// MonteCarloValidation is the full noise-robustness report for one scenario.
// Only seed-deterministic values belong here: the report is embedded in the
// strategy payload, which must reproduce byte-for-byte under a fixed seed.
type MonteCarloValidation struct {
	ScenarioID        string             `json:"scenario_id"`
	Simulations       int                `json:"simulations"`
	NoiseLevel        float64            `json:"noise_level"`
	Confidence        ConfidenceInterval `json:"confidence"`
	Edge              ConfidenceInterval `json:"edge"`
	ExpectedValue     ConfidenceInterval `json:"expected_value"`
	SuccessRate       float64            `json:"success_rate"`
	Robustness        Robustness         `json:"robustness"`
	StressTest        StressVerdict      `json:"stress_test"`
	StressLadder      []StressPoint      `json:"stress_ladder,omitempty"`
	StressDegradation float64            `json:"stress_degradation"`
	KellyFull         float64            `json:"kelly_full"`
	KellyHalf         float64            `json:"kelly_half"`
	KellyQuarter      float64            `json:"kelly_quarter"`
	ValidationScore   float64            `json:"validation_score"`
	IsValidated       bool               `json:"is_validated"`
	Warnings          []string           `json:"warnings,omitempty"`
}

// MonteCarloSummary aggregates validation outcomes across one match.
type MonteCarloSummary struct {
	Enabled             bool               `json:"enabled"`
	ScenariosValidated  int                `json:"scenarios_validated"`
	ScenariosRejected   int                `json:"scenarios_rejected"`
	MeanValidationScore float64            `json:"mean_validation_score"`
	MeanSuccessRate     float64            `json:"mean_success_rate"`
	RobustnessCounts    map[Robustness]int `json:"robustness_counts,omitempty"`
	StressPassed        int                `json:"stress_passed"`
	StressFailed        int                `json:"stress_failed"`
	AggregateKellyHalf  float64            `json:"aggregate_kelly_half"`
}
