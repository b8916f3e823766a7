package logic

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/models"
)

const (
	strongMarginCutoff   = 0.30
	moderateMarginCutoff = 0.10
	strongBonusPerCond   = 5.0
	strongBonusCap       = 15.0
	eqEpsilon            = 1e-9
)

// ScenarioDetector evaluates the catalogue against a feature map.
type ScenarioDetector struct {
	catalogue []models.ScenarioDefinition
	logger    *zap.SugaredLogger
}

// NewScenarioDetector builds a detector over the given catalogue, with
// historical overrides already applied.
func NewScenarioDetector(catalogue []models.ScenarioDefinition, overrides map[string]ScenarioHistory, logger *zap.SugaredLogger) *ScenarioDetector {
	defs := make([]models.ScenarioDefinition, len(catalogue))
	copy(defs, catalogue)
	for i := range defs {
		if h, ok := overrides[defs[i].ID]; ok {
			defs[i].HistoricalROI = h.ROI
			defs[i].HistoricalWinRate = h.WinRate
		}
	}
	return &ScenarioDetector{catalogue: defs, logger: logger}
}

// Catalogue exposes the definitions the detector runs with.
func (d *ScenarioDetector) Catalogue() []models.ScenarioDefinition {
	return d.catalogue
}

// Definition looks up a single scenario by ID.
func (d *ScenarioDetector) Definition(id string) (models.ScenarioDefinition, bool) {
	for _, def := range d.catalogue {
		if def.ID == id {
			return def, true
		}
	}
	return models.ScenarioDefinition{}, false
}

// Detect evaluates every scenario and ranks the survivors.
func (d *ScenarioDetector) Detect(features models.FeatureMap, minConfidence float64) models.DetectionResult {
	var detected []models.ScenarioEvaluation
	for _, def := range d.catalogue {
		if len(def.Conditions) == 0 || len(def.PrimaryMarkets) == 0 {
			d.logger.Errorw("skipping corrupt scenario definition", "scenario", def.ID)
			continue
		}
		// a scenario's own floor tightens the caller threshold, never loosens it
		floor := minConfidence
		if def.MinConfidence > floor {
			floor = def.MinConfidence
		}
		eval := d.Evaluate(def, features)
		if eval.AdjustedConfidence >= floor {
			detected = append(detected, eval)
		}
	}

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].AdjustedConfidence > detected[j].AdjustedConfidence
	})

	result := models.DetectionResult{Scenarios: detected}
	if len(detected) > 0 {
		result.Primary = &detected[0]
	}
	if len(detected) > 1 {
		result.Secondary = &detected[1]
	}

	top := len(detected)
	if top > 3 {
		top = 3
	}
	var sum float64
	for i := 0; i < top; i++ {
		sum += detected[i].AdjustedConfidence
	}
	if top > 0 {
		result.OverallConfidence = sum / float64(top)
	}

	switch {
	case result.OverallConfidence >= 75:
		result.DecisionSource = models.SourceRuleEngine
	case result.OverallConfidence >= 50:
		result.DecisionSource = models.SourceHybrid
	default:
		result.DecisionSource = models.SourceMLFallback
	}
	return result
}

// Evaluate scores a single scenario against the feature map.
func (d *ScenarioDetector) Evaluate(def models.ScenarioDefinition, features models.FeatureMap) models.ScenarioEvaluation {
	eval := models.ScenarioEvaluation{
		ScenarioID:         def.ID,
		ScenarioName:       def.Name,
		Category:           def.Category,
		ConditionsTotal:    len(def.Conditions),
		Modifiers:          map[string]float64{},
		RecommendedMarkets: def.PrimaryMarkets,
		SecondaryMarkets:   def.SecondaryMarkets,
		AvoidMarkets:       def.AvoidMarkets,
		HistoricalROI:      def.HistoricalROI,
		HistoricalWinRate:  def.HistoricalWinRate,
	}

	for _, c := range def.Conditions {
		actual, ok := ResolveMetric(features, c.Metric)
		if !ok {
			d.logger.Warnw("unknown metric in scenario condition", "scenario", def.ID, "metric", c.Metric)
			eval.Warnings = append(eval.Warnings, fmt.Sprintf("metric %q missing, treated as 0", c.Metric))
			actual = 0
		}
		res := evaluateCondition(c, actual)
		if res.Met {
			eval.ConditionsMet++
			if res.Strength == models.StrengthStrong {
				eval.KeyFactors = append(eval.KeyFactors, c.Description)
			}
		}
		eval.Conditions = append(eval.Conditions, res)
	}

	eval.BaseConfidence = float64(eval.ConditionsMet) / float64(eval.ConditionsTotal) * 100

	// Modifiers apply additively in one pass; clamping happens at the end.
	adjusted := eval.BaseConfidence

	strongBonus := math.Min(strongBonusCap, float64(len(eval.KeyFactors))*strongBonusPerCond)
	if strongBonus > 0 {
		eval.Modifiers["strong_conditions"] = strongBonus
		adjusted += strongBonus
	}
	if def.HistoricalROI > 10 {
		bonus := math.Min(10, def.HistoricalROI/5)
		eval.Modifiers["historical_roi"] = bonus
		adjusted += bonus
	} else if def.HistoricalROI < -10 {
		penalty := math.Max(-15, def.HistoricalROI/3)
		eval.Modifiers["historical_roi"] = penalty
		adjusted += penalty
	}

	eval.AdjustedConfidence = clamp(adjusted, 0, 100)
	return eval
}

// evaluateCondition applies the declared operator literally. The margin is
// sign-adjusted so positive always means the condition cleared comfortably.
func evaluateCondition(c models.ScenarioCondition, actual float64) models.ConditionResult {
	res := models.ConditionResult{
		Metric:      c.Metric,
		Operator:    c.Operator,
		Threshold:   c.Threshold,
		Actual:      actual,
		Description: c.Description,
	}

	denom := math.Max(math.Abs(c.Threshold), 1)
	switch c.Operator {
	case models.OpGT:
		res.Met = actual > c.Threshold
		res.Margin = (actual - c.Threshold) / denom
	case models.OpGTE:
		res.Met = actual >= c.Threshold
		res.Margin = (actual - c.Threshold) / denom
	case models.OpLT:
		res.Met = actual < c.Threshold
		res.Margin = (c.Threshold - actual) / denom
	case models.OpLTE:
		res.Met = actual <= c.Threshold
		res.Margin = (c.Threshold - actual) / denom
	case models.OpEQ:
		res.Met = math.Abs(actual-c.Threshold) < eqEpsilon
		res.Margin = 0
	case models.OpNEQ:
		res.Met = math.Abs(actual-c.Threshold) >= eqEpsilon
		res.Margin = math.Abs(actual-c.Threshold) / denom
	}

	res.Strength = strengthFor(res.Met, res.Margin)
	return res
}

func strengthFor(met bool, margin float64) models.ConditionStrength {
	switch {
	case !met:
		return models.StrengthFailed
	case margin >= strongMarginCutoff:
		return models.StrengthStrong
	case margin >= moderateMarginCutoff:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}
