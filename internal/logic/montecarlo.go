package logic

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/models"
)

const (
	mcDefaultSimulations = 5000
	mcQuickSimulations   = 1000
	mcMinSimulations     = 500
	mcMaxSimulations     = 10000
	mcDefaultNoise       = 0.15
	mcMaxWorkers         = 8
	mcCancelCheckEvery   = 250

	mcConfidenceThreshold = 50.0
	mcEdgeThreshold       = 0.03

	z95 = 1.96
	z99 = 2.576
)

var stressNoiseLadder = []float64{0.20, 0.30, 0.40, 0.50}

// knownFlags are feature keys carrying 0/1 semantics that do not follow
// the is_/_flag naming convention. Perturbed flags are re-thresholded at
// 0.5 instead of staying fractional.
var knownFlags = map[string]bool{
	"both_diesel": true, "both_sprinter": true, "diesel_vs_sprinter": true,
	"second_half_expected_higher": true, "home_dominant": true, "away_dominant": true,
	"european_week_home": true, "european_week_away": true,
	"title_race_home": true, "title_race_away": true,
	"european_race_home": true, "european_race_away": true,
	"relegation_home": true, "relegation_away": true,
	"clinical_high_home": true, "clinical_high_away": true,
	"clinical_low_home": true, "clinical_low_away": true,
	"regression_up_home": true, "regression_up_away": true,
	"regression_down_home": true, "regression_down_away": true,
	"formation_433_home": true, "formation_433_away": true,
	"formation_442_home": true, "formation_442_away": true,
	"mentality_aggressive_home": true, "mentality_aggressive_away": true,
	"mentality_balanced_home": true, "mentality_balanced_away": true,
	"mentality_conservative_home": true, "mentality_conservative_away": true,
	"mentality_chaotic_home": true, "mentality_chaotic_away": true,
}

func isBinaryFlag(key string) bool {
	return strings.HasPrefix(key, "is_") || strings.HasSuffix(key, "_flag") || knownFlags[key]
}

// MonteCarloOptions tunes one validation run.
type MonteCarloOptions struct {
	Simulations         int
	NoiseLevel          float64
	MinValidationScore  float64
	MinSuccessRate      float64
	StressTest          bool
	Workers             int
	ConfidenceThreshold float64
	EdgeThreshold       float64
	Seed                *int64 // nil = time-seeded
}

// DefaultMonteCarloOptions returns the full-budget configuration.
func DefaultMonteCarloOptions() MonteCarloOptions {
	return MonteCarloOptions{
		Simulations:         mcDefaultSimulations,
		NoiseLevel:          mcDefaultNoise,
		MinValidationScore:  60,
		MinSuccessRate:      0.50,
		StressTest:          true,
		Workers:             mcMaxWorkers,
		ConfidenceThreshold: mcConfidenceThreshold,
		EdgeThreshold:       mcEdgeThreshold,
	}
}

// QuickMonteCarloOptions is the reduced budget used by /analyze/quick.
func QuickMonteCarloOptions() MonteCarloOptions {
	opts := DefaultMonteCarloOptions()
	opts.Simulations = mcQuickSimulations
	opts.StressTest = false
	return opts
}

func (o *MonteCarloOptions) normalise() {
	if o.Simulations <= 0 {
		o.Simulations = mcDefaultSimulations
	}
	if o.Simulations < mcMinSimulations {
		o.Simulations = mcMinSimulations
	}
	if o.Simulations > mcMaxSimulations {
		o.Simulations = mcMaxSimulations
	}
	if o.NoiseLevel <= 0 {
		o.NoiseLevel = mcDefaultNoise
	}
	if o.Workers <= 0 || o.Workers > mcMaxWorkers {
		o.Workers = mcMaxWorkers
	}
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = mcConfidenceThreshold
	}
	if o.EdgeThreshold == 0 {
		o.EdgeThreshold = mcEdgeThreshold
	}
	if o.MinValidationScore <= 0 {
		o.MinValidationScore = 60
	}
	if o.MinSuccessRate <= 0 {
		o.MinSuccessRate = 0.50
	}
}

// MonteCarloValidator stress-tests detected scenarios under feature noise.
type MonteCarloValidator struct {
	logger *zap.SugaredLogger
}

func NewMonteCarloValidator(logger *zap.SugaredLogger) *MonteCarloValidator {
	return &MonteCarloValidator{logger: logger}
}

type trialResult struct {
	confidence float64
	edge       float64
	ev         float64
	success    bool
}

// Validate runs the noise simulation for one scenario. odds is the price
// of the scenario's lead market (2.0 when unknown).
func (v *MonteCarloValidator) Validate(ctx context.Context, def models.ScenarioDefinition, features models.FeatureMap, odds float64, opts MonteCarloOptions) models.MonteCarloValidation {
	opts.normalise()
	if odds <= 1 {
		odds = 2.0
	}
	start := time.Now()

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	trials := v.runTrials(ctx, def, features, odds, opts.NoiseLevel, opts.Simulations, seed, opts)

	out := models.MonteCarloValidation{
		ScenarioID:  def.ID,
		Simulations: len(trials),
		NoiseLevel:  opts.NoiseLevel,
		StressTest:  models.StressSkipped,
	}
	if len(trials) == 0 {
		out.Robustness = models.RobustnessUnreliable
		out.Warnings = append(out.Warnings, "no trials completed")
		return out
	}

	confs := make([]float64, len(trials))
	edges := make([]float64, len(trials))
	evs := make([]float64, len(trials))
	successes := 0
	for i, t := range trials {
		confs[i], edges[i], evs[i] = t.confidence, t.edge, t.ev
		if t.success {
			successes++
		}
	}
	out.Confidence = interval(confs)
	out.Edge = interval(edges)
	out.ExpectedValue = interval(evs)
	out.SuccessRate = float64(successes) / float64(len(trials))

	// robustness blends pass rate with distribution stability
	stability := 1 - out.Confidence.Std/math.Max(out.Confidence.Mean, 1)
	out.Robustness = robustnessFor(out.SuccessRate*0.7 + stability*0.3)

	if opts.StressTest {
		v.stressTest(ctx, def, features, odds, seed, opts, &out)
	}

	// Kelly from the mean win probability implied by mean confidence
	winProb := clamp(out.Confidence.Mean/100*0.6+0.2, 0.05, 0.95)
	out.KellyFull = kellyFraction(winProb, odds)
	out.KellyHalf = out.KellyFull / 2
	out.KellyQuarter = out.KellyFull / 4

	out.ValidationScore = validationScore(out)
	out.IsValidated = out.ValidationScore >= opts.MinValidationScore

	v.collectWarnings(&out)
	v.logger.Debugw("monte carlo run complete",
		"scenario", def.ID,
		"simulations", out.Simulations,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out
}

// IsRejected applies the go/no-go rule on a finished validation.
func IsRejected(val models.MonteCarloValidation, opts MonteCarloOptions) bool {
	opts.normalise()
	if val.ValidationScore < opts.MinValidationScore {
		return true
	}
	if val.SuccessRate < opts.MinSuccessRate {
		return true
	}
	if opts.StressTest && val.StressTest == models.StressFailed {
		return true
	}
	return val.Robustness == models.RobustnessUnreliable
}

// runTrials fans the simulation across workers owning disjoint ranges.
// Trials never touch shared state; the feature map is cloned per trial.
func (v *MonteCarloValidator) runTrials(ctx context.Context, def models.ScenarioDefinition, features models.FeatureMap, odds, noise float64, n int, seed int64, opts MonteCarloOptions) []trialResult {
	workers := 1
	if n >= 1000 {
		workers = opts.Workers
	}
	perWorker := n / workers

	results := make([][]trialResult, workers)
	done := make(chan int, workers)
	for w := 0; w < workers; w++ {
		count := perWorker
		if w == workers-1 {
			count = n - perWorker*(workers-1)
		}
		go func(w, count int) {
			rng := rand.New(rand.NewSource(seed + int64(w)*7919))
			out := make([]trialResult, 0, count)
			for i := 0; i < count; i++ {
				if i%mcCancelCheckEvery == 0 && ctx.Err() != nil {
					break
				}
				out = append(out, runTrial(def, features, odds, noise, rng, opts))
			}
			results[w] = out
			done <- w
		}(w, count)
	}
	for w := 0; w < workers; w++ {
		<-done
	}

	var merged []trialResult
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}

func runTrial(def models.ScenarioDefinition, features models.FeatureMap, odds, noise float64, rng *rand.Rand, opts MonteCarloOptions) trialResult {
	noised := perturb(features, noise, rng)

	met := 0
	for _, c := range def.Conditions {
		actual, _ := ResolveMetric(noised, c.Metric)
		if evaluateCondition(c, actual).Met {
			met++
		}
	}

	conf := float64(met)/float64(len(def.Conditions))*100 + rng.NormFloat64()*5
	conf = clamp(conf, 0, 100)

	calcProb := clamp(conf/100*0.6+0.2, 0.05, 0.95)
	implied := 1 / odds
	edge := calcProb - implied
	ev := edge*odds - (1 - calcProb)

	return trialResult{
		confidence: conf,
		edge:       edge,
		ev:         ev,
		success:    conf >= opts.ConfidenceThreshold && edge >= opts.EdgeThreshold,
	}
}

// perturb applies independent multiplicative Gaussian noise per feature.
// Zero inputs get additive noise; flags are re-thresholded at 0.5.
func perturb(features models.FeatureMap, noise float64, rng *rand.Rand) models.FeatureMap {
	out := make(models.FeatureMap, len(features))
	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		val := features[k]
		var noised float64
		if val == 0 {
			noised = rng.NormFloat64() * 0.1
		} else {
			noised = val * (1 + rng.NormFloat64()*noise)
		}
		if isBinaryFlag(k) {
			if noised >= 0.5 {
				noised = 1
			} else {
				noised = 0
			}
		}
		out[k] = noised
	}
	return out
}

func (v *MonteCarloValidator) stressTest(ctx context.Context, def models.ScenarioDefinition, features models.FeatureMap, odds float64, seed int64, opts MonteCarloOptions, out *models.MonteCarloValidation) {
	subsample := mcMinSimulations
	for i, noise := range stressNoiseLadder {
		trials := v.runTrials(ctx, def, features, odds, noise, subsample, seed+int64(i+1)*104729, opts)
		if len(trials) == 0 {
			out.StressTest = models.StressFailed
			return
		}
		successes := 0
		for _, t := range trials {
			if t.success {
				successes++
			}
		}
		out.StressLadder = append(out.StressLadder, models.StressPoint{
			NoiseLevel:  noise,
			SuccessRate: float64(successes) / float64(len(trials)),
		})
	}

	first := out.StressLadder[0].SuccessRate
	worst := out.StressLadder[len(out.StressLadder)-1].SuccessRate
	for _, p := range out.StressLadder {
		if p.SuccessRate < worst {
			worst = p.SuccessRate
		}
	}
	out.StressDegradation = first - out.StressLadder[len(out.StressLadder)-1].SuccessRate

	switch {
	case out.StressDegradation < 0.20 && worst > 0.50:
		out.StressTest = models.StressPassed
	case out.StressDegradation < 0.40 && worst > 0.25:
		out.StressTest = models.StressDegraded
	default:
		out.StressTest = models.StressFailed
	}
}

func (v *MonteCarloValidator) collectWarnings(out *models.MonteCarloValidation) {
	if out.SuccessRate < 0.50 {
		out.Warnings = append(out.Warnings, "success rate below 50%")
	}
	if out.Confidence.Std > 20 {
		out.Warnings = append(out.Warnings, "confidence distribution is wide (std > 20)")
	}
	if out.Confidence.Mean > 0 && (out.Confidence.CI95High-out.Confidence.CI95Low) > 0.20*out.Confidence.Mean {
		out.Warnings = append(out.Warnings, "confidence CI95 wider than 20% of mean")
	}
	if out.Edge.CI95Low < 0 {
		out.Warnings = append(out.Warnings, "edge CI95 lower bound is negative")
	}
	if out.StressTest == models.StressFailed {
		out.Warnings = append(out.Warnings, "stress test failed")
	}
}

func interval(values []float64) models.ConfidenceInterval {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := 0.0
	if len(values) > 1 {
		std = math.Sqrt(sq / (n - 1))
	}
	se := std / math.Sqrt(n)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return models.ConfidenceInterval{
		Mean:     mean,
		Std:      std,
		CI95Low:  mean - z95*se,
		CI95High: mean + z95*se,
		CI99Low:  mean - z99*se,
		CI99High: mean + z99*se,
		Median:   median,
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
	}
}

func robustnessFor(score float64) models.Robustness {
	switch {
	case score >= 0.90:
		return models.RobustnessRockSolid
	case score >= 0.75:
		return models.RobustnessRobust
	case score >= 0.50:
		return models.RobustnessModerate
	case score >= 0.25:
		return models.RobustnessFragile
	default:
		return models.RobustnessUnreliable
	}
}

// kellyFraction is (b*p - q) / b with b = odds - 1, clamped to [0, 0.25].
func kellyFraction(p, odds float64) float64 {
	b := odds - 1
	if b <= 0 {
		return 0
	}
	return clamp((b*p-(1-p))/b, 0, 0.25)
}

func validationScore(val models.MonteCarloValidation) float64 {
	score := val.SuccessRate * 40
	score += math.Min(20, val.Confidence.Mean/5)
	score += clamp(val.Edge.CI95Low*400, 0, 20)
	switch val.StressTest {
	case models.StressPassed:
		score += 20
	case models.StressDegraded, models.StressSkipped:
		score += 10
	}
	return clamp(score, 0, 100)
}
