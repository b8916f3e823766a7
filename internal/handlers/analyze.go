package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/pitchside/strategy-api/internal/logic"
	"github.com/pitchside/strategy-api/internal/models"
)

var (
	analysesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strategy_analyses_total",
		Help: "Total analyses served, by mode",
	}, []string{"mode"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "strategy_analysis_duration_seconds",
		Help:    "Duration of full pipeline runs",
		Buckets: prometheus.DefBuckets,
	})
)

var (
	featureCountOnce sync.Once
	featureCountVal  int
)

// featureCount derives the feature-map cardinality from a neutral run.
func featureCount() int {
	featureCountOnce.Do(func() {
		calc := logic.NewFeatureCalculator()
		home := &models.TeamProfile{Name: "home"}
		away := &models.TeamProfile{Name: "away"}
		features := calc.Calculate(home, away, models.NeutralFriction("home", "away"), models.DefaultContext())
		featureCountVal = len(features)
	})
	return featureCountVal
}

// Analyze runs the full pipeline for one fixture
// @Summary Analyze a match
// @Description Full pipeline: profiles, features, scenario detection, Monte Carlo validation, recommendations
// @Tags Analysis
// @Accept json
// @Produce json
// @Param request body models.AnalyzeRequest true "Match request"
// @Success 200 {object} models.MatchStrategy
// @Failure 400 {object} map[string]string "Bad request"
// @Router /analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, false)
}

// AnalyzeQuick runs the reduced Monte Carlo budget with no stress test
// @Summary Quick match analysis
// @Tags Analysis
// @Accept json
// @Produce json
// @Param request body models.AnalyzeRequest true "Match request"
// @Success 200 {object} models.MatchStrategy
// @Router /analyze/quick [post]
func (h *Handler) AnalyzeQuick(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, true)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, quick bool) {
	var req models.AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}

	mode := "full"
	if quick {
		mode = "quick"
	}

	start := time.Now()
	strategy, err := h.engine.Analyze(r.Context(), req, quick)
	analysisDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// cancelled mid-pipeline: serve whatever stages completed
			h.logger.Warnw("analysis cancelled", "home", req.HomeTeam, "away", req.AwayTeam)
			h.jsonResponse(w, http.StatusOK, strategy)
			return
		}
		h.logger.Errorw("analysis failed", "home", req.HomeTeam, "away", req.AwayTeam, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	analysesServed.WithLabelValues(mode).Inc()
	h.jsonResponse(w, http.StatusOK, strategy)
}

// AnalyzeBatch fans a list of fixtures across the engine
// @Summary Batch analysis
// @Tags Analysis
// @Accept json
// @Produce json
// @Param request body models.BatchAnalyzeRequest true "Batch request"
// @Success 200 {object} models.BatchAnalyzeResponse
// @Router /analyze/batch [post]
func (h *Handler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchAnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Matches) > h.batchLimit {
		h.errorResponse(w, http.StatusBadRequest, "Batch exceeds the configured limit")
		return
	}

	strategies := make([]*models.MatchStrategy, len(req.Matches))
	errs := make([]string, len(req.Matches))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for i, match := range req.Matches {
		g.Go(func() error {
			strategy, err := h.engine.Analyze(ctx, match, true)
			strategies[i] = strategy
			if err != nil {
				errs[i] = err.Error()
			}
			return nil // per-match failures do not sink the batch
		})
	}
	g.Wait()

	resp := models.BatchAnalyzeResponse{Strategies: strategies}
	for _, e := range errs {
		if e != "" {
			resp.Errors = append(resp.Errors, e)
		}
	}
	analysesServed.WithLabelValues("batch").Add(float64(len(req.Matches)))
	h.jsonResponse(w, http.StatusOK, resp)
}
