package handlers

import (
	"net/http"

	"github.com/pitchside/strategy-api/internal/logic"
	"github.com/pitchside/strategy-api/internal/models"
)

// ValidateScenario runs the Monte Carlo validator against a caller-supplied
// scenario and feature map, without touching profiles or the detector
// @Summary Validate a scenario under noise
// @Tags Monte Carlo
// @Accept json
// @Produce json
// @Param request body models.ValidateScenarioRequest true "Scenario and features"
// @Success 200 {object} models.MonteCarloValidation
// @Failure 400 {object} map[string]string "Bad request"
// @Router /monte-carlo/validate [post]
func (h *Handler) ValidateScenario(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Scenario.Conditions) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "Scenario has no conditions")
		return
	}

	opts := logic.DefaultMonteCarloOptions()
	opts.StressTest = false
	if req.Simulations > 0 {
		opts.Simulations = req.Simulations
	}
	if req.NoiseLevel > 0 {
		opts.NoiseLevel = req.NoiseLevel
	}
	opts.Seed = req.Seed

	result := h.engine.Validator().Validate(r.Context(), req.Scenario, req.Features, req.Odds, opts)
	h.jsonResponse(w, http.StatusOK, result)
}

// ConfigureMonteCarlo applies runtime tuning to the validator
// @Summary Tune Monte Carlo settings
// @Tags Monte Carlo
// @Accept json
// @Produce json
// @Param request body models.MonteCarloConfigRequest true "Settings to change"
// @Success 200 {object} logic.EngineConfig
// @Router /config/monte-carlo [post]
func (h *Handler) ConfigureMonteCarlo(w http.ResponseWriter, r *http.Request) {
	var req models.MonteCarloConfigRequest
	if !h.decode(w, r, &req) {
		return
	}
	cfg := h.engine.UpdateMonteCarlo(req)
	h.logger.Infow("monte carlo configuration updated",
		"enabled", cfg.MonteCarloEnabled,
		"simulations", cfg.MonteCarlo.Simulations,
		"noise", cfg.MonteCarlo.NoiseLevel)
	h.jsonResponse(w, http.StatusOK, cfg)
}

// Stats returns the engine's running counters
// @Summary Engine statistics
// @Tags System
// @Produce json
// @Success 200 {object} models.EngineStats
// @Router /stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Counters().Snapshot(r.Context())
	h.jsonResponse(w, http.StatusOK, stats)
}
