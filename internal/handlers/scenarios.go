package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ListScenarios returns the active scenario catalogue
// @Summary List scenarios
// @Tags Scenarios
// @Produce json
// @Success 200 {array} models.ScenarioDefinition
// @Router /scenarios [get]
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	defs := h.engine.Detector().Catalogue()
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":     len(defs),
		"scenarios": defs,
	})
}

// GetScenario returns a single scenario definition by ID
// @Summary Get a scenario
// @Tags Scenarios
// @Produce json
// @Param id path string true "Scenario ID, e.g. TOTAL_CHAOS"
// @Success 200 {object} models.ScenarioDefinition
// @Failure 404 {object} map[string]string "Unknown scenario"
// @Router /scenarios/{id} [get]
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(chi.URLParam(r, "id"))
	def, ok := h.engine.Detector().Definition(id)
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Unknown scenario")
		return
	}
	h.jsonResponse(w, http.StatusOK, def)
}
