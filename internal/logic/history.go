package logic

import (
	"context"

	"go.uber.org/zap"
)

type historyService struct {
	pg     PgPool
	logger *zap.SugaredLogger
}

// NewHistoryService reads the per-scenario historical performance table.
// Catalogue defaults stand where no row exists.
func NewHistoryService(pg PgPool, logger *zap.SugaredLogger) HistoryService {
	return &historyService{pg: pg, logger: logger}
}

func (s *historyService) Overrides(ctx context.Context) map[string]ScenarioHistory {
	out := map[string]ScenarioHistory{}
	rows, err := s.pg.Query(ctx,
		"SELECT scenario_id, roi, win_rate, samples FROM scenario_history")
	if err != nil {
		s.logger.Debugw("scenario history unavailable, using catalogue defaults", "error", err)
		return out
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var h ScenarioHistory
		if err := rows.Scan(&id, &h.ROI, &h.WinRate, &h.Samples); err != nil {
			continue
		}
		out[id] = h
	}
	return out
}
