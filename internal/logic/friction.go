package logic

import (
	"context"

	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/models"
)

type frictionService struct {
	pg     PgPool
	logger *zap.SugaredLogger
}

// NewFrictionService looks up the precomputed matchup friction table.
func NewFrictionService(pg PgPool, logger *zap.SugaredLogger) FrictionService {
	return &frictionService{pg: pg, logger: logger}
}

// Get returns the friction record for the ordered (home, away) pair, or
// the neutral default when no row exists.
func (s *frictionService) Get(ctx context.Context, home, away string) models.FrictionRecord {
	home, away = CanonicalName(home), CanonicalName(away)
	rec := models.NeutralFriction(home, away)

	err := s.pg.QueryRow(ctx, `
		SELECT kinetic_friction_home, kinetic_friction_away, friction_score,
		       chaos_potential, style_clash, tempo_clash, mental_clash,
		       predicted_goals, home_dominant, away_dominant
		FROM matchup_friction
		WHERE home_team = $1 AND away_team = $2
	`, home, away).Scan(
		&rec.KineticFrictionHome, &rec.KineticFrictionAway, &rec.FrictionScore,
		&rec.ChaosPotential, &rec.StyleClash, &rec.TempoClash, &rec.MentalClash,
		&rec.PredictedGoals, &rec.HomeDominant, &rec.AwayDominant,
	)
	if err != nil {
		s.logger.Debugw("no friction record, using neutral", "home", home, "away", away)
		return models.NeutralFriction(home, away)
	}
	return rec
}
