package logic

import "github.com/pitchside/strategy-api/internal/models"

// Fixed edge boosts per weakness type. These feed the scenario detector's
// market tables via the exploit profile.
const (
	setPieceBoostPct     = 5.0
	lateCollapseBoostPct = 7.0
	keeperBoostPct       = 4.0
	keeperCriticalBoost  = 6.0
	pressingBoostPct     = 3.0
	aerialBoostPct       = 4.0
)

// BuildExploitProfile derives the exploitable weaknesses from the loaded
// facets. It runs at load time; nothing downstream mutates the result.
func BuildExploitProfile(p *models.TeamProfile) models.ExploitProfile {
	var out models.ExploitProfile

	add := func(w models.IdentifiedWeakness) {
		out.Weaknesses = append(out.Weaknesses, w)
	}

	if p.Zones.SetPieceShare >= 0.30 {
		severity := models.SeverityHigh
		if p.Zones.SetPieceShare >= 0.40 {
			severity = models.SeverityCritical
		}
		add(models.IdentifiedWeakness{
			Type:            "SET_PIECE_VULNERABILITY",
			Severity:        severity,
			AffectedMarkets: []models.MarketType{models.MarketCornersOver, models.MarketFirstScorerDef},
			EdgeBoostPct:    setPieceBoostPct,
			Confidence:      0.75,
		})
	}

	switch p.Goalkeeper.Tier {
	case models.KeeperBelowAverage:
		add(models.IdentifiedWeakness{
			Type:            "KEEPER_LIABILITY",
			Severity:        models.SeverityHigh,
			AffectedMarkets: []models.MarketType{models.MarketOver25, models.MarketBTTSYes},
			EdgeBoostPct:    keeperBoostPct,
			Confidence:      0.70,
		})
	case models.KeeperLiability:
		add(models.IdentifiedWeakness{
			Type:            "KEEPER_LIABILITY",
			Severity:        models.SeverityCritical,
			AffectedMarkets: []models.MarketType{models.MarketOver25, models.MarketBTTSYes},
			EdgeBoostPct:    keeperCriticalBoost,
			Confidence:      0.80,
		})
	}

	if p.Pressing.BuildUpSuccess > 0 && p.Pressing.BuildUpSuccess < 60 {
		severity := models.SeverityModerate
		if p.Pressing.OwnThirdTurnovers >= 3 {
			severity = models.SeverityHigh
		}
		add(models.IdentifiedWeakness{
			Type:            "PRESS_SUSCEPTIBLE",
			Severity:        severity,
			AffectedMarkets: []models.MarketType{models.MarketGoal0015, models.MarketOver25},
			EdgeBoostPct:    pressingBoostPct,
			Confidence:      0.65,
		})
	}

	if p.Defensive.ConcededTiming.LateRatio() >= 0.35 {
		add(models.IdentifiedWeakness{
			Type:            "LATE_COLLAPSE",
			Severity:        models.SeverityHigh,
			AffectedMarkets: []models.MarketType{models.MarketGoal7690, models.MarketTeamToScoreLast},
			EdgeBoostPct:    lateCollapseBoostPct,
			Confidence:      0.75,
		})
	}

	duels := p.Zones.AerialDuelsWon + p.Zones.AerialDuelsLost
	if duels > 0 && p.Zones.AerialDuelsWon/duels < 0.42 {
		add(models.IdentifiedWeakness{
			Type:            "AERIAL_WEAKNESS",
			Severity:        models.SeverityModerate,
			AffectedMarkets: []models.MarketType{models.MarketCornersOver, models.MarketFirstScorerDef},
			EdgeBoostPct:    aerialBoostPct,
			Confidence:      0.60,
		})
	}

	out.MarketEdges = marketEdges(out.Weaknesses)
	return out
}

// marketEdges folds the weakness list into a per-market edge table.
// Boosts on the same market add; confidence takes the strongest source.
func marketEdges(weaknesses []models.IdentifiedWeakness) []models.MarketEdge {
	byMarket := map[models.MarketType]*models.MarketEdge{}
	var order []models.MarketType
	for _, w := range weaknesses {
		for _, m := range w.AffectedMarkets {
			e, ok := byMarket[m]
			if !ok {
				e = &models.MarketEdge{Market: m}
				byMarket[m] = e
				order = append(order, m)
			}
			e.EdgePct += w.EdgeBoostPct
			if w.Confidence > e.Confidence {
				e.Confidence = w.Confidence
			}
		}
	}
	out := make([]models.MarketEdge, 0, len(order))
	for _, m := range order {
		out = append(out, *byMarket[m])
	}
	return out
}
