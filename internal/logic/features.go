package logic

import (
	"math"

	"github.com/pitchside/strategy-api/internal/models"
)

// Neutral defaults substituted for missing inputs. Kept in one place so
// the calculator stays deterministic about absence.
const (
	defPossession  = 50.0
	defPassAcc     = 80.0
	defXGPerMatch  = 1.3
	defXGAPerMatch = 1.4
	defShots       = 12.0
	defShotsOT     = 4.5
	defDangerous   = 45.0
	defConversion  = 10.0
	defPPDA        = 10.0
	defBenchImpact = 5.0
	defPressDecay  = 0.15
	defDiesel      = 0.33
	defSprinter    = 0.33
	defClutch      = 0.17
	defKiller      = 50.0
	defResilience  = 50.0
	defPPG         = 1.35
	defPosition    = 10
)

// homeAdvantageFactor is the fixed venue multiplier.
const homeAdvantageFactor = 1.15

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func boolF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// FeatureCalculator derives the per-match feature vector from two team
// fingerprints, the matchup friction record and the fixture context.
// It is pure: same inputs, same map.
type FeatureCalculator struct{}

// NewFeatureCalculator returns the stateless calculator.
func NewFeatureCalculator() *FeatureCalculator {
	return &FeatureCalculator{}
}

// Calculate emits the full feature map (~175 keys).
func (c *FeatureCalculator) Calculate(home, away *models.TeamProfile, friction models.FrictionRecord, matchCtx models.MatchContext) models.FeatureMap {
	f := make(models.FeatureMap, 200)

	c.composite(f, home, away)
	c.friction(f, friction)
	c.temporal(f, home, away)
	c.physical(f, matchCtx, home, away)
	c.roster(f, home, away)
	c.psyche(f, home, away)
	c.tactical(f, home, away)
	c.matchContext(f, matchCtx, home, away)
	c.defense(f, home, away)
	c.interactions(f)
	c.luck(f, home, away)
	c.chameleon(f, home, away)

	return f
}

func (c *FeatureCalculator) composite(f models.FeatureMap, home, away *models.TeamProfile) {
	shotsH := orDefault(home.Offensive.Shots, defShots)
	shotsA := orDefault(away.Offensive.Shots, defShots)
	sotH := orDefault(home.Offensive.ShotsOnTarget, defShotsOT)
	sotA := orDefault(away.Offensive.ShotsOnTarget, defShotsOT)
	daH := orDefault(home.Offensive.DangerousAttacks, defDangerous)
	daA := orDefault(away.Offensive.DangerousAttacks, defDangerous)

	paceH := shotsH*2 + daH*0.5
	paceA := shotsA*2 + daA*0.5
	f["pace_factor_home"] = paceH
	f["pace_factor_away"] = paceA
	f["pace_factor_combined"] = paceH + paceA
	f["pace_factor_diff"] = paceH - paceA

	possH := orDefault(home.Possession.AvgPossession, defPossession)
	possA := orDefault(away.Possession.AvgPossession, defPossession)
	accH := orDefault(home.Possession.PassAccuracy, defPassAcc)
	accA := orDefault(away.Possession.PassAccuracy, defPassAcc)
	f["control_index_home"] = possH*0.6 + accH*0.4
	f["control_index_away"] = possA*0.6 + accA*0.4
	f["control_index_diff"] = f["control_index_home"] - f["control_index_away"]

	f["sniper_index_home"] = sniperIndex(shotsH, sotH, orDefault(home.Offensive.ConversionRate, defConversion))
	f["sniper_index_away"] = sniperIndex(shotsA, sotA, orDefault(away.Offensive.ConversionRate, defConversion))

	xgH := orDefault(home.Offensive.XGPerMatch.Value, defXGPerMatch)
	xgA := orDefault(away.Offensive.XGPerMatch.Value, defXGPerMatch)
	f["xg_home"] = xgH
	f["xg_away"] = xgA
	f["xg_combined"] = xgH + xgA
	f["xg_diff"] = xgH - xgA

	f["shots_combined"] = shotsH + shotsA
	f["shots_on_target_home"] = sotH
	f["shots_on_target_away"] = sotA
	f["shots_on_target_combined"] = sotH + sotA
	f["conversion_home"] = orDefault(home.Offensive.ConversionRate, defConversion)
	f["conversion_away"] = orDefault(away.Offensive.ConversionRate, defConversion)
}

// sniperIndex maps shot accuracy and conversion onto [0, 100].
func sniperIndex(shots, onTarget, conversionPct float64) float64 {
	accuracy := 0.0
	if shots > 0 {
		accuracy = onTarget / shots * 100
	}
	return clamp(accuracy*0.6+math.Min(100, conversionPct*5)*0.4, 0, 100)
}

func (c *FeatureCalculator) friction(f models.FeatureMap, fr models.FrictionRecord) {
	f["kinetic_friction_home"] = fr.KineticFrictionHome
	f["kinetic_friction_away"] = fr.KineticFrictionAway
	f["kinetic_friction_total"] = fr.KineticFrictionHome + fr.KineticFrictionAway
	f["kinetic_friction_diff"] = fr.KineticFrictionHome - fr.KineticFrictionAway
	f["friction_score"] = fr.FrictionScore
	f["chaos_potential"] = fr.ChaosPotential
	f["style_clash"] = fr.StyleClash
	f["tempo_clash"] = fr.TempoClash
	f["mental_clash"] = fr.MentalClash
	f["predicted_goals"] = fr.PredictedGoals
	f["home_dominant"] = boolF(fr.HomeDominant)
	f["away_dominant"] = boolF(fr.AwayDominant)
	// a team's solidity is eroded by the friction the opponent generates
	f["defensive_solidity_home"] = 100 - fr.KineticFrictionAway
	f["defensive_solidity_away"] = 100 - fr.KineticFrictionHome
}

func (c *FeatureCalculator) temporal(f models.FeatureMap, home, away *models.TeamProfile) {
	dieselH := timingOr(home.Offensive.GoalsTiming.LateRatio(), defDiesel, home.Offensive.GoalsTiming)
	dieselA := timingOr(away.Offensive.GoalsTiming.LateRatio(), defDiesel, away.Offensive.GoalsTiming)
	sprintH := timingOr(home.Offensive.GoalsTiming.EarlyRatio(), defSprinter, home.Offensive.GoalsTiming)
	sprintA := timingOr(away.Offensive.GoalsTiming.EarlyRatio(), defSprinter, away.Offensive.GoalsTiming)
	clutchH := timingOr(home.Offensive.GoalsTiming.ClutchRatio(), defClutch, home.Offensive.GoalsTiming)
	clutchA := timingOr(away.Offensive.GoalsTiming.ClutchRatio(), defClutch, away.Offensive.GoalsTiming)

	f["diesel_factor_home"] = dieselH
	f["diesel_factor_away"] = dieselA
	f["diesel_factor_combined"] = dieselH + dieselA
	f["sprinter_factor_home"] = sprintH
	f["sprinter_factor_away"] = sprintA
	f["sprinter_factor_combined"] = sprintH + sprintA
	f["clutch_factor_home"] = clutchH
	f["clutch_factor_away"] = clutchA
	f["clutch_factor_combined"] = clutchH + clutchA

	fhH := orDefault(home.Offensive.FirstHalfXG, defXGPerMatch*0.45)
	fhA := orDefault(away.Offensive.FirstHalfXG, defXGPerMatch*0.45)
	shH := orDefault(home.Offensive.SecondHalfXG, defXGPerMatch*0.55)
	shA := orDefault(away.Offensive.SecondHalfXG, defXGPerMatch*0.55)
	f["first_half_xg_home"] = fhH
	f["first_half_xg_away"] = fhA
	f["first_half_xg_combined"] = fhH + fhA
	f["second_half_xg_home"] = shH
	f["second_half_xg_away"] = shA
	f["second_half_xg_combined"] = shH + shA

	f["both_diesel"] = boolF(dieselH > 0.45 && dieselA > 0.45)
	f["both_sprinter"] = boolF(sprintH > 0.45 && sprintA > 0.45)
	f["diesel_vs_sprinter"] = boolF(dieselH > 0.50 && sprintA > 0.50 || dieselA > 0.50 && sprintH > 0.50)
	f["second_half_expected_higher"] = boolF(shH+shA > fhH+fhA)

	f["late_punishment_home"] = dieselH * clutchH
	f["late_punishment_away"] = dieselA * clutchA
	f["early_explosion"] = sprintH * sprintA

	f["conceded_late_home"] = home.Defensive.ConcededTiming.LateRatio()
	f["conceded_late_away"] = away.Defensive.ConcededTiming.LateRatio()
	f["conceded_early_home"] = home.Defensive.ConcededTiming.EarlyRatio()
	f["conceded_early_away"] = away.Defensive.ConcededTiming.EarlyRatio()
}

// timingOr falls back to the neutral ratio when the timing vector is empty.
func timingOr(ratio, def float64, v models.TimingVector) float64 {
	if v.Total() == 0 {
		return def
	}
	return ratio
}

func (c *FeatureCalculator) physical(f models.FeatureMap, ctx models.MatchContext, home, away *models.TeamProfile) {
	restH := ctx.RestDaysHome
	restA := ctx.RestDaysAway
	if restH <= 0 {
		restH = 7
	}
	if restA <= 0 {
		restA = 7
	}
	f["rest_days_home"] = float64(restH)
	f["rest_days_away"] = float64(restA)
	f["rest_days_gap"] = float64(restH - restA)
	f["european_week_home"] = boolF(ctx.IsEuropeanWeekHome)
	f["european_week_away"] = boolF(ctx.IsEuropeanWeekAway)

	fatigueH := math.Max(0, float64(7-restH)*0.1) + 0.15*boolF(ctx.IsEuropeanWeekHome)
	fatigueA := math.Max(0, float64(7-restA)*0.1) + 0.15*boolF(ctx.IsEuropeanWeekAway)
	f["fatigue_home"] = fatigueH
	f["fatigue_away"] = fatigueA

	decayH := orDefault(home.Pressing.PressingDecay, defPressDecay)
	decayA := orDefault(away.Pressing.PressingDecay, defPressDecay)
	f["pressing_decay_home"] = decayH
	f["pressing_decay_away"] = decayA

	f["stamina_home"] = clamp(100*(1-decayH)-fatigueH*50, 0, 100)
	f["stamina_away"] = clamp(100*(1-decayA)-fatigueA*50, 0, 100)
	f["collapse_potential_home"] = decayH * fatigueH * 100
	f["collapse_potential_away"] = decayA * fatigueA * 100
	f["late_game_physical_adv_home"] = (1 - decayH) * (1 - fatigueH)
	f["late_game_physical_adv_away"] = (1 - decayA) * (1 - fatigueA)
}

func (c *FeatureCalculator) roster(f models.FeatureMap, home, away *models.TeamProfile) {
	f["mvp_dependency_home"] = home.Coach.Substitutions.MVPDependency
	f["mvp_dependency_away"] = away.Coach.Substitutions.MVPDependency

	benchH := orDefault(home.Coach.Substitutions.BenchImpact, defBenchImpact)
	benchA := orDefault(away.Coach.Substitutions.BenchImpact, defBenchImpact)
	f["bench_impact_home"] = benchH
	f["bench_impact_away"] = benchA
	f["bench_impact_gap"] = benchH - benchA

	clinH := clinicalValue(home.Coach.Clinical)
	clinA := clinicalValue(away.Coach.Clinical)
	f["clinical_home"] = clinH
	f["clinical_away"] = clinA
	f["clinical_high_home"] = boolF(clinH >= 0.7)
	f["clinical_high_away"] = boolF(clinA >= 0.7)
	f["clinical_low_home"] = boolF(clinH <= 0.3)
	f["clinical_low_away"] = boolF(clinA <= 0.3)

	f["attacking_sub_rate_home"] = home.Coach.Substitutions.AttackingSubRate
	f["attacking_sub_rate_away"] = away.Coach.Substitutions.AttackingSubRate
	f["first_sub_minute_home"] = orDefault(home.Coach.Substitutions.AvgFirstSubMinute, 62)
	f["first_sub_minute_away"] = orDefault(away.Coach.Substitutions.AvgFirstSubMinute, 62)
	f["rotation_tendency_home"] = home.Coach.RotationTendency
	f["rotation_tendency_away"] = away.Coach.RotationTendency
}

func clinicalValue(r models.ClinicalRating) float64 {
	switch r {
	case models.ClinicalPoor:
		return 0.3
	case models.ClinicalGood:
		return 0.7
	case models.ClinicalElite:
		return 0.9
	default:
		return 0.5
	}
}

func (c *FeatureCalculator) psyche(f models.FeatureMap, home, away *models.TeamProfile) {
	killerH := orDefault(home.Coach.KillerInstinct, defKiller)
	killerA := orDefault(away.Coach.KillerInstinct, defKiller)
	resH := orDefault(home.Coach.ResilienceIndex, defResilience)
	resA := orDefault(away.Coach.ResilienceIndex, defResilience)
	collapseH := home.Coach.CollapseRate
	collapseA := away.Coach.CollapseRate

	f["killer_instinct_home"] = killerH
	f["killer_instinct_away"] = killerA
	f["collapse_rate_home"] = collapseH
	f["collapse_rate_away"] = collapseA
	f["resilience_home"] = resH
	f["resilience_away"] = resA

	for _, side := range []struct {
		suffix    string
		mentality models.Mentality
	}{{"home", home.Coach.Mentality}, {"away", away.Coach.Mentality}} {
		f["mentality_aggressive_"+side.suffix] = boolF(side.mentality == models.MentalityAggressive)
		f["mentality_balanced_"+side.suffix] = boolF(side.mentality == models.MentalityBalanced || side.mentality == "")
		f["mentality_conservative_"+side.suffix] = boolF(side.mentality == models.MentalityConservative)
		f["mentality_chaotic_"+side.suffix] = boolF(side.mentality == models.MentalityChaotic)
	}

	// panic scales collapse tendency by missing resilience
	f["panic_factor_home"] = collapseH * (1 - resH/100) * 100
	f["panic_factor_away"] = collapseA * (1 - resA/100) * 100

	// collapse enters as a percentage so one bad habit can sink the index
	f["psyche_dominance_home"] = killerH*resH/100 - 2*collapseH*100
	f["psyche_dominance_away"] = killerA*resA/100 - 2*collapseA*100
}

func (c *FeatureCalculator) tactical(f models.FeatureMap, home, away *models.TeamProfile) {
	f["formation_433_home"] = boolF(home.Coach.FormationPrimary == "4-3-3")
	f["formation_433_away"] = boolF(away.Coach.FormationPrimary == "4-3-3")
	f["formation_442_home"] = boolF(home.Coach.FormationPrimary == "4-4-2")
	f["formation_442_away"] = boolF(away.Coach.FormationPrimary == "4-4-2")

	f["set_piece_threat_home"] = home.Coach.SetPieceFocus
	f["set_piece_threat_away"] = away.Coach.SetPieceFocus
	f["verticality_home"] = home.Possession.Verticality
	f["verticality_away"] = away.Possession.Verticality
	f["ppda_home"] = orDefault(home.Pressing.PPDA, defPPDA)
	f["ppda_away"] = orDefault(away.Pressing.PPDA, defPPDA)
	f["structure_rigidity_home"] = home.Coach.StructureRigidity
	f["structure_rigidity_away"] = away.Coach.StructureRigidity

	f["aerial_threat_home"] = aerialThreat(home.Zones)
	f["aerial_threat_away"] = aerialThreat(away.Zones)
	f["counter_goal_share_home"] = home.Offensive.CounterGoalShare
	f["counter_goal_share_away"] = away.Offensive.CounterGoalShare
	f["set_piece_goal_share_home"] = home.Offensive.SetPieceGoalShare
	f["set_piece_goal_share_away"] = away.Offensive.SetPieceGoalShare
}

func aerialThreat(z models.ZoneProfile) float64 {
	duels := z.AerialDuelsWon + z.AerialDuelsLost
	if duels == 0 {
		return 50
	}
	return z.AerialDuelsWon / duels * 100
}

func (c *FeatureCalculator) matchContext(f models.FeatureMap, ctx models.MatchContext, home, away *models.TeamProfile) {
	posH := home.Context.LeaguePosition
	posA := away.Context.LeaguePosition
	if posH == 0 {
		posH = defPosition
	}
	if posA == 0 {
		posA = defPosition
	}
	f["league_position_home"] = float64(posH)
	f["league_position_away"] = float64(posA)

	ppgH := orDefault(home.Context.PPG, defPPG)
	ppgA := orDefault(away.Context.PPG, defPPG)
	f["ppg_home"] = ppgH
	f["ppg_away"] = ppgA

	f["title_race_home"] = boolF(home.Context.TitleRace)
	f["title_race_away"] = boolF(away.Context.TitleRace)
	f["european_race_home"] = boolF(home.Context.EuropeanRace)
	f["european_race_away"] = boolF(away.Context.EuropeanRace)
	f["relegation_home"] = boolF(home.Context.RelegationRisk)
	f["relegation_away"] = boolF(away.Context.RelegationRisk)

	f["motivation_home"] = motivation(posH)
	f["motivation_away"] = motivation(posA)

	f["form_points_home"] = float64(home.Momentum.Last5Points)
	f["form_points_away"] = float64(away.Momentum.Last5Points)
	f["momentum_state_home"] = momentumValue(home.Momentum.State)
	f["momentum_state_away"] = momentumValue(away.Momentum.State)
	f["unbeaten_streak_home"] = float64(home.Momentum.UnbeatenStreak)
	f["unbeaten_streak_away"] = float64(away.Momentum.UnbeatenStreak)
	f["winless_streak_home"] = float64(home.Momentum.WinlessStreak)
	f["winless_streak_away"] = float64(away.Momentum.WinlessStreak)

	f["quality_gap"] = ppgH - ppgA
	f["home_advantage_factor"] = homeAdvantageFactor
	f["importance_factor"] = importanceValue(ctx.Importance)
	f["home_ppg_venue"] = home.HomeAway.Home.PPG
	f["away_ppg_venue"] = away.HomeAway.Away.PPG
}

// motivation: top of the table and relegation scrappers both push harder.
func motivation(position int) float64 {
	switch {
	case position <= 3:
		return 90
	case position <= 7:
		return 75
	case position >= 17:
		return 85
	default:
		return 60
	}
}

func momentumValue(s models.MomentumState) float64 {
	switch s {
	case models.MomentumOnFire:
		return 2
	case models.MomentumHot:
		return 1
	case models.MomentumCold:
		return -1
	case models.MomentumCrisis:
		return -2
	default:
		return 0
	}
}

func importanceValue(i models.MatchImportance) float64 {
	switch i {
	case models.ImportanceLow:
		return 0.8
	case models.ImportanceHigh:
		return 1.15
	case models.ImportanceCritical:
		return 1.3
	default:
		return 1.0
	}
}

func (c *FeatureCalculator) defense(f models.FeatureMap, home, away *models.TeamProfile) {
	xgaH := orDefault(home.Defensive.XGAPerMatch.Value, defXGAPerMatch)
	xgaA := orDefault(away.Defensive.XGAPerMatch.Value, defXGAPerMatch)
	f["xga_home"] = xgaH
	f["xga_away"] = xgaA
	f["xga_combined"] = xgaH + xgaA

	f["clean_sheet_rate_home"] = home.Defensive.CleanSheetRate
	f["clean_sheet_rate_away"] = away.Defensive.CleanSheetRate
	f["big_chances_conceded_home"] = home.Defensive.BigChancesConceded
	f["big_chances_conceded_away"] = away.Defensive.BigChancesConceded
	f["vs_low_block_weakness_home"] = home.Defensive.VsLowBlockWeakness
	f["vs_low_block_weakness_away"] = away.Defensive.VsLowBlockWeakness

	f["save_pct_home"] = orDefault(home.Goalkeeper.SavePct, 70)
	f["save_pct_away"] = orDefault(away.Goalkeeper.SavePct, 70)
	f["keeper_psxg_delta_home"] = home.Goalkeeper.PSxGMinusGoals
	f["keeper_psxg_delta_away"] = away.Goalkeeper.PSxGMinusGoals

	f["set_piece_share_against_home"] = home.Zones.SetPieceShare
	f["set_piece_share_against_away"] = away.Zones.SetPieceShare
	f["penalty_share_against_home"] = home.Zones.PenaltyShare
	f["penalty_share_against_away"] = away.Zones.PenaltyShare
}

func (c *FeatureCalculator) interactions(f models.FeatureMap) {
	f["late_punishment_potential_home"] = f["fatigue_away"] * f["bench_impact_home"] * f["diesel_factor_home"]
	f["late_punishment_potential_away"] = f["fatigue_home"] * f["bench_impact_away"] * f["diesel_factor_away"]
	f["pressing_death"] = (10 - f["ppda_home"]) * f["pressing_decay_away"] * 10
	f["pressing_death_reverse"] = (10 - f["ppda_away"]) * f["pressing_decay_home"] * 10
	f["second_half_dominance_home"] = f["diesel_factor_home"] * (1 + f["pressing_decay_away"])
	f["second_half_dominance_away"] = f["diesel_factor_away"] * (1 + f["pressing_decay_home"])
	f["drama_potential"] = f["diesel_factor_combined"] * f["clutch_factor_combined"] * f["chaos_potential"] / 50
}

func (c *FeatureCalculator) luck(f models.FeatureMap, home, away *models.TeamProfile) {
	// xpoints_delta is expected minus actual: positive = unlucky so far,
	// i.e. expected to regress upward.
	deltaH := -home.Variance.PointsDiff
	deltaA := -away.Variance.PointsDiff
	f["xpoints_delta_home"] = deltaH
	f["xpoints_delta_away"] = deltaA
	f["regression_up_home"] = boolF(deltaH > 3)
	f["regression_up_away"] = boolF(deltaA > 3)
	f["regression_down_home"] = boolF(deltaH < -3)
	f["regression_down_away"] = boolF(deltaA < -3)
	f["value_regression_home"] = math.Max(0, deltaH)
	f["value_regression_away"] = math.Max(0, deltaA)
	f["goals_minus_xg_home"] = home.Variance.GoalsMinusXG
	f["goals_minus_xg_away"] = away.Variance.GoalsMinusXG
}

func (c *FeatureCalculator) chameleon(f models.FeatureMap, home, away *models.TeamProfile) {
	f["comeback_ability_home"] = home.Coach.ComebackAbility
	f["comeback_ability_away"] = away.Coach.ComebackAbility
	f["adaptability_home"] = home.Coach.Adaptability
	f["adaptability_away"] = away.Coach.Adaptability
	f["flexibility_home"] = flexibility(home.Coach)
	f["flexibility_away"] = flexibility(away.Coach)

	// the underdog's capacity to flip the script
	if f["quality_gap"] >= 0 {
		f["upset_potential"] = (f["comeback_ability_away"] + f["adaptability_away"]) / 2 * clamp(f["quality_gap"], 0, 1)
	} else {
		f["upset_potential"] = (f["comeback_ability_home"] + f["adaptability_home"]) / 2 * clamp(-f["quality_gap"], 0, 1)
	}
}

func flexibility(coach models.CoachProfile) float64 {
	base := 100 - coach.StructureRigidity
	if coach.FormationSecondary != "" && coach.FormationSecondary != coach.FormationPrimary {
		base = clamp(base+15, 0, 100)
	}
	return base
}
