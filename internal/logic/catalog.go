package logic

import "github.com/pitchside/strategy-api/internal/models"

// metricAliases maps scenario-native metric names onto feature keys.
// Identity lookups skip the table; only renames live here.
var metricAliases = map[string]string{
	"pace_combined":           "pace_factor_combined",
	"pace_home":               "pace_factor_home",
	"pace_away":               "pace_factor_away",
	"pace_diff":               "pace_factor_diff",
	"xg_total":                "xg_combined",
	"xg_gap":                  "xg_diff",
	"control_home":            "control_index_home",
	"control_away":            "control_index_away",
	"control_diff":            "control_index_diff",
	"chaos":                   "chaos_potential",
	"friction":                "friction_score",
	"diesel_home":             "diesel_factor_home",
	"diesel_away":             "diesel_factor_away",
	"diesel_combined":         "diesel_factor_combined",
	"sprinter_home":           "sprinter_factor_home",
	"sprinter_away":           "sprinter_factor_away",
	"sprinter_combined":       "sprinter_factor_combined",
	"clutch_home":             "clutch_factor_home",
	"clutch_away":             "clutch_factor_away",
	"sot_combined":            "shots_on_target_combined",
	"bench_gap":               "bench_impact_gap",
	"bench_home":              "bench_impact_home",
	"bench_away":              "bench_impact_away",
	"rest_gap":                "rest_days_gap",
	"euro_week_away":          "european_week_away",
	"euro_week_home":          "european_week_home",
	"keeper_delta_home":       "keeper_psxg_delta_home",
	"keeper_delta_away":       "keeper_psxg_delta_away",
	"conservative_home":       "mentality_conservative_home",
	"conservative_away":       "mentality_conservative_away",
	"low_block_weakness_away": "vs_low_block_weakness_away",
	"low_block_weakness_home": "vs_low_block_weakness_home",
	"set_piece_against_away":  "set_piece_share_against_away",
	"set_piece_against_home":  "set_piece_share_against_home",
	"counter_share_home":      "counter_goal_share_home",
	"counter_share_away":      "counter_goal_share_away",
	"late_conceded_away":      "conceded_late_away",
	"late_conceded_home":      "conceded_late_home",
}

// computedMetrics are small lambdas over the feature map for names that do
// not exist as single keys.
var computedMetrics = map[string]func(models.FeatureMap) float64{
	"defensive_solidity_combined": func(f models.FeatureMap) float64 {
		return f["defensive_solidity_home"] + f["defensive_solidity_away"]
	},
	"sniper_index_min": func(f models.FeatureMap) float64 {
		if f["sniper_index_home"] < f["sniper_index_away"] {
			return f["sniper_index_home"]
		}
		return f["sniper_index_away"]
	},
	"clutch_factor_max": func(f models.FeatureMap) float64 {
		if f["clutch_factor_home"] > f["clutch_factor_away"] {
			return f["clutch_factor_home"]
		}
		return f["clutch_factor_away"]
	},
	"killer_instinct_max": func(f models.FeatureMap) float64 {
		if f["killer_instinct_home"] > f["killer_instinct_away"] {
			return f["killer_instinct_home"]
		}
		return f["killer_instinct_away"]
	},
	"fatigue_max": func(f models.FeatureMap) float64 {
		if f["fatigue_home"] > f["fatigue_away"] {
			return f["fatigue_home"]
		}
		return f["fatigue_away"]
	},
	"xga_per_match_combined": func(f models.FeatureMap) float64 {
		return f["xga_home"] + f["xga_away"]
	},
}

// ResolveMetric turns a scenario-native metric name into a value from
// the feature map. ok is false when the name resolves to nothing.
func ResolveMetric(f models.FeatureMap, name string) (float64, bool) {
	if fn, ok := computedMetrics[name]; ok {
		return fn(f), true
	}
	key := name
	if alias, ok := metricAliases[name]; ok {
		key = alias
	}
	v, ok := f[key]
	return v, ok
}

func cond(metric string, op models.ConditionOperator, threshold float64, desc string) models.ScenarioCondition {
	return models.ScenarioCondition{Metric: metric, Operator: op, Threshold: threshold, Description: desc}
}

func pick(m models.MarketType, edge, conf float64) models.MarketPick {
	return models.MarketPick{Market: m, TypicalEdgePct: edge, TypicalConfidence: conf}
}

// ScenarioCatalogue returns the full set of 20 scenario definitions.
// Historical ROI and win rate are defaults; the scenario_history table
// overrides them at engine construction.
func ScenarioCatalogue() []models.ScenarioDefinition {
	return []models.ScenarioDefinition{
		// ---- TACTICAL ----
		{
			ID: "TOTAL_CHAOS", Name: "Total Chaos", Category: models.CategoryTactical,
			Conditions: []models.ScenarioCondition{
				cond("pace_combined", models.OpGT, 120, "both teams generate high tempo"),
				cond("xg_total", models.OpGT, 3.0, "combined xG points at goals"),
				cond("chaos", models.OpGT, 60, "matchup friction is chaotic"),
				cond("defensive_solidity_combined", models.OpLT, 100, "neither defence holds its shape"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketOver35, 9, 68),
				pick(models.MarketOver25, 7, 74),
				pick(models.MarketFirstHalfOver15, 6, 62),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketBTTSYes, 6, 70)},
			AvoidMarkets:     []models.MarketType{models.MarketUnder25, models.MarketHomeCleanSheet, models.MarketAwayCleanSheet},
			HistoricalROI:    14, HistoricalWinRate: 54, MinConfidence: 55,
		},
		{
			ID: "THE_SIEGE", Name: "The Siege", Category: models.CategoryTactical,
			Conditions: []models.ScenarioCondition{
				cond("control_home", models.OpGT, 62, "home side monopolises the ball"),
				cond("home_dominant", models.OpEQ, 1, "matchup record says home dominates"),
				cond("defensive_solidity_away", models.OpGT, 55, "away side parks a working bus"),
				cond("xg_home", models.OpGT, 1.7, "home creates despite the block"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketCornersOver, 8, 70),
				pick(models.MarketAsianHandicapHome, 6, 64),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketHomeOver15, 5, 60)},
			AvoidMarkets:     []models.MarketType{models.MarketAwayOver15, models.MarketBTTSYes},
			HistoricalROI:    8, HistoricalWinRate: 51, MinConfidence: 55,
		},
		{
			ID: "SNIPER_DUEL", Name: "Sniper Duel", Category: models.CategoryTactical,
			Conditions: []models.ScenarioCondition{
				cond("sniper_index_min", models.OpGTE, 70, "both sides convert clinically"),
				cond("sot_combined", models.OpGTE, 11, "shots on target volume is there"),
				cond("xg_total", models.OpGT, 2.4, "chance quality backs the shooting"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketBTTSYes, 10, 72),
				pick(models.MarketOver25, 8, 70),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketOver15, 5, 80)},
			AvoidMarkets:     []models.MarketType{models.MarketHomeCleanSheet, models.MarketAwayCleanSheet},
			HistoricalROI:    16, HistoricalWinRate: 57, MinConfidence: 55,
		},
		{
			ID: "ATTRITION_WAR", Name: "Attrition War", Category: models.CategoryTactical,
			Conditions: []models.ScenarioCondition{
				cond("pace_combined", models.OpLT, 85, "neither side forces tempo"),
				cond("xg_total", models.OpLT, 2.2, "chance creation is scarce"),
				cond("mental_clash", models.OpGT, 60, "a grudge match grinds"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketUnder25, 8, 69),
				pick(models.MarketCornersUnder, 5, 58),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketBTTSNo, 5, 60)},
			AvoidMarkets:     []models.MarketType{models.MarketOver35, models.MarketBTTSYes},
			HistoricalROI:    6, HistoricalWinRate: 50, MinConfidence: 55,
		},
		{
			ID: "GLASS_CANNON", Name: "Glass Cannon", Category: models.CategoryTactical,
			Conditions: []models.ScenarioCondition{
				cond("xg_home", models.OpGT, 1.9, "home attack fires"),
				cond("xga_home", models.OpGT, 1.5, "home defence leaks"),
				cond("xg_away", models.OpGT, 1.3, "away can punish the leaks"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketBTTSYes, 9, 71),
				pick(models.MarketOver25, 8, 70),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketOver35, 6, 58)},
			AvoidMarkets:     []models.MarketType{models.MarketHomeCleanSheet, models.MarketUnder25},
			HistoricalROI:    11, HistoricalWinRate: 53, MinConfidence: 55,
		},

		// ---- TEMPORAL ----
		{
			ID: "LATE_PUNISHMENT", Name: "Late Punishment", Category: models.CategoryTemporal,
			Conditions: []models.ScenarioCondition{
				cond("diesel_home", models.OpGT, 0.55, "home scores late by habit"),
				cond("clutch_home", models.OpGT, 0.60, "home keeps scoring past 75'"),
				cond("late_punishment_potential_home", models.OpGT, 1.5, "tired opponent, fresh legs off the bench"),
				cond("pressing_decay_away", models.OpGT, 0.20, "away pressing dies late"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketGoal7690, 11, 70),
				pick(models.MarketHome2HOver05, 9, 74),
				pick(models.MarketSecondHalfOver15, 7, 66),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketTeamToScoreLast, 6, 62)},
			AvoidMarkets:     []models.MarketType{models.MarketFirstHalfOver15},
			HistoricalROI:    18, HistoricalWinRate: 58, MinConfidence: 55,
		},
		{
			ID: "EXPLOSIVE_START", Name: "Explosive Start", Category: models.CategoryTemporal,
			Conditions: []models.ScenarioCondition{
				cond("sprinter_combined", models.OpGT, 0.90, "both sides start fast"),
				cond("early_explosion", models.OpGT, 0.18, "early goals compound"),
				cond("xg_total", models.OpGT, 2.6, "enough expected goals to front-load"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketGoal0015, 9, 64),
				pick(models.MarketFirstHalfOver05, 8, 76),
				pick(models.MarketFirstHalfOver15, 7, 63),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketOver25, 5, 68)},
			AvoidMarkets:     []models.MarketType{models.MarketUnder25},
			HistoricalROI:    9, HistoricalWinRate: 52, MinConfidence: 55,
		},
		{
			ID: "DIESEL_DUEL", Name: "Diesel Duel", Category: models.CategoryTemporal,
			Conditions: []models.ScenarioCondition{
				cond("both_diesel", models.OpEQ, 1, "both teams are late starters"),
				cond("diesel_combined", models.OpGT, 1.2, "late-goal share is extreme"),
				cond("second_half_expected_higher", models.OpEQ, 1, "xG tilts to the second half"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketSecondHalfOver15, 9, 68),
				pick(models.MarketGoal7590, 8, 66),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketOver25, 5, 64)},
			AvoidMarkets:     []models.MarketType{models.MarketFirstHalfOver15, models.MarketGoal0015},
			HistoricalROI:    12, HistoricalWinRate: 55, MinConfidence: 55,
		},
		{
			ID: "CLUTCH_KILLER", Name: "Clutch Killer", Category: models.CategoryTemporal,
			Conditions: []models.ScenarioCondition{
				cond("clutch_factor_max", models.OpGT, 0.65, "one side lives past the 75th minute"),
				cond("killer_instinct_max", models.OpGT, 70, "and knows how to close"),
				cond("drama_potential", models.OpGT, 1.0, "the matchup invites drama"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketGoal7590, 10, 67),
				pick(models.MarketTeamToScoreLast, 7, 63),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketGoal7690, 7, 62)},
			AvoidMarkets:     []models.MarketType{models.MarketUnder25},
			HistoricalROI:    10, HistoricalWinRate: 53, MinConfidence: 55,
		},

		// ---- PHYSICAL ----
		{
			ID: "FATIGUE_COLLAPSE", Name: "Fatigue Collapse", Category: models.CategoryPhysical,
			Conditions: []models.ScenarioCondition{
				cond("fatigue_away", models.OpGT, 0.45, "away legs are gone"),
				cond("rest_gap", models.OpGT, 2, "home had the longer week"),
				cond("collapse_potential_away", models.OpGT, 10, "away folds when tired"),
				cond("euro_week_away", models.OpEQ, 1, "midweek European trip"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketGoal7690, 10, 69),
				pick(models.MarketHome2HOver05, 9, 72),
				pick(models.MarketSecondHalfOver15, 7, 64),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketAsianHandicapHome, 6, 61)},
			AvoidMarkets:     []models.MarketType{models.MarketAwayOver15},
			HistoricalROI:    15, HistoricalWinRate: 56, MinConfidence: 55,
		},
		{
			ID: "PRESSING_DEATH", Name: "Pressing Death", Category: models.CategoryPhysical,
			Conditions: []models.ScenarioCondition{
				cond("pressing_death", models.OpGT, 30, "home press meets dying away legs"),
				cond("ppda_home", models.OpLT, 9, "home presses high"),
				cond("fatigue_away", models.OpGT, 0.30, "away has no energy to play out"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketHome2HOver05, 9, 71),
				pick(models.MarketHomeWin, 7, 63),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketSecondHalfOver15, 6, 62)},
			AvoidMarkets:     []models.MarketType{models.MarketAwayOver15},
			HistoricalROI:    13, HistoricalWinRate: 55, MinConfidence: 55,
		},
		{
			ID: "PACE_EXPLOITATION", Name: "Pace Exploitation", Category: models.CategoryPhysical,
			Conditions: []models.ScenarioCondition{
				cond("pace_diff", models.OpGT, 25, "home runs the game quicker"),
				cond("counter_share_home", models.OpGT, 0.15, "and scores on the break"),
				cond("defensive_solidity_away", models.OpLT, 50, "away cannot slow it down"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketHomeOver15, 8, 66),
				pick(models.MarketAsianHandicapHome, 7, 63),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketHomeWin, 6, 62)},
			AvoidMarkets:     []models.MarketType{models.MarketDraw},
			HistoricalROI:    9, HistoricalWinRate: 52, MinConfidence: 55,
		},
		{
			ID: "BENCH_WARFARE", Name: "Bench Warfare", Category: models.CategoryPhysical,
			Conditions: []models.ScenarioCondition{
				cond("bench_gap", models.OpGT, 2.5, "home bench outguns away bench"),
				cond("bench_home", models.OpGT, 6.5, "home subs change games"),
				cond("attacking_sub_rate_home", models.OpGT, 0.50, "and the coach uses them to attack"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketGoal7590, 9, 66),
				pick(models.MarketHome2HOver05, 8, 70),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketTeamToScoreLast, 5, 60)},
			AvoidMarkets:     []models.MarketType{models.MarketFirstHalfOver15},
			HistoricalROI:    7, HistoricalWinRate: 51, MinConfidence: 55,
		},

		// ---- PSYCHOLOGICAL ----
		{
			ID: "CONSERVATIVE_WALL", Name: "Conservative Wall", Category: models.CategoryPsychological,
			Conditions: []models.ScenarioCondition{
				cond("conservative_home", models.OpEQ, 1, "home sets up to not lose"),
				cond("clean_sheet_rate_home", models.OpGTE, 0.35, "and keeps the door shut"),
				cond("low_block_weakness_away", models.OpGTE, 0.45, "away struggles against low blocks"),
				cond("xg_total", models.OpLT, 2.7, "the fixture projects few goals"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketUnder25, 9, 70),
				pick(models.MarketBTTSNo, 7, 66),
				pick(models.MarketHomeCleanSheet, 6, 60),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketUnder35, 4, 76)},
			AvoidMarkets:     []models.MarketType{models.MarketBTTSYes, models.MarketOver35},
			HistoricalROI:    12, HistoricalWinRate: 56, MinConfidence: 55,
		},
		{
			ID: "KILLER_INSTINCT", Name: "Killer Instinct", Category: models.CategoryPsychological,
			Conditions: []models.ScenarioCondition{
				cond("killer_instinct_home", models.OpGT, 75, "home kills games off"),
				cond("psyche_dominance_home", models.OpGT, 20, "mentally on top"),
				cond("clinical_home", models.OpGTE, 0.7, "finishing to match"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketHomeWin, 8, 68),
				pick(models.MarketAsianHandicapHome, 7, 64),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketHomeOver15, 6, 62)},
			AvoidMarkets:     []models.MarketType{models.MarketDraw},
			HistoricalROI:    10, HistoricalWinRate: 54, MinConfidence: 55,
		},
		{
			ID: "COLLAPSE_ALERT", Name: "Collapse Alert", Category: models.CategoryPsychological,
			Conditions: []models.ScenarioCondition{
				cond("collapse_rate_away", models.OpGT, 0.30, "away throws results away"),
				cond("panic_factor_away", models.OpGT, 15, "and panics under pressure"),
				cond("late_conceded_away", models.OpGT, 0.35, "most damage comes late"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketGoal7690, 10, 68),
				pick(models.MarketHome2HOver05, 8, 70),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketOver25, 5, 64)},
			AvoidMarkets:     []models.MarketType{models.MarketAwayCleanSheet},
			HistoricalROI:    13, HistoricalWinRate: 55, MinConfidence: 55,
		},
		{
			ID: "NOTHING_TO_LOSE", Name: "Nothing To Lose", Category: models.CategoryPsychological,
			Conditions: []models.ScenarioCondition{
				cond("relegation_away", models.OpEQ, 1, "away is fighting the drop"),
				cond("motivation_away", models.OpGTE, 85, "desperation motivates"),
				cond("quality_gap", models.OpGT, 0.5, "against a clearly better side"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketBTTSYes, 7, 62),
				pick(models.MarketOver25, 6, 64),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketAway2HOver05, 5, 58)},
			AvoidMarkets:     []models.MarketType{models.MarketHomeCleanSheet},
			HistoricalROI:    5, HistoricalWinRate: 49, MinConfidence: 55,
		},

		// ---- NEMESIS ----
		{
			ID: "NEMESIS_TRAP", Name: "Nemesis Trap", Category: models.CategoryNemesis,
			Conditions: []models.ScenarioCondition{
				cond("mental_clash", models.OpGT, 65, "this fixture gets in heads"),
				cond("style_clash", models.OpGT, 60, "styles cancel the favourite out"),
				cond("home_dominant", models.OpEQ, 0, "the record does not back home"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketDraw, 8, 58),
				pick(models.MarketBTTSYes, 6, 62),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketAwayWin, 5, 52)},
			AvoidMarkets:     []models.MarketType{models.MarketAsianHandicapHome},
			HistoricalROI:    6, HistoricalWinRate: 48, MinConfidence: 55,
		},
		{
			ID: "PREY_HUNT", Name: "Prey Hunt", Category: models.CategoryNemesis,
			Conditions: []models.ScenarioCondition{
				cond("home_dominant", models.OpEQ, 1, "home historically owns this fixture"),
				cond("kinetic_friction_away", models.OpGT, 60, "and disrupts everything away tries"),
				cond("quality_gap", models.OpGT, 0.4, "the table agrees"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketHomeWin, 9, 70),
				pick(models.MarketAsianHandicapHome, 8, 66),
				pick(models.MarketHomeOver15, 6, 63),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketOver25, 4, 62)},
			AvoidMarkets:     []models.MarketType{models.MarketAwayOver15},
			HistoricalROI:    11, HistoricalWinRate: 57, MinConfidence: 55,
		},
		{
			ID: "AERIAL_RAID", Name: "Aerial Raid", Category: models.CategoryNemesis,
			Conditions: []models.ScenarioCondition{
				cond("aerial_threat_home", models.OpGT, 60, "home wins the air"),
				cond("set_piece_threat_home", models.OpGT, 65, "and works set pieces hard"),
				cond("set_piece_against_away", models.OpGTE, 0.30, "away concedes from dead balls"),
			},
			PrimaryMarkets: []models.MarketPick{
				pick(models.MarketCornersOver, 8, 67),
				pick(models.MarketFirstScorerDef, 7, 55),
			},
			SecondaryMarkets: []models.MarketPick{pick(models.MarketPenaltyYes, 4, 50)},
			AvoidMarkets:     []models.MarketType{models.MarketFirstScorerFwd},
			HistoricalROI:    8, HistoricalWinRate: 51, MinConfidence: 55,
		},
	}
}

// CatalogueByID indexes the catalogue.
func CatalogueByID() map[string]models.ScenarioDefinition {
	out := map[string]models.ScenarioDefinition{}
	for _, s := range ScenarioCatalogue() {
		out[s.ID] = s
	}
	return out
}
