package models

import (
	"math"
	"time"
)

// DataQuality grades how complete a team's source data is.
type DataQuality string

const (
	QualityHigh         DataQuality = "HIGH"
	QualityModerate     DataQuality = "MODERATE"
	QualityLow          DataQuality = "LOW"
	QualityInsufficient DataQuality = "INSUFFICIENT"
)

// MomentumState classifies recent form.
type MomentumState string

const (
	MomentumOnFire MomentumState = "ON_FIRE"
	MomentumHot    MomentumState = "HOT"
	MomentumStable MomentumState = "STABLE"
	MomentumCold   MomentumState = "COLD"
	MomentumCrisis MomentumState = "CRISIS"
)

// KeeperTier ranks goalkeepers by shot-stopping value (PSxG minus goals).
type KeeperTier string

const (
	KeeperElite        KeeperTier = "ELITE"
	KeeperAboveAverage KeeperTier = "ABOVE_AVERAGE"
	KeeperAverage      KeeperTier = "AVERAGE"
	KeeperBelowAverage KeeperTier = "BELOW_AVERAGE"
	KeeperLiability    KeeperTier = "LIABILITY"
)

// Mentality labels a team's dominant game approach.
type Mentality string

const (
	MentalityAggressive   Mentality = "AGGRESSIVE"
	MentalityBalanced     Mentality = "BALANCED"
	MentalityConservative Mentality = "CONSERVATIVE"
	MentalityChaotic      Mentality = "CHAOTIC"
)

// ClinicalRating encodes finishing quality.
type ClinicalRating string

const (
	ClinicalPoor    ClinicalRating = "POOR"
	ClinicalAverage ClinicalRating = "AVERAGE"
	ClinicalGood    ClinicalRating = "GOOD"
	ClinicalElite   ClinicalRating = "CLINICAL"
)

// Severity grades an identified weakness.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityModerate Severity = "MODERATE"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ConfidentMetric pairs a value with the sample size it was measured over.
// Confidence follows 1 - exp(-n/15): ~0.49 at n=10, ~0.92 at n=38.
type ConfidentMetric struct {
	Value      float64 `json:"value"`
	Samples    int     `json:"samples"`
	Confidence float64 `json:"confidence"`
}

// NewConfidentMetric computes the confidence from the sample size.
func NewConfidentMetric(value float64, samples int) ConfidentMetric {
	if samples < 0 {
		samples = 0
	}
	return ConfidentMetric{
		Value:      value,
		Samples:    samples,
		Confidence: 1 - math.Exp(-float64(samples)/15.0),
	}
}

// Weighted returns value scaled by confidence, for weighted aggregates.
func (m ConfidentMetric) Weighted() float64 {
	return m.Value * m.Confidence
}

// TimingVector buckets goals (or concessions) into six 15-minute periods.
type TimingVector struct {
	Period0015 float64 `json:"period_00_15"`
	Period1630 float64 `json:"period_16_30"`
	Period3145 float64 `json:"period_31_45"`
	Period4660 float64 `json:"period_46_60"`
	Period6175 float64 `json:"period_61_75"`
	Period7690 float64 `json:"period_76_90"`
}

// Total sums all six buckets.
func (v TimingVector) Total() float64 {
	return v.Period0015 + v.Period1630 + v.Period3145 + v.Period4660 + v.Period6175 + v.Period7690
}

// LateRatio is the share of goals after the 60th minute, clamped to [0, 1].
func (v TimingVector) LateRatio() float64 {
	total := v.Total()
	if total <= 0 {
		return 0
	}
	r := (v.Period6175 + v.Period7690) / total
	return math.Min(1, math.Max(0, r))
}

// EarlyRatio is the share of goals before the 30th minute, clamped to [0, 1].
func (v TimingVector) EarlyRatio() float64 {
	total := v.Total()
	if total <= 0 {
		return 0
	}
	r := (v.Period0015 + v.Period1630) / total
	return math.Min(1, math.Max(0, r))
}

// ClutchRatio approximates the share of goals after the 75th minute.
// The 61-75 bucket boundary means the last bucket is the best proxy.
func (v TimingVector) ClutchRatio() float64 {
	total := v.Total()
	if total <= 0 {
		return 0
	}
	return math.Min(1, math.Max(0, v.Period7690/total))
}

// OffensiveProfile covers attacking output.
type OffensiveProfile struct {
	Goals             float64         `json:"goals"`
	XGTotal           float64         `json:"xg_total"`
	XGPerMatch        ConfidentMetric `json:"xg_per_match"`
	Shots             float64         `json:"shots"`
	ShotsOnTarget     float64         `json:"shots_on_target"`
	ConversionRate    float64         `json:"conversion_rate"` // percent
	BigChances        float64         `json:"big_chances"`
	BigChancesScored  float64         `json:"big_chances_scored"`
	GoalsTiming       TimingVector    `json:"goals_timing"`
	FirstHalfXG       float64         `json:"first_half_xg"`
	SecondHalfXG      float64         `json:"second_half_xg"`
	DangerousAttacks  float64         `json:"dangerous_attacks"`
	SetPieceGoalShare float64         `json:"set_piece_goal_share"` // fraction [0,1]
	CounterGoalShare  float64         `json:"counter_goal_share"`
	PenaltyGoalShare  float64         `json:"penalty_goal_share"`
	OpenPlayGoalShare float64         `json:"open_play_goal_share"`
}

// PossessionProfile covers ball retention and progression.
type PossessionProfile struct {
	AvgPossession      float64 `json:"avg_possession"` // percent
	PassesPerMatch     float64 `json:"passes_per_match"`
	PassAccuracy       float64 `json:"pass_accuracy"` // percent
	ProgressivePasses  float64 `json:"progressive_passes"`
	DirectnessIndex    float64 `json:"directness_index"` // 0-100
	Verticality        float64 `json:"verticality"`      // 0-100
}

// MomentumProfile covers recent form.
type MomentumProfile struct {
	Last5Points    int           `json:"last5_points"`
	Last5Goals     int           `json:"last5_goals"`
	Last5Conceded  int           `json:"last5_conceded"`
	UnbeatenStreak int           `json:"unbeaten_streak"`
	WinlessStreak  int           `json:"winless_streak"`
	FormString     string        `json:"form_string"` // e.g. "WWDLW", newest first
	State          MomentumState `json:"state"`
}

// VenueRecord is the per-venue half of the home/away split.
type VenueRecord struct {
	Matches      int     `json:"matches"`
	Wins         int     `json:"wins"`
	Draws        int     `json:"draws"`
	Losses       int     `json:"losses"`
	GoalsFor     float64 `json:"goals_for"`
	GoalsAgainst float64 `json:"goals_against"`
	XG           float64 `json:"xg"`
	XGA          float64 `json:"xga"`
	PPG          float64 `json:"ppg"`
}

// HomeAwayProfile splits results by venue.
type HomeAwayProfile struct {
	Home VenueRecord `json:"home"`
	Away VenueRecord `json:"away"`
}

// DefensiveProfile covers goals and chances conceded.
type DefensiveProfile struct {
	XGATotal           float64         `json:"xga_total"`
	XGAPerMatch        ConfidentMetric `json:"xga_per_match"`
	GoalsConceded      float64         `json:"goals_conceded"`
	CleanSheets        int             `json:"clean_sheets"`
	CleanSheetRate     float64         `json:"clean_sheet_rate"` // fraction [0,1]
	ShotsAgainst       float64         `json:"shots_against"`
	BigChancesConceded float64         `json:"big_chances_conceded"`
	ConcededTiming     TimingVector    `json:"conceded_timing"`
	VsLowBlockWeakness float64         `json:"vs_low_block_weakness"` // fraction [0,1]
}

// ZoneProfile locates where xGA comes from.
type ZoneProfile struct {
	LeftShare       float64 `json:"left_share"`
	CentreShare     float64 `json:"centre_share"`
	RightShare      float64 `json:"right_share"`
	InsideBoxShare  float64 `json:"inside_box_share"`
	OutsideBoxShare float64 `json:"outside_box_share"`
	SetPieceShare   float64 `json:"set_piece_share"` // of goals conceded
	CounterShare    float64 `json:"counter_share"`
	PenaltyShare    float64 `json:"penalty_share"`
	OpenPlayShare   float64 `json:"open_play_share"`
	AerialDuelsWon  float64 `json:"aerial_duels_won"`
	AerialDuelsLost float64 `json:"aerial_duels_lost"`
}

// PressingProfile covers pressing resistance under opposition pressure.
type PressingProfile struct {
	PPDAFaced          float64 `json:"ppda_faced"`
	PPDA               float64 `json:"ppda"`
	Turnovers          float64 `json:"turnovers"`
	OwnThirdTurnovers  float64 `json:"own_third_turnovers"`
	BuildUpSuccess     float64 `json:"build_up_success"` // percent
	PressingDecay      float64 `json:"pressing_decay"`   // fraction [0,1], late-game drop-off
}

// GoalkeeperProfile covers the keeper.
type GoalkeeperProfile struct {
	Saves            float64    `json:"saves"`
	SavePct          float64    `json:"save_pct"` // percent
	ShotsFaced       float64    `json:"shots_faced"`
	PSxGTotal        float64    `json:"psxg_total"`
	PSxGMinusGoals   float64    `json:"psxg_minus_goals"`
	PenaltiesFaced   int        `json:"penalties_faced"`
	PenaltiesSaved   int        `json:"penalties_saved"`
	Errors           int        `json:"errors"`
	LaunchRate       float64    `json:"launch_rate"` // percent of distribution played long
	Tier             KeeperTier `json:"tier"`
}

// VarianceProfile captures luck signals used for regression calls.
// PointsDiff > 0 means the team overperformed xPts and is due to regress down.
type VarianceProfile struct {
	ActualPoints        float64 `json:"actual_points"`
	ExpectedPoints      float64 `json:"expected_points"`
	PointsDiff          float64 `json:"points_diff"`
	GoalsMinusXG        float64 `json:"goals_minus_xg"`
	ConcededMinusXGA    float64 `json:"conceded_minus_xga"`
	BigChanceConversion float64 `json:"big_chance_conversion"` // percent
}

// IdentifiedWeakness is one exploitable flaw derived from the facets.
type IdentifiedWeakness struct {
	Type            string       `json:"type"`
	Severity        Severity     `json:"severity"`
	AffectedMarkets []MarketType `json:"affected_markets"`
	EdgeBoostPct    float64      `json:"edge_boost_pct"`
	Confidence      float64      `json:"confidence"`
}

// MarketEdge is a derived per-market edge estimate.
type MarketEdge struct {
	Market     MarketType `json:"market"`
	EdgePct    float64    `json:"edge_pct"`
	Confidence float64    `json:"confidence"`
}

// ExploitProfile aggregates the weaknesses an opponent can target.
type ExploitProfile struct {
	Weaknesses  []IdentifiedWeakness `json:"weaknesses"`
	MarketEdges []MarketEdge         `json:"market_edges"`
}

// SubstitutionProfile summarises bench usage.
type SubstitutionProfile struct {
	AvgFirstSubMinute float64 `json:"avg_first_sub_minute"`
	AttackingSubRate  float64 `json:"attacking_sub_rate"` // fraction [0,1]
	BenchImpact       float64 `json:"bench_impact"`       // 0-10, goals/assists from subs scaled
	MVPDependency     float64 `json:"mvp_dependency"`     // fraction of goal involvement on one player
}

// CoachProfile is the 13-axis tactical fingerprint plus bench behaviour.
// Axis values are 0-100. StructureRigidity (axis 13) is always set.
type CoachProfile struct {
	FormationPrimary    string              `json:"formation_primary"`
	FormationSecondary  string              `json:"formation_secondary"`
	PressingIntensity   float64             `json:"pressing_intensity"`
	DefensiveLine       float64             `json:"defensive_line"`
	BuildUpSpeed        float64             `json:"build_up_speed"`
	WidthUsage          float64             `json:"width_usage"`
	CounterFocus        float64             `json:"counter_focus"`
	SetPieceFocus       float64             `json:"set_piece_focus"`
	RotationTendency    float64             `json:"rotation_tendency"`
	RiskAppetite        float64             `json:"risk_appetite"`
	GameStateReactivity float64             `json:"game_state_reactivity"`
	YouthUsage          float64             `json:"youth_usage"`
	FoulTactics         float64             `json:"foul_tactics"`
	TimeManagement      float64             `json:"time_management"`
	StructureRigidity   float64             `json:"structure_rigidity"`
	Substitutions       SubstitutionProfile `json:"substitutions"`
	Mentality           Mentality           `json:"mentality"`
	Clinical            ClinicalRating      `json:"clinical"`
	KillerInstinct      float64             `json:"killer_instinct"`  // 0-100
	CollapseRate        float64             `json:"collapse_rate"`    // fraction [0,1]
	ResilienceIndex     float64             `json:"resilience_index"` // 0-100
	ComebackAbility     float64             `json:"comeback_ability"` // 0-100
	Adaptability        float64             `json:"adaptability"`     // 0-100
}

// ContextProfile carries league-table standing.
type ContextProfile struct {
	LeaguePosition int     `json:"league_position"`
	PPG            float64 `json:"ppg"`
	TitleRace      bool    `json:"title_race"`
	EuropeanRace   bool    `json:"european_race"`
	RelegationRisk bool    `json:"relegation_risk"`
}

// TeamProfile is the full fingerprint for one team. It is immutable after
// the loader returns it; derived fields (exploit, momentum state, keeper
// tier) are computed at load time.
type TeamProfile struct {
	Name   string `json:"name"` // canonical
	League string `json:"league"`
	Season string `json:"season"`

	Offensive  OffensiveProfile  `json:"offensive"`
	Possession PossessionProfile `json:"possession"`
	Momentum   MomentumProfile   `json:"momentum"`
	HomeAway   HomeAwayProfile   `json:"home_away"`
	Defensive  DefensiveProfile  `json:"defensive"`
	Zones      ZoneProfile       `json:"zones"`
	Pressing   PressingProfile   `json:"pressing"`
	Goalkeeper GoalkeeperProfile `json:"goalkeeper"`
	Variance   VarianceProfile   `json:"variance"`
	Exploit    ExploitProfile    `json:"exploit"`
	Coach      CoachProfile      `json:"coach"`
	Context    ContextProfile    `json:"context"`

	DataQuality      DataQuality `json:"data_quality"`
	DataCompleteness float64     `json:"data_completeness"` // percent
	UpdatedAt        time.Time   `json:"updated_at"`
}

// FrictionRecord is the precomputed matchup record for an ordered pair.
type FrictionRecord struct {
	HomeTeam            string  `json:"home_team"`
	AwayTeam            string  `json:"away_team"`
	KineticFrictionHome float64 `json:"kinetic_friction_home"` // 0-100
	KineticFrictionAway float64 `json:"kinetic_friction_away"`
	FrictionScore       float64 `json:"friction_score"`
	ChaosPotential      float64 `json:"chaos_potential"` // 0-100
	StyleClash          float64 `json:"style_clash"`
	TempoClash          float64 `json:"tempo_clash"`
	MentalClash         float64 `json:"mental_clash"`
	PredictedGoals      float64 `json:"predicted_goals"`
	HomeDominant        bool    `json:"home_dominant"`
	AwayDominant        bool    `json:"away_dominant"`
}

// NeutralFriction is the default record used when no matchup row exists.
func NeutralFriction(home, away string) FrictionRecord {
	return FrictionRecord{
		HomeTeam:            home,
		AwayTeam:            away,
		KineticFrictionHome: 50,
		KineticFrictionAway: 50,
		FrictionScore:       50,
		ChaosPotential:      50,
		StyleClash:          50,
		TempoClash:          50,
		MentalClash:         50,
		PredictedGoals:      2.5,
	}
}

// MatchImportance grades how much the fixture matters.
type MatchImportance string

const (
	ImportanceLow      MatchImportance = "LOW"
	ImportanceNormal   MatchImportance = "NORMAL"
	ImportanceHigh     MatchImportance = "HIGH"
	ImportanceCritical MatchImportance = "CRITICAL"
)

// MatchContext carries the optional per-fixture inputs.
type MatchContext struct {
	RestDaysHome       int             `json:"rest_days_home"`
	RestDaysAway       int             `json:"rest_days_away"`
	IsEuropeanWeekHome bool            `json:"is_european_week_home"`
	IsEuropeanWeekAway bool            `json:"is_european_week_away"`
	Importance         MatchImportance `json:"importance"`
	Weather            string          `json:"weather"`
}

// DefaultContext applies the neutral fixture assumptions.
func DefaultContext() MatchContext {
	return MatchContext{
		RestDaysHome: 7,
		RestDaysAway: 7,
		Importance:   ImportanceNormal,
	}
}
