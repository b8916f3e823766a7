package logic

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/pitchside/strategy-api/internal/models"
)

// completenessFacets are the facets counted towards data_completeness.
var completenessFacets = []string{"context", "defense", "goalkeeper", "variance", "exploit", "coach"}

type profileService struct {
	pg       PgPool
	ch       driver.Conn
	cache    RedisClient
	cacheTTL time.Duration
	logger   *zap.SugaredLogger
}

// NewProfileService builds the team fingerprint loader. The ClickHouse
// connection and the Redis cache are both optional (nil disables them).
func NewProfileService(pg PgPool, ch driver.Conn, cache RedisClient, cacheTTL time.Duration, logger *zap.SugaredLogger) ProfileService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &profileService{pg: pg, ch: ch, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func (s *profileService) Load(ctx context.Context, teamName string) (*models.TeamProfile, error) {
	canonical := s.resolveAlias(ctx, CanonicalName(teamName))

	if cached := s.fromCache(ctx, canonical); cached != nil {
		return cached, nil
	}

	profile, present := s.loadFacets(ctx, canonical)
	if len(present) == 0 {
		s.logger.Warnw("no facet data for team", "team", canonical)
		return insufficientProfile(canonical), nil
	}

	// Timing vectors can be absent from the facet record; the warehouse
	// keeps the raw per-match rows to rebuild them.
	if profile.Offensive.GoalsTiming.Total() == 0 {
		s.fillTimingFromWarehouse(ctx, canonical, profile)
	}

	profile.Momentum.State = momentumState(profile.Momentum)
	profile.Goalkeeper.Tier = keeperTier(profile.Goalkeeper)
	profile.Exploit = BuildExploitProfile(profile)
	if len(profile.Exploit.Weaknesses) > 0 || (present["defense"] && present["zones"]) {
		present["exploit"] = true
	}

	profile.DataCompleteness = completeness(present)
	profile.DataQuality = qualityFor(profile.DataCompleteness)
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}

	s.toCache(ctx, canonical, profile)
	return profile, nil
}

func (s *profileService) Invalidate(ctx context.Context, teamName string) {
	if s.cache == nil {
		return
	}
	canonical := s.resolveAlias(ctx, CanonicalName(teamName))
	s.cache.Del(ctx, cacheKey(canonical))
}

func (s *profileService) resolveAlias(ctx context.Context, canonical string) string {
	var resolved string
	err := s.pg.QueryRow(ctx,
		"SELECT canonical FROM team_aliases WHERE alias = $1", canonical).Scan(&resolved)
	if err != nil || resolved == "" {
		return canonical
	}
	return resolved
}

// loadFacets reads the per-facet JSONB records and returns which facets
// were present. Unparseable facets are skipped with a warning.
func (s *profileService) loadFacets(ctx context.Context, canonical string) (*models.TeamProfile, map[string]bool) {
	profile := &models.TeamProfile{Name: canonical}
	present := map[string]bool{}

	rows, err := s.pg.Query(ctx,
		"SELECT facet, payload, updated_at FROM team_facets WHERE canonical = $1", canonical)
	if err != nil {
		s.logger.Errorw("facet query failed", "team", canonical, "error", err)
		return profile, present
	}
	defer rows.Close()

	for rows.Next() {
		var facet string
		var payload []byte
		var updatedAt time.Time
		if err := rows.Scan(&facet, &payload, &updatedAt); err != nil {
			continue
		}
		if updatedAt.After(profile.UpdatedAt) {
			profile.UpdatedAt = updatedAt
		}
		if err := unmarshalFacet(profile, facet, payload); err != nil {
			s.logger.Warnw("skipping corrupt facet", "team", canonical, "facet", facet, "error", err)
			continue
		}
		present[facet] = true
	}
	return profile, present
}

func unmarshalFacet(p *models.TeamProfile, facet string, payload []byte) error {
	switch facet {
	case "identity":
		var v struct {
			League string `json:"league"`
			Season string `json:"season"`
		}
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		p.League, p.Season = v.League, v.Season
		return nil
	case "offense":
		return json.Unmarshal(payload, &p.Offensive)
	case "possession":
		return json.Unmarshal(payload, &p.Possession)
	case "momentum":
		return json.Unmarshal(payload, &p.Momentum)
	case "home_away":
		return json.Unmarshal(payload, &p.HomeAway)
	case "defense":
		return json.Unmarshal(payload, &p.Defensive)
	case "zones":
		return json.Unmarshal(payload, &p.Zones)
	case "pressing":
		return json.Unmarshal(payload, &p.Pressing)
	case "goalkeeper":
		return json.Unmarshal(payload, &p.Goalkeeper)
	case "variance":
		return json.Unmarshal(payload, &p.Variance)
	case "coach":
		return json.Unmarshal(payload, &p.Coach)
	case "context":
		return json.Unmarshal(payload, &p.Context)
	}
	return nil // unknown facet names are ignored
}

// fillTimingFromWarehouse rebuilds the six-bucket goal timing vectors from
// raw match events. Warehouse misses are non-fatal.
func (s *profileService) fillTimingFromWarehouse(ctx context.Context, canonical string, p *models.TeamProfile) {
	if s.ch == nil {
		return
	}
	query := `
		SELECT
			countIf(minute <= 15) AS p1,
			countIf(minute > 15 AND minute <= 30) AS p2,
			countIf(minute > 30 AND minute <= 45) AS p3,
			countIf(minute > 45 AND minute <= 60) AS p4,
			countIf(minute > 60 AND minute <= 75) AS p5,
			countIf(minute > 75) AS p6
		FROM match_events
		WHERE team = ? AND event_type = 'goal'
	`
	var p1, p2, p3, p4, p5, p6 uint64
	if err := s.ch.QueryRow(ctx, query, canonical).Scan(&p1, &p2, &p3, &p4, &p5, &p6); err != nil {
		s.logger.Debugw("timing warehouse query failed", "team", canonical, "error", err)
		return
	}
	p.Offensive.GoalsTiming = models.TimingVector{
		Period0015: float64(p1), Period1630: float64(p2), Period3145: float64(p3),
		Period4660: float64(p4), Period6175: float64(p5), Period7690: float64(p6),
	}
}

func (s *profileService) fromCache(ctx context.Context, canonical string) *models.TeamProfile {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKey(canonical)).Result()
	if err != nil || raw == "" {
		return nil
	}
	var p models.TeamProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil
	}
	return &p
}

func (s *profileService) toCache(ctx context.Context, canonical string, p *models.TeamProfile) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(canonical), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debugw("profile cache write failed", "team", canonical, "error", err)
	}
}

func cacheKey(canonical string) string {
	return "profile:" + canonical
}

// insufficientProfile is the zero-confidence placeholder for unknown teams.
func insufficientProfile(canonical string) *models.TeamProfile {
	return &models.TeamProfile{
		Name:        canonical,
		DataQuality: models.QualityInsufficient,
		Momentum:    models.MomentumProfile{State: models.MomentumStable},
		Goalkeeper:  models.GoalkeeperProfile{Tier: models.KeeperAverage},
		UpdatedAt:   time.Now().UTC(),
	}
}

func completeness(present map[string]bool) float64 {
	n := 0
	for _, f := range completenessFacets {
		if present[f] {
			n++
		}
	}
	return float64(n) / float64(len(completenessFacets)) * 100
}

func qualityFor(completeness float64) models.DataQuality {
	switch {
	case completeness >= 85:
		return models.QualityHigh
	case completeness >= 60:
		return models.QualityModerate
	case completeness > 0:
		return models.QualityLow
	default:
		return models.QualityInsufficient
	}
}

func momentumState(m models.MomentumProfile) models.MomentumState {
	if m.State != "" {
		return m.State
	}
	switch {
	case m.Last5Points >= 13:
		return models.MomentumOnFire
	case m.Last5Points >= 10:
		return models.MomentumHot
	case m.WinlessStreak >= 5 || m.Last5Points <= 2:
		return models.MomentumCrisis
	case m.Last5Points <= 4:
		return models.MomentumCold
	default:
		return models.MomentumStable
	}
}

func keeperTier(g models.GoalkeeperProfile) models.KeeperTier {
	if g.Tier != "" {
		return g.Tier
	}
	switch {
	case g.PSxGMinusGoals >= 3:
		return models.KeeperElite
	case g.PSxGMinusGoals >= 1:
		return models.KeeperAboveAverage
	case g.PSxGMinusGoals >= -1:
		return models.KeeperAverage
	case g.PSxGMinusGoals >= -3:
		return models.KeeperBelowAverage
	default:
		return models.KeeperLiability
	}
}
