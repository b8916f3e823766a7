package logic

import (
	"context"
	"fmt"
	"sync"

	"github.com/pitchside/strategy-api/internal/models"
)

type mockProfiles struct {
	profiles map[string]*models.TeamProfile
	err      error
}

func (m *mockProfiles) Load(_ context.Context, teamName string) (*models.TeamProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[CanonicalName(teamName)]
	if !ok {
		return nil, fmt.Errorf("no profile for %q", teamName)
	}
	return p, nil
}

func (m *mockProfiles) Invalidate(context.Context, string) {}

type mockFriction struct {
	rec *models.FrictionRecord
}

func (m *mockFriction) Get(_ context.Context, home, away string) models.FrictionRecord {
	if m.rec != nil {
		return *m.rec
	}
	return models.NeutralFriction(home, away)
}

type mockHistory struct {
	rows map[string]ScenarioHistory
}

func (m *mockHistory) Overrides(context.Context) map[string]ScenarioHistory {
	return m.rows
}

type mockRecorder struct {
	mu       sync.Mutex
	recorded []*models.MatchStrategy
	full     bool
}

func (m *mockRecorder) Record(s *models.MatchStrategy) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return false
	}
	m.recorded = append(m.recorded, s)
	return true
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recorded)
}
