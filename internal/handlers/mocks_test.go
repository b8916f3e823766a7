package handlers

import (
	"context"
	"errors"

	"github.com/pitchside/strategy-api/internal/logic"
	"github.com/pitchside/strategy-api/internal/models"
)

type mockProfiles struct {
	loadFn func(ctx context.Context, teamName string) (*models.TeamProfile, error)
}

func (m *mockProfiles) Load(ctx context.Context, teamName string) (*models.TeamProfile, error) {
	if m.loadFn == nil {
		return nil, errors.New("loadFn not configured")
	}
	return m.loadFn(ctx, teamName)
}

func (m *mockProfiles) Invalidate(context.Context, string) {}

type mockFriction struct{}

func (mockFriction) Get(_ context.Context, home, away string) models.FrictionRecord {
	return models.NeutralFriction(home, away)
}

type mockHistory struct{}

func (mockHistory) Overrides(context.Context) map[string]logic.ScenarioHistory { return nil }

type mockQueue struct{ depth int }

func (m mockQueue) QueueDepth() int { return m.depth }
