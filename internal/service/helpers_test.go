package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/repository/memory"
	"github.com/aidar/team-tasks/internal/session"
)

type fixture struct {
	store    *memory.Store
	auth     *AuthService
	teams    *TeamService
	profiles *ProfileService
	tasks    *TaskService
	stats    *StatsService

	dev       *domain.Team
	marketing *domain.Team
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		store:    store,
		auth:     NewAuthService(store.Users(), store.Profiles(), session.NewMemoryRevoker(), "test-secret", time.Hour),
		teams:    NewTeamService(store.Teams(), store.Users(), logger),
		profiles: NewProfileService(store.Profiles(), store.Teams()),
		tasks:    NewTaskService(store.Tasks()),
		stats:    NewStatsService(store.Tasks()),
	}

	require.NoError(t, f.teams.EnsureDefaults(ctx, []string{"Development", "Marketing"}))
	teams, err := f.teams.List(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	f.dev, f.marketing = teams[0], teams[1]

	return f
}

// actor registers a user and completes their profile
func (f *fixture) actor(t *testing.T, username string, team *domain.Team, role domain.Role) domain.Actor {
	t.Helper()
	ctx := context.Background()

	user, _, err := f.auth.Register(ctx, Credentials{Username: username, Password: "secret123"})
	require.NoError(t, err)

	_, err = f.profiles.CompleteSetup(ctx, user.ID, SetupInput{TeamID: team.ID, Role: string(role)})
	require.NoError(t, err)

	actor, err := f.profiles.Resolve(ctx, user.ID)
	require.NoError(t, err)
	return actor
}

func (f *fixture) newTask(t *testing.T, manager domain.Actor, title string) *domain.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), manager, TaskInput{Title: title, DueDate: "2026-06-01"})
	require.NoError(t, err)
	return task
}
