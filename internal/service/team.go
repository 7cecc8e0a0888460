package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/repository"
)

// TeamService handles business logic for teams
type TeamService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewTeamService creates a new TeamService
func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository, logger *slog.Logger) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// List returns all teams ordered by id
func (s *TeamService) List(ctx context.Context) ([]*domain.Team, error) {
	return s.teamRepo.List(ctx)
}

// Get retrieves a team by id
func (s *TeamService) Get(ctx context.Context, teamID int64) (*domain.Team, error) {
	return s.teamRepo.GetByID(ctx, teamID)
}

// TeamInput is the body of the team admin endpoints
type TeamInput struct {
	TeamID int64  `json:"team_id" form:"team_id"`
	Name   string `json:"name" form:"name" validate:"required,max=100"`
}

// Create adds a new team
func (s *TeamService) Create(ctx context.Context, name string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if err := validateStruct(TeamInput{Name: name}); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Team created", "team_id", team.ID, "name", team.Name)
	return team, nil
}

// Rename changes the name of an existing team and returns it
func (s *TeamService) Rename(ctx context.Context, teamID int64, name string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if err := validateStruct(TeamInput{TeamID: teamID, Name: name}); err != nil {
		return nil, err
	}
	if err := s.teamRepo.Rename(ctx, teamID, name); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Team renamed", "team_id", teamID, "name", name)
	return s.teamRepo.GetByID(ctx, teamID)
}

// EnsureDefaults seeds the default teams when none exist.
// Safe to call from several instances at once; only one of them inserts.
// Returns ErrNoTeams if the table is still empty afterwards.
func (s *TeamService) EnsureDefaults(ctx context.Context, names []string) error {
	created, err := s.teamRepo.EnsureDefaults(ctx, names)
	if err != nil {
		return err
	}

	if created > 0 {
		s.logger.Info("Default teams created", "count", created, "names", names)
		return nil
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		return domain.ErrNoTeams
	}
	return nil
}

// Members returns the members of the actor's team
func (s *TeamService) Members(ctx context.Context, actor domain.Actor) ([]*domain.TeamMember, error) {
	return s.userRepo.GetTeamMembers(ctx, actor.TeamID)
}
