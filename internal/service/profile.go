package service

import (
	"context"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/repository"
)

// SetupInput is the profile setup request body
type SetupInput struct {
	TeamID int64  `json:"team_id" form:"team_id" validate:"required,gt=0"`
	Role   string `json:"role" form:"role" validate:"required"`
}

// ProfileService resolves and completes user profiles
type ProfileService struct {
	profileRepo repository.ProfileRepository
	teamRepo    repository.TeamRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(profileRepo repository.ProfileRepository, teamRepo repository.TeamRepository) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		teamRepo:    teamRepo,
	}
}

// GetOrCreate returns the user's profile, creating an empty one on first use
func (s *ProfileService) GetOrCreate(ctx context.Context, userID int64) (*domain.Profile, error) {
	return s.profileRepo.GetOrCreate(ctx, userID)
}

// CompleteSetup assigns a team and role to an incomplete profile.
// A complete profile is returned unchanged together with ErrProfileAlreadyComplete.
func (s *ProfileService) CompleteSetup(ctx context.Context, userID int64, in SetupInput) (*domain.Profile, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.IsComplete() {
		return profile, domain.ErrProfileAlreadyComplete
	}

	if _, err := s.teamRepo.GetByID(ctx, in.TeamID); err != nil {
		return nil, err
	}

	return s.profileRepo.Complete(ctx, userID, in.TeamID, role)
}

// Resolve returns the actor for a user with a complete profile
func (s *ProfileService) Resolve(ctx context.Context, userID int64) (domain.Actor, error) {
	profile, err := s.profileRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return domain.Actor{}, err
	}
	return profile.Actor()
}

// IsManager reports whether the user has a complete manager profile
func (s *ProfileService) IsManager(ctx context.Context, userID int64) (bool, error) {
	profile, err := s.profileRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile.IsManager(), nil
}

// IsEmployee reports whether the user has a complete employee profile
func (s *ProfileService) IsEmployee(ctx context.Context, userID int64) (bool, error) {
	profile, err := s.profileRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile.IsEmployee(), nil
}
