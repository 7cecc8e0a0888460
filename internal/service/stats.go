package service

import (
	"context"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/repository"
)

// StatsService handles statistics queries
type StatsService struct {
	taskRepo repository.TaskRepository
}

// NewStatsService creates a new StatsService
func NewStatsService(taskRepo repository.TaskRepository) *StatsService {
	return &StatsService{taskRepo: taskRepo}
}

// TeamStats returns task counts of the actor's team, overall and per member
func (s *StatsService) TeamStats(ctx context.Context, actor domain.Actor) (*domain.TeamStats, error) {
	return s.taskRepo.Stats(ctx, actor.TeamID)
}
