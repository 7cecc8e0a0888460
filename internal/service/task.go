package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/repository"
)

// TaskInput is the create/edit request body. An empty due date means today on
// create and "keep the current one" on edit.
type TaskInput struct {
	Title       string `json:"title" form:"title" validate:"required,max=210"`
	Description string `json:"description" form:"description" validate:"max=10000"`
	DueDate     string `json:"due_date" form:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// StatusInput is the change-status request body
type StatusInput struct {
	Status string `json:"status" form:"status"`
}

// TaskService handles the task lifecycle within the caller's team
type TaskService struct {
	taskRepo repository.TaskRepository
	now      func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		now:      time.Now,
	}
}

// ParseTaskFilter builds a list filter from the status and worker query values
func ParseTaskFilter(status, worker string) (domain.TaskFilter, error) {
	var filter domain.TaskFilter

	if status = strings.TrimSpace(status); status != "" {
		st, err := domain.ParseTaskStatus(status)
		if err != nil {
			return domain.TaskFilter{}, err
		}
		filter.Status = &st
	}

	wf, err := domain.ParseWorkerFilter(worker)
	if err != nil {
		return domain.TaskFilter{}, err
	}
	filter.Worker = wf

	return filter, nil
}

// List returns the tasks of the actor's team ordered by due date
func (s *TaskService) List(ctx context.Context, actor domain.Actor, filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.taskRepo.List(ctx, actor.TeamID, filter)
}

// Create adds a new unassigned task to the actor's team
func (s *TaskService) Create(ctx context.Context, actor domain.Actor, in TaskInput) (*domain.Task, error) {
	if err := actor.CanCreateTask(); err != nil {
		return nil, err
	}

	fields, err := s.parseFields(in)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       fields.Title,
		Description: fields.Description,
		DueDate:     s.today(),
		Status:      domain.StatusNew,
		TeamID:      actor.TeamID,
	}
	if fields.DueDate != nil {
		task.DueDate = *fields.DueDate
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// GetEditable returns a task the actor may edit
func (s *TaskService) GetEditable(ctx context.Context, actor domain.Actor, taskID int64) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, actor.TeamID, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.CanEdit(actor); err != nil {
		return nil, err
	}
	return task, nil
}

// Edit updates title, description and due date of an unassigned task
func (s *TaskService) Edit(ctx context.Context, actor domain.Actor, taskID int64, in TaskInput) (*domain.Task, error) {
	if _, err := s.GetEditable(ctx, actor, taskID); err != nil {
		return nil, err
	}

	fields, err := s.parseFields(in)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.UpdateUnassigned(ctx, actor.TeamID, taskID, fields)
	if errors.Is(err, domain.ErrPreconditionFailed) {
		return nil, s.classify(ctx, actor, taskID, func(t *domain.Task) error { return t.CanEdit(actor) }, domain.ErrTaskAlreadyAssigned)
	}
	return task, err
}

// Delete removes an unassigned task
func (s *TaskService) Delete(ctx context.Context, actor domain.Actor, taskID int64) error {
	task, err := s.taskRepo.GetByID(ctx, actor.TeamID, taskID)
	if err != nil {
		return err
	}
	if err := task.CanDelete(actor); err != nil {
		return err
	}

	err = s.taskRepo.DeleteUnassigned(ctx, actor.TeamID, taskID)
	if errors.Is(err, domain.ErrPreconditionFailed) {
		return s.classify(ctx, actor, taskID, func(t *domain.Task) error { return t.CanDelete(actor) }, domain.ErrTaskAlreadyAssigned)
	}
	return err
}

// Assign gives an unassigned task to the calling employee.
// Concurrent calls for the same task: exactly one succeeds, the rest get ErrTaskAlreadyAssigned.
func (s *TaskService) Assign(ctx context.Context, actor domain.Actor, taskID int64) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, actor.TeamID, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.CanAssign(actor); err != nil {
		return nil, err
	}

	task, err = s.taskRepo.Assign(ctx, actor.TeamID, taskID, actor.UserID)
	if errors.Is(err, domain.ErrPreconditionFailed) {
		return nil, s.classify(ctx, actor, taskID, func(t *domain.Task) error { return t.CanAssign(actor) }, domain.ErrTaskAlreadyAssigned)
	}
	return task, err
}

// ChangeStatus moves a task assigned to the actor to another status.
// Lookup and the assignee check run before the status value is parsed.
func (s *TaskService) ChangeStatus(ctx context.Context, actor domain.Actor, taskID int64, status string) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, actor.TeamID, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsAssignedTo(actor.UserID) {
		return nil, domain.ErrNotAssignee
	}

	to, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}
	if err := task.CanChangeStatus(actor, to); err != nil {
		return nil, err
	}

	task, err = s.taskRepo.SetStatus(ctx, actor.TeamID, taskID, actor.UserID, to)
	if errors.Is(err, domain.ErrPreconditionFailed) {
		return nil, s.classify(ctx, actor, taskID, func(t *domain.Task) error { return t.CanChangeStatus(actor, to) }, domain.ErrNotAssignee)
	}
	return task, err
}

// classify re-reads a task after a conditional update matched no row and
// reports why: the task is gone, or the guard no longer holds.
func (s *TaskService) classify(ctx context.Context, actor domain.Actor, taskID int64, guard func(*domain.Task) error, fallback error) error {
	task, err := s.taskRepo.GetByID(ctx, actor.TeamID, taskID)
	if err != nil {
		return err
	}
	if err := guard(task); err != nil {
		return err
	}
	return fallback
}

func (s *TaskService) parseFields(in TaskInput) (domain.TaskFields, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.DueDate = strings.TrimSpace(in.DueDate)
	if err := validateStruct(in); err != nil {
		return domain.TaskFields{}, err
	}

	fields := domain.TaskFields{Title: in.Title, Description: in.Description}
	if in.DueDate != "" {
		due, err := time.Parse(domain.DateLayout, in.DueDate)
		if err != nil {
			return domain.TaskFields{}, domain.NewValidationError("due_date", "must be a date in YYYY-MM-DD format")
		}
		fields.DueDate = &due
	}
	return fields, nil
}

func (s *TaskService) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
