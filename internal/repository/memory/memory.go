// Package memory реализует репозитории в памяти процесса.
// Используется в тестах и при STORAGE_BACKEND=memory для локального запуска без PostgreSQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/repository"
)

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.TeamRepository    = (*TeamRepository)(nil)
	_ repository.ProfileRepository = (*ProfileRepository)(nil)
	_ repository.TaskRepository    = (*TaskRepository)(nil)
)

// Store хранит все данные под одним мьютексом, поэтому каждое условное
// обновление атомарно так же, как одиночный UPDATE в PostgreSQL.
type Store struct {
	mu sync.Mutex

	nextID   int64
	teams    map[int64]*domain.Team
	users    map[int64]*domain.User
	profiles map[int64]*domain.Profile // ключ - user_id
	tasks    map[int64]*domain.Task

	now func() time.Time
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		teams:    make(map[int64]*domain.Team),
		users:    make(map[int64]*domain.User),
		profiles: make(map[int64]*domain.Profile),
		tasks:    make(map[int64]*domain.Task),
		now:      time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users возвращает репозиторий пользователей
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Teams возвращает репозиторий команд
func (s *Store) Teams() *TeamRepository { return &TeamRepository{s: s} }

// Profiles возвращает репозиторий профилей
func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{s: s} }

// Tasks возвращает репозиторий задач
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

// UserRepository реализует repository.UserRepository в памяти
type UserRepository struct{ s *Store }

// Create создает пользователя и заполняет его ID
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}

	user.ID = r.s.id()
	user.CreatedAt = r.s.now()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

// GetByUsername получает пользователя по имени
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// GetTeamMembers возвращает пользователей с завершенным профилем в команде
func (r *UserRepository) GetTeamMembers(_ context.Context, teamID int64) ([]*domain.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	members := []*domain.TeamMember{}
	for _, p := range r.s.profiles {
		if !p.IsComplete() || *p.TeamID != teamID {
			continue
		}
		u := r.s.users[p.UserID]
		members = append(members, &domain.TeamMember{UserID: u.ID, Username: u.Username, Role: *p.Role})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Username < members[j].Username })
	return members, nil
}

// TeamRepository реализует repository.TeamRepository в памяти
type TeamRepository struct{ s *Store }

// Create создает новую команду
func (r *TeamRepository) Create(_ context.Context, name string) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.createLocked(strings.TrimSpace(name))
}

func (r *TeamRepository) createLocked(name string) (*domain.Team, error) {
	for _, t := range r.s.teams {
		if t.Name == name {
			return nil, domain.ErrTeamExists
		}
	}
	team := &domain.Team{ID: r.s.id(), Name: name}
	r.s.teams[team.ID] = team
	cp := *team
	return &cp, nil
}

// GetByID получает команду по ID
func (r *TeamRepository) GetByID(_ context.Context, teamID int64) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.teams[teamID]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

// List возвращает все команды
func (r *TeamRepository) List(_ context.Context) ([]*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	teams := make([]*domain.Team, 0, len(r.s.teams))
	for _, t := range r.s.teams {
		cp := *t
		teams = append(teams, &cp)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

// Rename переименовывает команду
func (r *TeamRepository) Rename(_ context.Context, teamID int64, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	name = strings.TrimSpace(name)
	t, ok := r.s.teams[teamID]
	if !ok {
		return domain.ErrTeamNotFound
	}
	for _, other := range r.s.teams {
		if other.ID != teamID && other.Name == name {
			return domain.ErrTeamExists
		}
	}
	t.Name = name
	return nil
}

// EnsureDefaults создает команды из names, только если не существует ни одной
func (r *TeamRepository) EnsureDefaults(_ context.Context, names []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if len(r.s.teams) > 0 {
		return 0, nil
	}

	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := r.createLocked(name); err == nil {
			created++
		}
	}
	return created, nil
}

// ProfileRepository реализует repository.ProfileRepository в памяти
type ProfileRepository struct{ s *Store }

// GetOrCreate возвращает профиль пользователя, создавая пустой при отсутствии
func (r *ProfileRepository) GetOrCreate(_ context.Context, userID int64) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	p, ok := r.s.profiles[userID]
	if !ok {
		p = &domain.Profile{ID: r.s.id(), UserID: userID}
		r.s.profiles[userID] = p
	}
	return copyProfile(p), nil
}

// GetByUserID получает профиль пользователя
func (r *ProfileRepository) GetByUserID(_ context.Context, userID int64) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return copyProfile(p), nil
}

// Complete заполняет команду и роль незавершенного профиля
func (r *ProfileRepository) Complete(_ context.Context, userID, teamID int64, role domain.Role) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	if p.IsComplete() {
		return copyProfile(p), domain.ErrProfileAlreadyComplete
	}
	if _, ok := r.s.teams[teamID]; !ok {
		return nil, domain.ErrTeamNotFound
	}

	p.TeamID = &teamID
	p.Role = &role
	return copyProfile(p), nil
}

func copyProfile(p *domain.Profile) *domain.Profile {
	cp := *p
	if p.TeamID != nil {
		teamID := *p.TeamID
		cp.TeamID = &teamID
	}
	if p.Role != nil {
		role := *p.Role
		cp.Role = &role
	}
	return &cp
}

// TaskRepository реализует repository.TaskRepository в памяти
type TaskRepository struct{ s *Store }

// Create создает задачу и заполняет ID и временные метки
func (r *TaskRepository) Create(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.teams[task.TeamID]; !ok {
		return domain.ErrTeamNotFound
	}
	if (task.Status == domain.StatusNew) != (task.AssignedTo == nil) {
		return domain.ErrInvalidStatus
	}

	task.ID = r.s.id()
	task.CreatedAt = r.s.now()
	task.UpdatedAt = task.CreatedAt
	r.s.tasks[task.ID] = copyTask(task)
	return nil
}

// GetByID получает задачу команды
func (r *TaskRepository) GetByID(_ context.Context, teamID, taskID int64) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.lookup(teamID, taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return copyTask(t), nil
}

func (r *TaskRepository) lookup(teamID, taskID int64) (*domain.Task, bool) {
	t, ok := r.s.tasks[taskID]
	if !ok || t.TeamID != teamID {
		return nil, false
	}
	return t, true
}

// List возвращает задачи команды по возрастанию срока
func (r *TaskRepository) List(_ context.Context, teamID int64, filter domain.TaskFilter) ([]*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tasks := []*domain.Task{}
	for _, t := range r.s.tasks {
		if t.TeamID == teamID && filter.Matches(t) {
			tasks = append(tasks, copyTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(tasks[j].DueDate) {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

// UpdateUnassigned обновляет поля задачи, пока она никому не назначена
func (r *TaskRepository) UpdateUnassigned(_ context.Context, teamID, taskID int64, fields domain.TaskFields) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.lookup(teamID, taskID)
	if !ok || t.IsAssigned() {
		return nil, domain.ErrPreconditionFailed
	}

	t.Title = fields.Title
	t.Description = fields.Description
	if fields.DueDate != nil {
		t.DueDate = *fields.DueDate
	}
	t.UpdatedAt = r.s.now()
	return copyTask(t), nil
}

// DeleteUnassigned удаляет задачу, пока она никому не назначена
func (r *TaskRepository) DeleteUnassigned(_ context.Context, teamID, taskID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.lookup(teamID, taskID)
	if !ok || t.IsAssigned() {
		return domain.ErrPreconditionFailed
	}
	delete(r.s.tasks, taskID)
	return nil
}

// Assign назначает неназначенную задачу пользователю
func (r *TaskRepository) Assign(_ context.Context, teamID, taskID, userID int64) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	t, ok := r.lookup(teamID, taskID)
	if !ok || t.IsAssigned() {
		return nil, domain.ErrPreconditionFailed
	}

	t.Assign(userID)
	t.UpdatedAt = r.s.now()
	return copyTask(t), nil
}

// SetStatus меняет статус задачи, если ее исполнитель assigneeID
func (r *TaskRepository) SetStatus(_ context.Context, teamID, taskID, assigneeID int64, status domain.TaskStatus) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.lookup(teamID, taskID)
	if !ok || !t.IsAssignedTo(assigneeID) {
		return nil, domain.ErrPreconditionFailed
	}
	if !status.Valid() || status == domain.StatusNew {
		return nil, domain.ErrInvalidStatus
	}

	t.Status = status
	t.UpdatedAt = r.s.now()
	return copyTask(t), nil
}

// Stats возвращает статистику задач команды
func (r *TaskRepository) Stats(_ context.Context, teamID int64) (*domain.TeamStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := &domain.TeamStats{TeamID: teamID, Members: []domain.MemberStats{}}
	byUser := map[int64]*domain.MemberStats{}

	for _, p := range r.s.profiles {
		if !p.IsComplete() || *p.TeamID != teamID {
			continue
		}
		u := r.s.users[p.UserID]
		byUser[u.ID] = &domain.MemberStats{UserID: u.ID, Username: u.Username, Role: *p.Role}
	}

	for _, t := range r.s.tasks {
		if t.TeamID != teamID {
			continue
		}
		stats.Tasks.Total++
		switch t.Status {
		case domain.StatusNew:
			stats.Tasks.New++
		case domain.StatusInProgress:
			stats.Tasks.InProgress++
		case domain.StatusCompleted:
			stats.Tasks.Completed++
		}

		if t.AssignedTo == nil {
			continue
		}
		ms, ok := byUser[*t.AssignedTo]
		if !ok {
			continue
		}
		ms.Assigned++
		switch t.Status {
		case domain.StatusInProgress:
			ms.InProgress++
		case domain.StatusCompleted:
			ms.Completed++
		}
	}

	for _, ms := range byUser {
		stats.Members = append(stats.Members, *ms)
	}
	sort.Slice(stats.Members, func(i, j int) bool {
		a, b := stats.Members[i], stats.Members[j]
		if a.Assigned != b.Assigned {
			return a.Assigned > b.Assigned
		}
		return a.Username < b.Username
	})

	return stats, nil
}

func copyTask(t *domain.Task) *domain.Task {
	cp := *t
	if t.AssignedTo != nil {
		assignee := *t.AssignedTo
		cp.AssignedTo = &assignee
	}
	return &cp
}
