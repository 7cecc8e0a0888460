package repository

import (
	"context"

	"github.com/aidar/team-tasks/internal/domain"
)

// UserRepository определяет методы для работы с учетными записями
type UserRepository interface {
	// Create создает пользователя и заполняет его ID
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername получает пользователя по имени
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetTeamMembers возвращает пользователей с завершенным профилем в команде
	GetTeamMembers(ctx context.Context, teamID int64) ([]*domain.TeamMember, error)
}

// TeamRepository определяет методы для работы с командами
type TeamRepository interface {
	// Create создает новую команду
	Create(ctx context.Context, name string) (*domain.Team, error)

	// GetByID получает команду по ID
	GetByID(ctx context.Context, teamID int64) (*domain.Team, error)

	// List возвращает все команды
	List(ctx context.Context) ([]*domain.Team, error)

	// Rename переименовывает команду
	Rename(ctx context.Context, teamID int64, name string) error

	// EnsureDefaults создает команды из names, только если не существует ни одной.
	// Возвращает количество созданных команд.
	EnsureDefaults(ctx context.Context, names []string) (int, error)
}

// ProfileRepository определяет методы для работы с профилями
type ProfileRepository interface {
	// GetOrCreate возвращает профиль пользователя, создавая пустой при отсутствии (идемпотентно)
	GetOrCreate(ctx context.Context, userID int64) (*domain.Profile, error)

	// GetByUserID получает профиль пользователя
	GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error)

	// Complete заполняет команду и роль незавершенного профиля
	Complete(ctx context.Context, userID, teamID int64, role domain.Role) (*domain.Profile, error)
}

// TaskRepository определяет методы для работы с задачами.
// Все методы ограничены командой: задача другой команды не существует для вызывающего.
// Изменяющие методы выполняют условное обновление одной строкой и возвращают
// domain.ErrPreconditionFailed, если условие не выполнено.
type TaskRepository interface {
	// Create создает задачу и заполняет ID и временные метки
	Create(ctx context.Context, task *domain.Task) error

	// GetByID получает задачу команды
	GetByID(ctx context.Context, teamID, taskID int64) (*domain.Task, error)

	// List возвращает задачи команды по возрастанию срока
	List(ctx context.Context, teamID int64, filter domain.TaskFilter) ([]*domain.Task, error)

	// UpdateUnassigned обновляет поля задачи, пока она никому не назначена
	UpdateUnassigned(ctx context.Context, teamID, taskID int64, fields domain.TaskFields) (*domain.Task, error)

	// DeleteUnassigned удаляет задачу, пока она никому не назначена
	DeleteUnassigned(ctx context.Context, teamID, taskID int64) error

	// Assign назначает неназначенную задачу пользователю (compare-and-set по assigned_to IS NULL)
	Assign(ctx context.Context, teamID, taskID, userID int64) (*domain.Task, error)

	// SetStatus меняет статус задачи, если ее исполнитель assigneeID
	SetStatus(ctx context.Context, teamID, taskID, assigneeID int64, status domain.TaskStatus) (*domain.Task, error)

	// Stats возвращает статистику задач команды
	Stats(ctx context.Context, teamID int64) (*domain.TeamStats, error)
}
