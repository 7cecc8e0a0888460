package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/team-tasks/internal/domain"
)

// TaskRepository реализует repository.TaskRepository для PostgreSQL
type TaskRepository struct {
	db *pgxpool.Pool
}

// NewTaskRepository создает новый экземпляр TaskRepository
func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, description, due_date, status, team_id, assigned_to, created_at, updated_at`

// Create создает задачу и заполняет ID и временные метки
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (title, description, due_date, status, team_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.DueDate,
		string(task.Status),
		task.TeamID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrTeamNotFound
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidStatus
		}
		return err
	}

	return nil
}

// GetByID получает задачу команды
func (r *TaskRepository) GetByID(ctx context.Context, teamID, taskID int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND team_id = $2`

	return scanTaskRow(r.db.QueryRow(ctx, query, taskID, teamID), domain.ErrTaskNotFound)
}

// List возвращает задачи команды по возрастанию срока
func (r *TaskRepository) List(ctx context.Context, teamID int64, filter domain.TaskFilter) ([]*domain.Task, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE team_id = $1`)
	args := []any{teamID}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}

	switch {
	case filter.Worker.Unassigned:
		sb.WriteString(" AND assigned_to IS NULL")
	case filter.Worker.UserID != nil:
		args = append(args, *filter.Worker.UserID)
		fmt.Fprintf(&sb, " AND assigned_to = $%d", len(args))
	}

	sb.WriteString(" ORDER BY due_date, id")

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// UpdateUnassigned обновляет поля задачи, пока она никому не назначена
func (r *TaskRepository) UpdateUnassigned(ctx context.Context, teamID, taskID int64, fields domain.TaskFields) (*domain.Task, error) {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, due_date = COALESCE($5, due_date), updated_at = NOW()
		WHERE id = $1 AND team_id = $2 AND assigned_to IS NULL
		RETURNING ` + taskColumns

	row := r.db.QueryRow(ctx, query, taskID, teamID, fields.Title, fields.Description, fields.DueDate)
	return scanTaskRow(row, domain.ErrPreconditionFailed)
}

// DeleteUnassigned удаляет задачу, пока она никому не назначена
func (r *TaskRepository) DeleteUnassigned(ctx context.Context, teamID, taskID int64) error {
	query := `DELETE FROM tasks WHERE id = $1 AND team_id = $2 AND assigned_to IS NULL`

	result, err := r.db.Exec(ctx, query, taskID, teamID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrPreconditionFailed
	}

	return nil
}

// Assign назначает задачу пользователю. Условие assigned_to IS NULL проверяется
// в том же UPDATE, поэтому из двух одновременных попыток успешна ровно одна.
func (r *TaskRepository) Assign(ctx context.Context, teamID, taskID, userID int64) (*domain.Task, error) {
	query := `
		UPDATE tasks
		SET assigned_to = $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND team_id = $2 AND assigned_to IS NULL
		RETURNING ` + taskColumns

	row := r.db.QueryRow(ctx, query, taskID, teamID, userID, string(domain.StatusInProgress))
	task, err := scanTaskRow(row, domain.ErrPreconditionFailed)
	if err != nil && isForeignKeyViolation(err) {
		return nil, domain.ErrUserNotFound
	}
	return task, err
}

// SetStatus меняет статус задачи, если ее исполнитель assigneeID
func (r *TaskRepository) SetStatus(ctx context.Context, teamID, taskID, assigneeID int64, status domain.TaskStatus) (*domain.Task, error) {
	query := `
		UPDATE tasks
		SET status = $4, updated_at = NOW()
		WHERE id = $1 AND team_id = $2 AND assigned_to = $3
		RETURNING ` + taskColumns

	row := r.db.QueryRow(ctx, query, taskID, teamID, assigneeID, string(status))
	task, err := scanTaskRow(row, domain.ErrPreconditionFailed)
	if err != nil && isCheckViolation(err) {
		return nil, domain.ErrInvalidStatus
	}
	return task, err
}

// Stats возвращает статистику задач команды
func (r *TaskRepository) Stats(ctx context.Context, teamID int64) (*domain.TeamStats, error) {
	stats := &domain.TeamStats{TeamID: teamID, Members: []domain.MemberStats{}}

	// Get task statistics
	countsQuery := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'new') AS new,
			COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed
		FROM tasks
		WHERE team_id = $1
	`

	if err := r.db.QueryRow(ctx, countsQuery, teamID).Scan(
		&stats.Tasks.Total,
		&stats.Tasks.New,
		&stats.Tasks.InProgress,
		&stats.Tasks.Completed,
	); err != nil {
		return nil, err
	}

	// Get member statistics
	membersQuery := `
		SELECT
			u.id,
			u.username,
			p.role,
			COUNT(t.id) AS assigned,
			COUNT(t.id) FILTER (WHERE t.status = 'in_progress') AS in_progress,
			COUNT(t.id) FILTER (WHERE t.status = 'completed') AS completed
		FROM profiles p
		INNER JOIN users u ON u.id = p.user_id
		LEFT JOIN tasks t ON t.assigned_to = u.id AND t.team_id = p.team_id
		WHERE p.team_id = $1 AND p.role IS NOT NULL
		GROUP BY u.id, u.username, p.role
		ORDER BY assigned DESC, u.username
	`

	rows, err := r.db.Query(ctx, membersQuery, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ms   domain.MemberStats
			role string
		)
		if err := rows.Scan(&ms.UserID, &ms.Username, &role, &ms.Assigned, &ms.InProgress, &ms.Completed); err != nil {
			return nil, err
		}
		ms.Role = domain.Role(role)
		stats.Members = append(stats.Members, ms)
	}

	return stats, rows.Err()
}

func scanTaskRow(row pgx.Row, notFound error) (*domain.Task, error) {
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}
	return task, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task   domain.Task
		status string
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&status,
		&task.TeamID,
		&task.AssignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	return &task, nil
}
