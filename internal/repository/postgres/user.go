package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/team-tasks/internal/domain"
)

// UserRepository реализует repository.UserRepository для PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create создает пользователя и заполняет его ID
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, user.Username, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return err
	}

	return nil
}

// GetByUsername получает пользователя по имени
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`

	return r.scanOne(r.db.QueryRow(ctx, query, username))
}

func (r *UserRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetTeamMembers возвращает пользователей с завершенным профилем в команде
func (r *UserRepository) GetTeamMembers(ctx context.Context, teamID int64) ([]*domain.TeamMember, error) {
	query := `
		SELECT u.id, u.username, p.role
		FROM users u
		INNER JOIN profiles p ON p.user_id = u.id
		WHERE p.team_id = $1 AND p.role IS NOT NULL
		ORDER BY u.username
	`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*domain.TeamMember{}
	for rows.Next() {
		var (
			member domain.TeamMember
			role   string
		)
		if err := rows.Scan(&member.UserID, &member.Username, &role); err != nil {
			return nil, err
		}
		member.Role = domain.Role(role)
		members = append(members, &member)
	}

	return members, rows.Err()
}
