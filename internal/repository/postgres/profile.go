package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/team-tasks/internal/domain"
)

// ProfileRepository реализует repository.ProfileRepository для PostgreSQL
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository создает новый экземпляр ProfileRepository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, user_id, team_id, role`

// GetOrCreate возвращает профиль пользователя, создавая пустой при отсутствии
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID int64) (*domain.Profile, error) {
	// ON CONFLICT DO NOTHING делает вставку идемпотентной и при гонке двух запросов
	query := `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return r.GetByUserID(ctx, userID)
}

// GetByUserID получает профиль пользователя
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	profile, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	return profile, nil
}

// Complete заполняет команду и роль, только если профиль еще не завершен
func (r *ProfileRepository) Complete(ctx context.Context, userID, teamID int64, role domain.Role) (*domain.Profile, error) {
	query := `
		UPDATE profiles
		SET team_id = $2, role = $3, updated_at = NOW()
		WHERE user_id = $1 AND (team_id IS NULL OR role IS NULL)
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.db.QueryRow(ctx, query, userID, teamID, string(role)))
	if err == nil {
		return profile, nil
	}

	if isForeignKeyViolation(err) {
		return nil, domain.ErrTeamNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Ни одна строка не обновилась: профиля нет или он уже завершен
	existing, errGet := r.GetByUserID(ctx, userID)
	if errGet != nil {
		return nil, errGet
	}
	if existing.IsComplete() {
		return existing, domain.ErrProfileAlreadyComplete
	}
	return nil, domain.ErrProfileNotFound
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		profile domain.Profile
		role    *string
	)
	if err := row.Scan(&profile.ID, &profile.UserID, &profile.TeamID, &role); err != nil {
		return nil, err
	}
	if role != nil {
		r := domain.Role(*role)
		profile.Role = &r
	}
	return &profile, nil
}
