package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/team-tasks/internal/domain"
)

// ensureTeamsLockKey ключ advisory lock для начального заполнения команд
const ensureTeamsLockKey int64 = 7_310_001

// TeamRepository реализует repository.TeamRepository для PostgreSQL
type TeamRepository struct {
	db *pgxpool.Pool
}

// NewTeamRepository создает новый экземпляр TeamRepository
func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create создает новую команду
func (r *TeamRepository) Create(ctx context.Context, name string) (*domain.Team, error) {
	query := `INSERT INTO teams (name) VALUES ($1) RETURNING id, name`

	var team domain.Team
	err := r.db.QueryRow(ctx, query, strings.TrimSpace(name)).Scan(&team.ID, &team.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrTeamExists
		}
		return nil, err
	}

	return &team, nil
}

// GetByID получает команду по ID
func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (*domain.Team, error) {
	query := `SELECT id, name FROM teams WHERE id = $1`

	var team domain.Team
	err := r.db.QueryRow(ctx, query, teamID).Scan(&team.ID, &team.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}

	return &team, nil
}

// List возвращает все команды
func (r *TeamRepository) List(ctx context.Context) ([]*domain.Team, error) {
	query := `SELECT id, name FROM teams ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []*domain.Team{}
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name); err != nil {
			return nil, err
		}
		teams = append(teams, &team)
	}

	return teams, rows.Err()
}

// Rename переименовывает команду
func (r *TeamRepository) Rename(ctx context.Context, teamID int64, name string) error {
	query := `UPDATE teams SET name = $1 WHERE id = $2`

	result, err := r.db.Exec(ctx, query, strings.TrimSpace(name), teamID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTeamExists
		}
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}

	return nil
}

// EnsureDefaults создает команды из names, только если таблица пуста.
// Параллельные запуски сериализуются через advisory lock транзакции.
func (r *TeamRepository) EnsureDefaults(ctx context.Context, names []string) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore error as it will fail if transaction was committed
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ensureTeamsLockKey); err != nil {
		return 0, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM teams)`).Scan(&exists); err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		result, err := tx.Exec(ctx, `INSERT INTO teams (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
		if err != nil {
			return 0, err
		}
		created += int(result.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return created, nil
}
