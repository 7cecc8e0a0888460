// Package migrations содержит SQL схему сервиса и применяет ее к PostgreSQL
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var files embed.FS

// UpFiles возвращает имена up-миграций в порядке применения
func UpFiles() ([]string, error) {
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Apply применяет все up-миграции. Схема написана идемпотентно (IF NOT EXISTS),
// поэтому повторный запуск безопасен.
func Apply(ctx context.Context, db *pgxpool.Pool) error {
	names, err := UpFiles()
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	for _, name := range names {
		body, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			continue
		}
		// Без аргументов pgx использует simple protocol, что позволяет несколько выражений в одном Exec
		if _, err := db.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return nil
}
