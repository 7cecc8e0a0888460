package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aidar/team-tasks/internal/config"
)

// TestEnvironment содержит ресурсы для сквозных тестов
type TestEnvironment struct {
	App     *App
	Server  *httptest.Server
	BaseURL string
	client  *http.Client
}

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", RequestTimeout: 30 * time.Second},
		Storage: config.StorageConfig{
			Backend: config.StorageMemory,
		},
		JWT: config.JWTConfig{
			Secret:          "test-jwt-secret-key-for-integration-tests",
			ExpirationHours: 24,
			CookieName:      "session",
		},
		Teams:   config.TeamsConfig{Defaults: []string{"Development", "Marketing"}},
		Tracing: config.TracingConfig{ServiceName: "team-tasks-test"},
		Log:     config.LogConfig{Level: "error", Format: "text"},
	}
}

// SetupTestEnvironment инициализирует приложение и поднимает httptest сервер
func SetupTestEnvironment(t *testing.T, cfg *config.Config) *TestEnvironment {
	t.Helper()

	application, err := New(cfg)
	require.NoError(t, err, "Failed to create application")
	require.NoError(t, application.Initialize(context.Background()), "Failed to initialize application")

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Shutdown(ctx)
	})

	return &TestEnvironment{
		App:     application,
		Server:  srv,
		BaseURL: srv.URL,
		client: &http.Client{
			Timeout: 10 * time.Second,
			// 303 на /setup проверяется тестами, не следуем за ним
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

// SetupPostgresEnvironment запускает PostgreSQL контейнер и приложение поверх него
func SetupPostgresEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("team_tasks_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.Storage.Backend = config.StoragePostgres
	cfg.Database = config.DatabaseConfig{
		Host:        host,
		Port:        port.Port(),
		User:        "test_user",
		Password:    "test_password",
		Name:        "team_tasks_test",
		SSLMode:     "disable",
		MaxConns:    10,
		MinConns:    1,
		AutoMigrate: true,
	}

	return SetupTestEnvironment(t, cfg)
}

// MakeRequest отправляет JSON (или form, если body типа url.Values) запрос
func (te *TestEnvironment) MakeRequest(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = bytes.NewBufferString(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequest(method, te.BaseURL+path, reader)
	require.NoError(t, err, "Failed to create request")

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := te.client.Do(req)
	require.NoError(t, err, "Failed to make request")
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

// decode читает JSON тело ответа
func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
