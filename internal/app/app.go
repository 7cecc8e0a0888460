package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aidar/team-tasks/internal/config"
	"github.com/aidar/team-tasks/internal/handler"
	"github.com/aidar/team-tasks/internal/middleware"
	"github.com/aidar/team-tasks/internal/observability"
	"github.com/aidar/team-tasks/internal/repository"
	"github.com/aidar/team-tasks/internal/repository/memory"
	"github.com/aidar/team-tasks/internal/repository/postgres"
	"github.com/aidar/team-tasks/internal/service"
	"github.com/aidar/team-tasks/internal/session"
	"github.com/aidar/team-tasks/migrations"
)

// App представляет приложение со всеми зависимостями
type App struct {
	config  *config.Config
	db      *pgxpool.Pool
	rdb     *goredis.Client
	server  *http.Server
	handler http.Handler
	logger  *slog.Logger

	shutdownTracing observability.ShutdownFunc
}

// repositories набор репозиториев выбранного хранилища
type repositories struct {
	users    repository.UserRepository
	teams    repository.TeamRepository
	profiles repository.ProfileRepository
	tasks    repository.TaskRepository
}

// New создает новый экземпляр приложения
func New(cfg *config.Config) (*App, error) {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	// HandleError пишет 500 через логгер по умолчанию
	slog.SetDefault(logger)

	app := &App{
		config: cfg,
		logger: logger,
	}

	return app, nil
}

// newLogger создает структурированный логгер (JSON или text формат)
func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
}

// Initialize инициализирует все компоненты приложения
func (a *App) Initialize(ctx context.Context) error {
	shutdownTracing, err := observability.InitTracing(ctx, a.config.Tracing, a.logger)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	a.shutdownTracing = shutdownTracing

	repos, err := a.setupStorage(ctx)
	if err != nil {
		return err
	}

	revoker, err := a.setupRevoker(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Инициализируем слой сервисов (бизнес-логика)
	authService := service.NewAuthService(
		repos.users,
		repos.profiles,
		revoker,
		a.config.JWT.Secret,
		a.config.JWT.GetExpiration(),
	)
	teamService := service.NewTeamService(repos.teams, repos.users, a.logger)
	profileService := service.NewProfileService(repos.profiles, repos.teams)
	taskService := service.NewTaskService(repos.tasks)
	statsService := service.NewStatsService(repos.tasks)

	// Начальные команды создаются один раз при старте, а не на первом запросе
	if err := teamService.EnsureDefaults(ctx, a.config.Teams.Defaults); err != nil {
		return fmt.Errorf("failed to ensure default teams: %w", err)
	}

	// Настраиваем HTTP сервер и роутинг
	a.setupServer(authService, teamService, profileService, taskService, statsService)

	a.logger.Info("Application initialized successfully", "storage", a.config.Storage.Backend)
	return nil
}

// setupStorage выбирает реализацию репозиториев
func (a *App) setupStorage(ctx context.Context) (repositories, error) {
	if a.config.Storage.Backend == config.StorageMemory {
		store := memory.New()
		a.logger.Warn("Using in-memory storage, data is lost on restart")
		return repositories{
			users:    store.Users(),
			teams:    store.Teams(),
			profiles: store.Profiles(),
			tasks:    store.Tasks(),
		}, nil
	}

	// Подключаемся к базе данных
	if err := a.connectDB(ctx); err != nil {
		return repositories{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	if a.config.Database.AutoMigrate {
		if err := migrations.Apply(ctx, a.db); err != nil {
			return repositories{}, fmt.Errorf("failed to apply migrations: %w", err)
		}
		a.logger.Info("Database migrations applied")
	}

	return repositories{
		users:    postgres.NewUserRepository(a.db),
		teams:    postgres.NewTeamRepository(a.db),
		profiles: postgres.NewProfileRepository(a.db),
		tasks:    postgres.NewTaskRepository(a.db),
	}, nil
}

// connectDB устанавливает подключение к PostgreSQL с connection pool
func (a *App) connectDB(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	// Настраиваем размеры connection pool
	poolConfig.MaxConns = a.config.Database.MaxConns
	poolConfig.MinConns = a.config.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение к БД
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = pool
	a.logger.Info("Connected to database")
	return nil
}

// setupRevoker выбирает хранилище отозванных токенов: Redis если настроен, иначе память процесса
func (a *App) setupRevoker(ctx context.Context) (session.Revoker, error) {
	if !a.config.Redis.Enabled() {
		return session.NewMemoryRevoker(), nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        a.config.Redis.Addr,
		Password:    a.config.Redis.Password,
		DB:          a.config.Redis.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	a.rdb = rdb
	a.logger.Info("Connected to redis", "addr", a.config.Redis.Addr)
	return session.NewRedisRevoker(rdb, a.config.Redis.KeyPrefix), nil
}

// setupServer инициализирует HTTP роутер и обработчики
func (a *App) setupServer(
	authService *service.AuthService,
	teamService *service.TeamService,
	profileService *service.ProfileService,
	taskService *service.TaskService,
	statsService *service.StatsService,
) {
	// Инициализируем HTTP обработчики
	authHandler := handler.NewAuthHandler(authService, profileService, handler.CookieConfig{
		Name:   a.config.JWT.CookieName,
		Secure: a.config.JWT.CookieSecure,
	})
	teamHandler := handler.NewTeamHandler(teamService)
	profileHandler := handler.NewProfileHandler(profileService, teamService)
	taskHandler := handler.NewTaskHandler(taskService, teamService)
	statsHandler := handler.NewStatsHandler(statsService)

	// Проверка сессии и профиля
	authMiddleware := middleware.AuthMiddleware(authService, a.config.JWT.CookieName)
	profileGate := middleware.ProfileGate(profileService)

	// Настраиваем роутер
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко всем запросам)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(a.config.Server.RequestTimeout))

	// Health check для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	// Публичные эндпоинты (без авторизации)
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)

	// Управление командами для оператора, только при заданном TEAM_ADMIN_TOKEN
	if a.config.Teams.AdminEnabled() {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminToken(a.config.Teams.AdminToken))

			r.Post("/team/add", teamHandler.AddTeam)
			r.Post("/team/rename", teamHandler.RenameTeam)
		})
	}

	// Эндпоинты с сессией, профиль может быть не настроен
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/logout", authHandler.Logout)
		r.Post("/logout", authHandler.Logout)
		r.Get("/teams", teamHandler.List)
		r.Get("/setup", profileHandler.SetupForm)
		r.Post("/setup", profileHandler.Setup)

		// Эндпоинты задач требуют завершенный профиль
		r.Group(func(r chi.Router) {
			r.Use(profileGate)

			r.Get("/", taskHandler.List)
			r.Post("/create", taskHandler.Create)
			r.Get("/edit/{taskID:[0-9]+}", taskHandler.EditForm)
			r.Post("/edit/{taskID:[0-9]+}", taskHandler.Edit)
			r.Post("/delete/{taskID:[0-9]+}", taskHandler.Delete)
			r.Post("/assign/{taskID:[0-9]+}", taskHandler.Assign)
			r.Post("/status/{taskID:[0-9]+}", taskHandler.ChangeStatus)
			r.Post("/change_status/{taskID:[0-9]+}", taskHandler.ChangeStatus)

			r.Get("/stats", statsHandler.GetStats)
		})
	})

	// Спан на каждый запрос; без настроенного провайдера это no-op
	a.handler = otelhttp.NewHandler(r, a.config.Tracing.ServiceName)

	// Создаем HTTP сервер с настройками таймаутов
	addr := a.config.Server.Addr()
	a.server = &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	a.logger.Info("HTTP server configured", "addr", addr)
}

// Handler возвращает корневой HTTP обработчик
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run запускает HTTP сервер
func (a *App) Run() error {
	a.logger.Info("Starting HTTP server", "addr", a.server.Addr)
	return a.server.ListenAndServe()
}

// Shutdown корректно останавливает приложение
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application")

	// Останавливаем HTTP сервер (ждем завершения текущих запросов)
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	// Закрываем подключения к базе данных и Redis
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("Failed to close redis client", "error", err)
		}
	}

	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Error("Failed to flush traces", "error", err)
		}
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}
