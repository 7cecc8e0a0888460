package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig   // Настройки HTTP сервера
	Database DatabaseConfig // Настройки подключения к БД
	Storage  StorageConfig  // Выбор хранилища
	JWT      JWTConfig      // Настройки JWT авторизации и сессионной cookie
	Redis    RedisConfig    // Хранилище отозванных токенов
	Teams    TeamsConfig    // Начальные команды
	Tracing  TracingConfig  // OpenTelemetry
	Log      LogConfig      // Логирование
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string        `envconfig:"SERVER_PORT" default:"8080"`
	Host           string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout    time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout    time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// Addr возвращает адрес для http.Server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"team_tasks"`
	Password    string `envconfig:"DB_PASSWORD" default:"team_tasks_pass"`
	Name        string `envconfig:"DB_NAME" default:"team_tasks"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int32  `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// DSN возвращает строку подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Поддерживаемые хранилища
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// StorageConfig выбирает реализацию репозиториев
type StorageConfig struct {
	Backend string `envconfig:"STORAGE_BACKEND" default:"postgres"`
}

// JWTConfig содержит настройки JWT авторизации
type JWTConfig struct {
	Secret          string `envconfig:"JWT_SECRET" required:"true"`
	ExpirationHours int    `envconfig:"JWT_EXPIRATION_HOURS" default:"24"`
	CookieName      string `envconfig:"SESSION_COOKIE_NAME" default:"session"`
	CookieSecure    bool   `envconfig:"SESSION_COOKIE_SECURE" default:"false"`
}

// GetExpiration возвращает срок действия токена как time.Duration
func (j JWTConfig) GetExpiration() time.Duration {
	return time.Duration(j.ExpirationHours) * time.Hour
}

// RedisConfig содержит настройки Redis. Пустой Addr - отозванные токены хранятся в памяти процесса.
type RedisConfig struct {
	Addr      string `envconfig:"REDIS_ADDR"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"team-tasks:"`
}

// Enabled возвращает true если Redis настроен
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// TeamsConfig содержит команды, создаваемые при пустой таблице,
// и токен оператора для управления командами
type TeamsConfig struct {
	Defaults   []string `envconfig:"DEFAULT_TEAMS" default:"Development,Marketing"`
	AdminToken string   `envconfig:"TEAM_ADMIN_TOKEN"`
}

// AdminEnabled возвращает true если эндпоинты управления командами включены
func (t TeamsConfig) AdminEnabled() bool {
	return strings.TrimSpace(t.AdminToken) != ""
}

// TracingConfig содержит настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `envconfig:"OTEL_ENABLED" default:"false"`
	Endpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
	SampleRatio float64 `envconfig:"OTEL_SAMPLER_RATIO" default:"1"`
	ServiceName string  `envconfig:"OTEL_SERVICE_NAME" default:"team-tasks"`
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load читает конфигурацию из переменных окружения.
// Файл .env, если есть, подгружается заранее и не перекрывает уже заданные переменные.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format)
	}

	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.JWT.ExpirationHours <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be positive")
	}

	// Без начальных команд настройка профиля на пустой базе невозможна
	defaults := make([]string, 0, len(c.Teams.Defaults))
	for _, name := range c.Teams.Defaults {
		if name = strings.TrimSpace(name); name != "" {
			defaults = append(defaults, name)
		}
	}
	if len(defaults) == 0 {
		return fmt.Errorf("DEFAULT_TEAMS must name at least one team")
	}
	c.Teams.Defaults = defaults

	return nil
}
