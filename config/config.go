package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Dosada05/calcetto/squads"
	"github.com/Dosada05/calcetto/storage"
	"github.com/Dosada05/calcetto/utils"
	"github.com/joho/godotenv"
)

const (
	DefaultServerPort         = 8080
	DefaultLoginRatePerMinute = 10
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	// DatabaseURL пустой - данные хранятся в памяти процесса.
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// AdminPIN - PIN учетной записи admin, создаваемой при старте. Пустой - не создавать.
	AdminPIN string

	CORSAllowedOrigins []string
	LogLevel           slog.Level
	// LogFile пустой - логи идут в stdout.
	LogFile string

	BalancerMaxCandidates int
	LoginRatePerMinute    int

	R2 storage.R2Config
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию из произвольного источника переменных.
func FromEnv(getenv func(string) string) (*Config, error) {
	jwtKey := getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intVar(getenv, "SERVER_PORT", DefaultServerPort)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	maxCandidates, err := intVar(getenv, "BALANCER_MAX_CANDIDATES", squads.DefaultMaxCandidates)
	if err != nil {
		return nil, err
	}
	if maxCandidates <= 0 {
		return nil, fmt.Errorf("BALANCER_MAX_CANDIDATES must be positive, got %d", maxCandidates)
	}

	loginRate, err := intVar(getenv, "LOGIN_RATE_PER_MINUTE", DefaultLoginRatePerMinute)
	if err != nil {
		return nil, err
	}
	if loginRate < 0 {
		return nil, fmt.Errorf("LOGIN_RATE_PER_MINUTE must not be negative, got %d", loginRate)
	}

	var level slog.Level
	if v := getenv("LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}

	adminPIN := getenv("ADMIN_PIN")
	if adminPIN != "" && !utils.ValidPIN(adminPIN) {
		return nil, fmt.Errorf("ADMIN_PIN must be exactly 4 digits")
	}

	cfg := &Config{
		DatabaseURL:           getenv("DATABASE_URL"),
		JWTSecretKey:          jwtKey,
		ServerPort:            port,
		AdminPIN:              adminPIN,
		CORSAllowedOrigins:    splitList(getenv("CORS_ALLOWED_ORIGINS")),
		LogLevel:              level,
		LogFile:               getenv("LOG_FILE"),
		BalancerMaxCandidates: maxCandidates,
		LoginRatePerMinute:    loginRate,
		R2: storage.R2Config{
			AccountID:       getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	return cfg, nil
}

func intVar(getenv func(string) string, name string, def int) (int, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
