package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Форма матча. Значения по умолчанию дают классические 5 на 5;
	// движок матчмейкинга нигде не зашивает эти числа.
	PlayersPerTeam int
	TeamsPerMatch  int
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	playersPerTeam, err := intEnv("PLAYERS_PER_TEAM", 5)
	if err != nil {
		return nil, err
	}
	teamsPerMatch, err := intEnv("TEAMS_PER_MATCH", 2)
	if err != nil {
		return nil, err
	}
	if playersPerTeam <= 0 || teamsPerMatch <= 1 {
		return nil, fmt.Errorf("match shape is invalid: %d teams of %d players", teamsPerMatch, playersPerTeam)
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		JWTSecretKey:   jwtKey,
		ServerPort:     port,
		PlayersPerTeam: playersPerTeam,
		TeamsPerMatch:  teamsPerMatch,
	}

	return cfg, nil
}

func intEnv(name string, defaultValue int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
