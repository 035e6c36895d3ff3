package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds process-level settings. User preferences (model, sampling
// parameters, history provider) live in the settings file instead.
type Config struct {
	// settings file
	ConfigFile string `env:"CHAT_CONFIG_FILE" env-default:"chat_config.json"`

	// AI provider
	AIProvider    string `env:"AI_PROVIDER" env-default:"ollama"`
	OllamaBaseURL string `env:"OLLAMA_BASE_URL" env-default:"http://localhost:11434"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`

	// history backends
	// An empty POSTGRES_DSN lets pgx fall back to the PG* environment.
	PostgresDSN string `env:"POSTGRES_DSN"`
	MySQLDSN    string `env:"MYSQL_DSN" env-default:"app:apppass@tcp(127.0.0.1:3306)/chat_app?charset=utf8mb4&parseTime=true&loc=Local"`
	RedisURL    string `env:"REDIS_URL" env-default:"redis://127.0.0.1:6379/0"`

	HTTPAddr string `env:"HTTP_ADDR" env-default:"127.0.0.1:8501"`

	LogFile  string `env:"LOG_FILE" env-default:"chat_app.log"`
	LogLevel string `env:"LOG_LEVEL" env-default:"DEBUG"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}
