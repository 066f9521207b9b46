package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	sm "ma/service/models"
)

const (
	DefaultAddr = ":8080"
)

type Config struct {
	DatabaseURL        string
	AlphaVantageApiKey string
	Addr               string
	LogLevel           string
	Analysis           sm.AnalysisSettings
}

type fileConfig struct {
	Analysis sm.AnalysisSettings `toml:"analysis"`
}

// Load reads .env (if present) and the environment, then the optional analysis toml file
func Load() (Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = DefaultAddr
	}

	analysis, err := LoadAnalysisSettings(os.Getenv("ANALYTICS_CONFIG"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AlphaVantageApiKey: os.Getenv("ALPHAVANTAGE_API_KEY"),
		Addr:               addr,
		LogLevel:           os.Getenv("LOG_LEVEL"),
		Analysis:           analysis,
	}, nil
}

// LoadAnalysisSettings overlays the [analysis] table of a toml file on the defaults.
// An empty path returns the defaults.
func LoadAnalysisSettings(path string) (sm.AnalysisSettings, error) {
	cfg := fileConfig{Analysis: sm.DefaultAnalysisSettings()}
	if path == "" {
		return cfg.Analysis, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return sm.AnalysisSettings{}, fmt.Errorf("error reading analysis config %s: %w", path, err)
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return sm.AnalysisSettings{}, fmt.Errorf("error parsing analysis config %s: %w", path, err)
	}

	if err := cfg.Analysis.Validate(); err != nil {
		return sm.AnalysisSettings{}, fmt.Errorf("invalid analysis config %s: %w", path, err)
	}

	return cfg.Analysis, nil
}
