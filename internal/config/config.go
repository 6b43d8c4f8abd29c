package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"study-session-service/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Collections struct {
		TTL string `yaml:"ttl"`
		// Seed is loaded into the in-memory item source when no Postgres URL is set.
		Seed []domain.Collection `yaml:"seed"`
	} `yaml:"collections"`
	Session struct {
		Quiz      PolicyConfig `yaml:"quiz"`
		Flashcard PolicyConfig `yaml:"flashcard"`
	} `yaml:"session"`
}

// PolicyConfig overrides the engine defaults of one item variant. Nil fields
// keep the default.
type PolicyConfig struct {
	CelebrateAt *int  `yaml:"celebrate_at"`
	WrapPrev    *bool `yaml:"wrap_prev"`
	Shuffle     *bool `yaml:"shuffle"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
