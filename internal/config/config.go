package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Bind string `yaml:"bind"`
	} `yaml:"server"`
	HTTP struct {
		// Addr enables the spectator feed; empty disables it.
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Game struct {
		AnswerWindow     string `yaml:"answer_window"`
		QuestionGap      string `yaml:"question_gap"`
		PointsPerCorrect int    `yaml:"points_per_correct"`
	} `yaml:"game"`
	Quiz struct {
		ID   string `yaml:"id"`
		File string `yaml:"file"`
		TTL  string `yaml:"ttl"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path. A missing file yields the zero config
// so the server can run entirely on defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if it is empty
// or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
