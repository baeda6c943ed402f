package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BackendConfig points at the upstream ATS the engine syncs with.
type BackendConfig struct {
	BaseURL   string `yaml:"baseURL"`
	Token     string `yaml:"token"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	Enabled bool     `yaml:"enabled"`
	APIKeys []string `yaml:"apiKeys"`
}

type RateLimitConfig struct {
	DefaultPerMinute int `yaml:"defaultPerMinute"`
}

// BulkConfig bounds bulk operation fan-out against the upstream.
type BulkConfig struct {
	MaxConcurrent    int `yaml:"maxConcurrent"`
	PerItemTimeoutMs int `yaml:"perItemTimeoutMs"`
}

// EventsConfig controls the SSE change feed.
type EventsConfig struct {
	BufferSize int `yaml:"bufferSize"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Bulk      BulkConfig      `yaml:"bulk"`
	Events    EventsConfig    `yaml:"events"`
}

func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	return &cfg
}
