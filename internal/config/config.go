package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends for the learner ledgers.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL          string   `yaml:"ttl"`
		RevealDelay  string   `yaml:"revealDelay"`
		KnownQuizIDs []string `yaml:"knownQuizIds"`
	} `yaml:"quiz"`
	Storage struct {
		Backend   string `yaml:"backend"`
		Namespace string `yaml:"namespace"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"storage"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
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

// StorageBackend returns the configured ledger backend. Redis is only used when an address is set.
func (c Config) StorageBackend() string {
	if strings.EqualFold(c.Storage.Backend, StorageRedis) && c.Redis.Addr != "" {
		return StorageRedis
	}
	return StorageMemory
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
