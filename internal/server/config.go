package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string              `json:"listen_addr" yaml:"listen_addr"`
	Target     TargetConfig        `json:"target" yaml:"target"`
	Store      StoreConfig         `json:"store" yaml:"store"`
	Schedule   ScheduleConfig      `json:"schedule" yaml:"schedule"`
	Observer   ObservabilityConfig `json:"observability" yaml:"observability"`
	Auth       AuthConfig          `json:"auth" yaml:"auth"`
	Limits     LimitConfig         `json:"limits" yaml:"limits"`
}

type TargetConfig struct {
	BaseURL         string `json:"base_url" yaml:"base_url"`
	Handle          string `json:"handle" yaml:"handle"`
	Password        string `json:"password" yaml:"password"`
	ProbeTimeoutSec int    `json:"probe_timeout_sec" yaml:"probe_timeout_sec"`
}

type StoreConfig struct {
	Path     string `json:"path" yaml:"path"`
	DSN      string `json:"dsn" yaml:"dsn"`
	MaxConns int32  `json:"max_conns" yaml:"max_conns"`
}

type ScheduleConfig struct {
	Cron string `json:"cron" yaml:"cron"`
}

type ObservabilityConfig struct {
	OTLPEndpoint string  `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string  `json:"service_name" yaml:"service_name"`
	SampleRatio  float64 `json:"sample_ratio" yaml:"sample_ratio"`
}

type AuthConfig struct {
	AdminUser         string `json:"admin_user" yaml:"admin_user"`
	AdminPasswordHash string `json:"admin_password_hash" yaml:"admin_password_hash"`
}

type LimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
		Target: TargetConfig{
			ProbeTimeoutSec: 10,
		},
		Store: StoreConfig{
			Path:     "./data/history.json",
			MaxConns: 10,
		},
		Schedule: ScheduleConfig{
			Cron: "@every 5m",
		},
		Observer: ObservabilityConfig{
			ServiceName: "pdswatch",
			SampleRatio: 1,
		},
		Auth: AuthConfig{
			AdminUser: "admin",
		},
		Limits: LimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
		},
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		normalizeConfig(&cfg)
		return cfg, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json config: %w", err)
		}
	default:
		if yamlErr := yaml.Unmarshal(data, &cfg); yamlErr != nil {
			if err := json.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.New("config format not recognized (expected yaml/json)")
			}
		}
	}
	normalizeConfig(&cfg)
	return cfg, nil
}

func normalizeConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Target.ProbeTimeoutSec <= 0 {
		cfg.Target.ProbeTimeoutSec = 10
	}
	if strings.TrimSpace(cfg.Store.Path) == "" && strings.TrimSpace(cfg.Store.DSN) == "" {
		cfg.Store.Path = "./data/history.json"
	}
	if cfg.Store.MaxConns <= 0 {
		cfg.Store.MaxConns = 10
	}
	if strings.TrimSpace(cfg.Schedule.Cron) == "" {
		cfg.Schedule.Cron = "@every 5m"
	}
	if strings.TrimSpace(cfg.Observer.ServiceName) == "" {
		cfg.Observer.ServiceName = "pdswatch"
	}
	if cfg.Observer.SampleRatio <= 0 || cfg.Observer.SampleRatio > 1 {
		cfg.Observer.SampleRatio = 1
	}
	if strings.TrimSpace(cfg.Auth.AdminUser) == "" {
		cfg.Auth.AdminUser = "admin"
	}
	if cfg.Limits.RequestsPerSecond <= 0 {
		cfg.Limits.RequestsPerSecond = 5
	}
	if cfg.Limits.Burst <= 0 {
		cfg.Limits.Burst = 10
	}
	// The app password is a secret; allow the environment to supply it.
	if strings.TrimSpace(cfg.Target.Password) == "" {
		cfg.Target.Password = strings.TrimSpace(os.Getenv("PDS_PASSWORD"))
	}
}
