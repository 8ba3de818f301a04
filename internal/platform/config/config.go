// Package config loads server configuration from the environment, with an
// optional .env file for local development and a YAML hostname map that
// assigns tracking environments.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"beacon/internal/tracking"
)

// Config captures everything main needs to wire the process.
type Config struct {
	Addr string `validate:"required"`

	// Hosted-auth settings for building authorize, signup, and logout URLs.
	AuthDomain string `validate:"required,hostname"`
	ClientID   string `validate:"required"`
	SiteOrigin string `validate:"required,url"`

	// RedisURL switches session and consent state from in-process memory to
	// Redis. Empty means memory, which is fine for a single instance.
	RedisURL string

	// PostgresDSN switches account data from in-process memory to Postgres.
	PostgresDSN string

	// KafkaBrokers switches the tracking sink from log output to Kafka.
	KafkaBrokers []string
	KafkaTopic   string

	// EnvironmentMapPath points at the YAML hostname map; empty leaves every
	// hostname in the unknown environment.
	EnvironmentMapPath string

	// Server timeouts; zero keeps the httpserver package defaults.
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration

	LogLevel string
}

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first if present.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:               envOr("BEACON_ADDR", ":8080"),
		AuthDomain:         os.Getenv("BEACON_AUTH_DOMAIN"),
		ClientID:           os.Getenv("BEACON_CLIENT_ID"),
		SiteOrigin:         os.Getenv("BEACON_SITE_ORIGIN"),
		RedisURL:           os.Getenv("BEACON_REDIS_URL"),
		PostgresDSN:        os.Getenv("BEACON_POSTGRES_DSN"),
		KafkaTopic:         envOr("BEACON_KAFKA_TOPIC", "beacon.tracking.events"),
		EnvironmentMapPath: os.Getenv("BEACON_ENVIRONMENT_MAP"),
		LogLevel:           envOr("BEACON_LOG_LEVEL", "info"),
	}
	if brokers := os.Getenv("BEACON_KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	var err error
	if cfg.ReadHeaderTimeout, err = durationOr("BEACON_READ_HEADER_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if cfg.IdleTimeout, err = durationOr("BEACON_IDLE_TIMEOUT", 0); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadEnvironmentMap reads the YAML hostname map. Environment variables in
// the file are expanded before parsing.
func LoadEnvironmentMap(path string) (tracking.EnvironmentMap, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return tracking.EnvironmentMap{}, fmt.Errorf("read environment map: %w", err)
	}
	expanded := os.ExpandEnv(string(content))

	var m tracking.EnvironmentMap
	if err := yaml.Unmarshal([]byte(expanded), &m); err != nil {
		return tracking.EnvironmentMap{}, fmt.Errorf("decode environment map: %w", err)
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("yaml")
	})
	if err := validate.Struct(m); err != nil {
		return tracking.EnvironmentMap{}, fmt.Errorf("validate environment map: %w", err)
	}
	return m, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
