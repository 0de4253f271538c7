// Package config loads and validates the runtime configuration for the backend.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/auth"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/envconfig"
)

// Config encapsulates the runtime configuration for the backend process.
type Config struct {
	Port        string `validate:"required"`
	Environment string
	Auth        AuthConfig
	Storage     StorageConfig
	LLM         LLMConfig
}

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     auth.Mode
	Secret   string
	TokenTTL time.Duration
}

// StorageConfig selects the persistence backend and carries the object-storage
// settings. The remote backend is only considered configured when the
// credential pair and bucket are all present.
type StorageConfig struct {
	UseS3           bool
	UsersFile       string `validate:"required"`
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
}

// LLMConfig defines how the chat assistant talks to the model API.
type LLMConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int `validate:"gt=0"`
}

// RemoteConfigured reports whether the object-storage backend has enough
// configuration to attempt remote operations.
func (s StorageConfig) RemoteConfigured() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != "" && s.Bucket != ""
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        envconfig.Get("PORT", "8080"),
		Environment: envconfig.Get("APP_ENV", "development"),
		Auth: AuthConfig{
			Mode:     auth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(auth.ModeNoop)))),
			Secret:   envconfig.Get("AUTH_JWT_SECRET", ""),
			TokenTTL: time.Duration(envconfig.GetInt("AUTH_TOKEN_TTL_MINUTES", 60)) * time.Minute,
		},
		Storage: StorageConfig{
			UseS3:           envconfig.GetBool("USE_S3_STORAGE", false),
			UsersFile:       envconfig.Get("USERS_FILE", "users.json"),
			Region:          envconfig.Get("AWS_REGION", "us-east-1"),
			AccessKeyID:     envconfig.Get("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: envconfig.Get("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:          envconfig.Get("AWS_S3_BUCKET_NAME", ""),
			Endpoint:        envconfig.Get("AWS_S3_ENDPOINT", ""),
		},
		LLM: LLMConfig{
			APIKey:          resolveAPIKey(),
			Model:           envconfig.Get("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxOutputTokens: envconfig.GetInt("CHAT_MAX_OUTPUT_TOKENS", 400),
		},
	}

	if err := envconfig.Validate(cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Auth.Mode {
	case auth.ModeHS256:
		if cfg.Auth.Secret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=hs256")
		}
	case auth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	if cfg.Storage.UseS3 && !cfg.Storage.RemoteConfigured() {
		return fmt.Errorf("USE_S3_STORAGE=true requires AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_S3_BUCKET_NAME")
	}

	return nil
}

func resolveAPIKey() string {
	if apiKey := envconfig.Get("GEMINI_API_KEY", ""); strings.TrimSpace(apiKey) != "" {
		return apiKey
	}
	return envconfig.Get("GOOGLE_API_KEY", "")
}
