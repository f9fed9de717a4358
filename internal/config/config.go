package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the client. It is loaded once at
// startup and treated as immutable afterwards.
type Config struct {
	// API configures the MokoMoko REST API connection.
	API APIConfig `envPrefix:"MOKOMOKO_API_"`

	// Identity configures the external identity provider.
	Identity IdentityConfig `envPrefix:"MOKOMOKO_IDENTITY_"`

	// SessionDir is where the encrypted session cache lives.
	SessionDir string `env:"MOKOMOKO_SESSION_DIR" envDefault:"~/.mokomoko"`

	Debug bool `env:"MOKOMOKO_DEBUG" envDefault:"false"`
}

type APIConfig struct {
	BaseURL string        `env:"URL" envDefault:"http://localhost:3000/api/v1"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type IdentityConfig struct {
	// Endpoint is the identity-toolkit style REST endpoint used for
	// sign-in, sign-up and password-reset mail dispatch.
	Endpoint string `env:"URL" envDefault:"https://identitytoolkit.googleapis.com/v1"`

	// TokenEndpoint exchanges a refresh token for a fresh ID token.
	TokenEndpoint string `env:"TOKEN_URL" envDefault:"https://securetoken.googleapis.com/v1"`

	// APIKey is the provider web API key appended to every identity call.
	APIKey string `env:"API_KEY"`

	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	// A missing .env is the normal case; only real read errors matter.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	dir, err := expandHome(cfg.SessionDir)
	if err != nil {
		return nil, err
	}
	cfg.SessionDir = dir

	return cfg, nil
}

func expandHome(path string) (string, error) {
	if len(path) < 2 || path[:2] != "~/" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
