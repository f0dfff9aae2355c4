// Package config reads process configuration from SHOWCASE_* environment
// variables.
package config

import (
	"fmt"
	"io"
	stlog "log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// Prefix is prepended to every variable name.
const Prefix = "SHOWCASE_"

// Showcase configures the game client.
type Showcase struct {
	BasePath     string `env:"BASE_PATH"`
	AssetDir     string `env:"ASSET_DIR" envDefault:"public"`
	ManifestPath string `env:"MANIFEST_PATH"`
	ServerURL    string `env:"SERVER_URL"`
	// UserID is generated when unset.
	UserID       string `env:"USER_ID"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr  string `env:"METRICS_ADDR"`

	DialAttempts         uint          `env:"DIAL_ATTEMPTS" envDefault:"5"`
	AuthTimeout          time.Duration `env:"AUTH_TIMEOUT" envDefault:"10s"`
	LoadRetries          uint          `env:"LOAD_RETRIES" envDefault:"0"`
	MaxConcurrentFetches int           `env:"MAX_CONCURRENT_FETCHES" envDefault:"8"`
}

// Lobby configures the lobby server.
type Lobby struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	PprofAddr string `env:"PPROF_ADDR" envDefault:"localhost:6060"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadShowcase parses the client configuration from the process environment.
func LoadShowcase() (Showcase, error) {
	return ParseShowcase(nil)
}

// ParseShowcase parses the client configuration from environ, or from the
// process environment when environ is nil.
func ParseShowcase(environ map[string]string) (Showcase, error) {
	var cfg Showcase
	if err := ParseEnv(&cfg, environ); err != nil {
		return cfg, err
	}
	if strings.TrimSpace(cfg.UserID) == "" {
		cfg.UserID = uuid.NewString()
	}
	return cfg, nil
}

// LoadLobby parses the server configuration from the process environment.
func LoadLobby() (Lobby, error) {
	var cfg Lobby
	return cfg, ParseEnv(&cfg, nil)
}

// ParseEnv fills target from environ, or from the process environment when
// environ is nil.
func ParseEnv(target any, environ map[string]string) error {
	opts := env.Options{Prefix: Prefix, Environment: environ}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to a slog level.
func ParseLevel(s string) (stlog.Level, error) {
	var level stlog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return stlog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewLogger returns a JSON logger writing to w. The returned LevelVar starts
// at level and may be changed while the process runs; an unknown level falls
// back to info.
func NewLogger(w io.Writer, level string) (*stlog.Logger, *stlog.LevelVar) {
	var leveler stlog.LevelVar
	if l, err := ParseLevel(level); err == nil {
		leveler.Set(l)
	}
	return stlog.New(stlog.NewJSONHandler(w, &stlog.HandlerOptions{Level: &leveler})), &leveler
}
