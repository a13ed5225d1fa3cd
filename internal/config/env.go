package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
)

// Environment variables recognized on top of the configuration file.
const (
	EnvOnly       = "REPORTSITE_ONLY"
	EnvSkipTopics = "REPORTSITE_SKIP_TOPICS"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env/.env.local when present. Variables already set in
// the process environment are not overridden.
func loadEnvFiles() {
	for _, path := range envFiles {
		err := godotenv.Load(path)
		switch {
		case err == nil:
			slog.Debug("Loaded environment file", "path", path)
		case errors.Is(err, fs.ErrNotExist):
		default:
			slog.Warn("Ignoring unreadable environment file", "path", path, "error", err)
		}
	}
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvOnly); ok && v != "" {
		cfg.Debug.Only = v
	}
	if v, ok := os.LookupEnv(EnvSkipTopics); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return berrors.ConfigInvalid(EnvSkipTopics, fmt.Sprintf("not a boolean: %q", v))
		}
		cfg.Debug.SkipTopics = &b
	}
	return nil
}
