// Package config reads termhubd's settings from the environment (with
// an optional .env file via joho/godotenv), following the teacher's
// env-var-first configuration idiom, plus an optional YAML file of
// session names to pre-create at startup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is termhubd's full runtime configuration.
type Config struct {
	Shell       string
	HTTPAddr    string
	SSHAddr     string
	DataDir     string
	SSHPassword string
	DefaultCols uint16
	DefaultRows uint16
	// Sessions is the list of names to create automatically at startup,
	// loaded from the YAML file named by TERMHUB_SESSIONS_FILE if set.
	Sessions []string
}

// seedFile is the on-disk shape of TERMHUB_SESSIONS_FILE.
type seedFile struct {
	Sessions []string `yaml:"sessions"`
}

// Load reads configuration from the environment, loading a .env file
// first if present (missing .env is not an error).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to load .env file")
	}

	cfg := &Config{
		Shell:       getEnv("TERMHUB_SHELL", defaultShell()),
		HTTPAddr:    getEnv("TERMHUB_HTTP_ADDR", ":8080"),
		SSHAddr:     getEnv("TERMHUB_SSH_ADDR", ":2222"),
		DataDir:     getEnv("TERMHUB_DATA_DIR", defaultDataDir()),
		SSHPassword: os.Getenv("TERMHUB_SSH_PASSWORD"),
		DefaultCols: getEnvUint16("TERMHUB_DEFAULT_COLS", 80),
		DefaultRows: getEnvUint16("TERMHUB_DEFAULT_ROWS", 24),
	}

	if cfg.SSHPassword == "" {
		return nil, fmt.Errorf("TERMHUB_SSH_PASSWORD must be set")
	}

	if path := os.Getenv("TERMHUB_SESSIONS_FILE"); path != "" {
		sessions, err := loadSeedFile(path)
		if err != nil {
			return nil, fmt.Errorf("sessions file %s: %w", path, err)
		}
		cfg.Sessions = sessions
	}

	return cfg, nil
}

func loadSeedFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Sessions, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvUint16(key string, def uint16) uint16 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Warn("invalid integer env var, using default")
		return def
	}
	return uint16(n)
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.termhub"
	}
	return "/var/lib/termhub"
}
