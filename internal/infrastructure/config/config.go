package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

// ProjectFileNames are looked up, in order, in the working directory.
var ProjectFileNames = []string{"beancount-staging.yaml", ".beancount-staging.yaml"}

// ErrNoJournal is returned when no journal file is configured anywhere.
var ErrNoJournal = errors.New("at least one journal file is required")

// Config holds all application configuration.
type Config struct {
	// Sources
	JournalFiles   []string `env:"JOURNAL_FILES"   envSeparator:","`
	StagingFiles   []string `env:"STAGING_FILES"   envSeparator:","`
	StagingCommand []string `env:"STAGING_COMMAND" envSeparator:" "`
	// BaseDir is the working directory for the staging command. It is the
	// project file's directory when sources came from one.
	BaseDir string `env:"-"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8472"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Rate limiting of mutating API calls per client IP (0 disables)
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Commit audit log (optional - leave empty to disable)
	DatabaseURL      string        `env:"DATABASE_URL"       envDefault:""`
	DatabaseMaxConns int           `env:"DATABASE_MAX_CONNS" envDefault:"5"`
	DatabaseTimeout  time.Duration `env:"DATABASE_TIMEOUT"   envDefault:"30s"`
	MigrationsPath   string        `env:"MIGRATIONS_PATH"    envDefault:""`

	// Idempotency (optional - leave empty to disable)
	RedisURL       string        `env:"REDIS_URL"       envDefault:""`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

// Load loads configuration from a .env file, if present, and environment
// variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ProjectFile is the on-disk project configuration.
type ProjectFile struct {
	Journal struct {
		Files []string `yaml:"files"`
	} `yaml:"journal"`
	Staging struct {
		Files   []string `yaml:"files"`
		Command []string `yaml:"command"`
	} `yaml:"staging"`
}

// LoadProjectFile parses a project file. Unknown keys are rejected.
func LoadProjectFile(path string) (*ProjectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var pf ProjectFile
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &pf, nil
}

// FindProjectFile returns the first project file present in dir.
func FindProjectFile(dir string) (string, bool) {
	for _, name := range ProjectFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// ApplyProjectFile fills the sources from the project file at path. Sources
// already set from the environment or flags win. Relative paths are resolved
// against the project file's directory.
func (c *Config) ApplyProjectFile(path string) error {
	pf, err := LoadProjectFile(path)
	if err != nil {
		return err
	}
	if len(pf.Staging.Files) > 0 && len(pf.Staging.Command) > 0 {
		return fmt.Errorf("config file %s: %w", path, domain.ErrStagingSourceSet)
	}

	base := filepath.Dir(path)
	if len(c.JournalFiles) == 0 {
		c.JournalFiles = resolve(base, pf.Journal.Files)
	}
	if len(c.StagingFiles) == 0 && len(c.StagingCommand) == 0 {
		c.StagingFiles = resolve(base, pf.Staging.Files)
		c.StagingCommand = pf.Staging.Command
		c.BaseDir = base
	}
	return nil
}

func resolve(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		out = append(out, p)
	}
	return out
}

// Validate checks that the sources are usable.
func (c *Config) Validate() error {
	if len(c.JournalFiles) == 0 {
		return ErrNoJournal
	}
	if (len(c.StagingFiles) > 0) == (len(c.StagingCommand) > 0) {
		return domain.ErrStagingSourceSet
	}
	return nil
}
