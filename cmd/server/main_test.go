package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/config"
)

// execute runs the root command in a clean temp directory and returns the
// configuration handed to the server.
func execute(t *testing.T, dir string, args ...string) (*config.Config, error) {
	t.Helper()
	t.Chdir(dir)
	for _, key := range []string{"JOURNAL_FILES", "STAGING_FILES", "STAGING_COMMAND", "HTTP_PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	var got *config.Config
	orig := runServer
	runServer = func(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
		got = cfg
		return nil
	}
	t.Cleanup(func() { runServer = orig })

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetErr(&discard{})
	err := cmd.Execute()
	return got, err
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestFlagsOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := execute(t, dir, "-j", "main.beancount", "-j", "other.beancount", "-s", "bank.beancount", "-p", "9000")
	require.NoError(t, err)

	assert.Equal(t, []string{"main.beancount", "other.beancount"}, cfg.JournalFiles)
	assert.Equal(t, []string{"bank.beancount"}, cfg.StagingFiles)
	assert.Empty(t, cfg.StagingCommand)
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestStagingCommandFlag(t *testing.T) {
	cfg, err := execute(t, t.TempDir(), "-j", "main.beancount", "--staging-command", "bank-export", "--staging-command", "--since=2025-01-01")
	require.NoError(t, err)

	assert.Equal(t, []string{"bank-export", "--since=2025-01-01"}, cfg.StagingCommand)
	assert.Empty(t, cfg.StagingFiles)
}

func TestProjectFileFillsMissingSources(t *testing.T) {
	dir := t.TempDir()
	project := "journal:\n  files: [main.beancount]\nstaging:\n  files: [staging/bank.beancount]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beancount-staging.yaml"), []byte(project), 0o644))

	cfg, err := execute(t, dir)
	require.NoError(t, err)

	// t.Chdir may resolve symlinks, so compare against the directory the
	// command actually saw.
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(wd, "main.beancount")}, cfg.JournalFiles)
	assert.Equal(t, []string{filepath.Join(wd, "staging", "bank.beancount")}, cfg.StagingFiles)
	assert.Equal(t, "8472", cfg.HTTPPort)
}

func TestExplicitConfigFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review.yaml")
	require.NoError(t, os.WriteFile(path, []byte("journal:\n  files: [/ledger/main.beancount]\nstaging:\n  command: [fetch, --json]\n"), 0o644))

	cfg, err := execute(t, t.TempDir(), "--config", path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/ledger/main.beancount"}, cfg.JournalFiles)
	assert.Equal(t, []string{"fetch", "--json"}, cfg.StagingCommand)
	assert.Equal(t, dir, cfg.BaseDir)
}

func TestMissingSourcesFail(t *testing.T) {
	_, err := execute(t, t.TempDir())
	assert.ErrorIs(t, err, config.ErrNoJournal)

	_, err = execute(t, t.TempDir(), "-j", "main.beancount")
	assert.ErrorIs(t, err, domain.ErrStagingSourceSet)
}
