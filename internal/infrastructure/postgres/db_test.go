package postgres

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/postgres/migrations"
)

func TestNewPoolWithConfigDefaults(t *testing.T) {
	ctx := context.Background()

	// using invalid URL should return error
	if _, err := NewPoolWithConfig(ctx, PoolConfig{DatabaseURL: "not-a-url"}); err == nil {
		t.Fatalf("expected error when parsing invalid URL")
	}
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx := context.Background()
	cfg := PoolConfig{
		DatabaseURL:    "postgres://invalid:5432/db",
		MaxConns:       1,
		ConnectTimeout: 200 * time.Millisecond,
	}

	_, err := NewPoolWithConfig(ctx, cfg)
	if err == nil {
		t.Fatalf("expected error when pool cannot connect")
	}
}

func TestConnectInvalidURLFailsFast(t *testing.T) {
	start := time.Now()
	_, err := Connect(context.Background(), PoolConfig{DatabaseURL: "not-a-url"}, time.Minute, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error for invalid URL")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("invalid URL should not be retried")
	}
}

func TestConnectStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	cfg := PoolConfig{DatabaseURL: "postgres://invalid:5432/db", ConnectTimeout: 100 * time.Millisecond}
	if _, err := Connect(ctx, cfg, time.Minute, zerolog.Nop()); err == nil {
		t.Fatalf("expected error when database stays unreachable")
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil || len(ups) == 0 {
		t.Fatalf("expected embedded up migrations, got %v (%v)", ups, err)
	}

	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(migrations.FS, down); err != nil {
			t.Errorf("migration %s has no down file", up)
		}
	}

	data, err := fs.ReadFile(migrations.FS, "000001_commit_audit.up.sql")
	if err != nil || !strings.Contains(string(data), "commit_audit") {
		t.Fatalf("expected commit_audit schema, got err=%v", err)
	}
}
