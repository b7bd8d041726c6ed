package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/postgres"
)

// Journal is a small ledger with one recorded transaction.
const Journal = `2024-01-01 open Assets:Checking EUR
2024-01-01 open Expenses:Groceries EUR
2024-01-01 open Expenses:Coffee EUR

2024-01-15 * "Grocery Store" "Weekly shopping"
  Assets:Checking  -45.20 EUR
  Expenses:Groceries
`

// Staging holds the recorded transaction plus two new ones.
const Staging = `2024-01-15 ! "Grocery Store" "Weekly shopping"
  Assets:Checking  -45.20 EUR

2024-01-16 ! "Coffee Shop" "Morning coffee"
  Assets:Checking  -3.50 EUR

2024-01-17 ! "Bakery" "Bread"
  Assets:Checking  -4.10 EUR
`

// Workspace is a temporary directory holding a journal and a staging file.
type Workspace struct {
	Dir     string
	Journal string
	Staging string
	t       *testing.T
}

// NewWorkspace writes Journal and Staging into a fresh temp directory.
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()

	dir := t.TempDir()
	ws := &Workspace{
		Dir:     dir,
		Journal: filepath.Join(dir, "journal.beancount"),
		Staging: filepath.Join(dir, "staging.beancount"),
		t:       t,
	}
	ws.WriteJournal(Journal)
	ws.WriteStaging(Staging)
	return ws
}

// WriteJournal replaces the journal contents.
func (w *Workspace) WriteJournal(content string) {
	w.t.Helper()
	if err := os.WriteFile(w.Journal, []byte(content), 0o644); err != nil {
		w.t.Fatalf("failed to write journal: %v", err)
	}
}

// WriteStaging replaces the staging contents.
func (w *Workspace) WriteStaging(content string) {
	w.t.Helper()
	if err := os.WriteFile(w.Staging, []byte(content), 0o644); err != nil {
		w.t.Fatalf("failed to write staging: %v", err)
	}
}

// ReadJournal returns the current journal contents.
func (w *Workspace) ReadJournal() string {
	w.t.Helper()
	data, err := os.ReadFile(w.Journal)
	if err != nil {
		w.t.Fatalf("failed to read journal: %v", err)
	}
	return string(data)
}

// NewTestRedis starts an in-memory Redis and returns a client for it.
func NewTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the embedded migrations.
// The test is skipped when DATABASE_URL is not set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.RunMigrations(dbURL, "", zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	t.Cleanup(db.Cleanup)
	return db
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()
	if _, err := db.Pool.Exec(ctx, "TRUNCATE TABLE commit_audit"); err != nil {
		db.t.Fatalf("failed to truncate: %v", err)
	}
}
