package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient starts an in-memory Redis for one test. The client is
// closed when the test ends.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// seedDrafts saves drafts for the given IDs, all with the same account.
func seedDrafts(t *testing.T, store *DraftStore, account string, ids ...string) {
	t.Helper()

	for _, id := range ids {
		if err := store.Save(context.Background(), id, account); err != nil {
			t.Fatalf("save %s failed: %v", id, err)
		}
	}
}
