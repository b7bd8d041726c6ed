package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// DraftStore implements usecase.DraftStore as a single Redis hash keyed by
// pending item ID.
type DraftStore struct {
	client *redis.Client
	key    string
}

// NewDraftStore creates a new DraftStore. namespace separates the drafts of
// different ledgers sharing one Redis.
func NewDraftStore(client *redis.Client, namespace string) *DraftStore {
	return &DraftStore{
		client: client,
		key:    "beancount-staging:drafts:" + namespace,
	}
}

// Load returns every stored draft.
func (s *DraftStore) Load(ctx context.Context) (map[string]string, error) {
	return s.client.HGetAll(ctx, s.key).Result()
}

// Save stores one draft.
func (s *DraftStore) Save(ctx context.Context, id, account string) error {
	return s.client.HSet(ctx, s.key, id, account).Err()
}

// Delete removes drafts.
func (s *DraftStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.client.HDel(ctx, s.key, ids...).Err()
}
