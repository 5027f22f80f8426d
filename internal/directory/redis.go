package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listingKeyPrefix = "listing:"
	listingIndexKey  = "listings"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := conn.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: conn}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Publish(ctx context.Context, l Listing) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	listingJSON, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("could not marshal listing: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, listingKeyPrefix+l.MatchID, listingJSON, ListingTTL)
		pipe.SAdd(ctx, listingIndexKey, l.MatchID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish listing: %w", err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context) ([]Listing, error) {
	ids, err := r.client.SMembers(ctx, listingIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing index: %w", err)
	}
	if len(ids) == 0 {
		return []Listing{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = listingKeyPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}

	list := make([]Listing, 0, len(values))
	var stale []interface{}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// the listing key expired; drop it from the index
			stale = append(stale, ids[i])
			continue
		}
		var l Listing
		if err := json.Unmarshal([]byte(s), &l); err != nil {
			stale = append(stale, ids[i])
			continue
		}
		list = append(list, l)
	}

	if len(stale) > 0 {
		if err := r.client.SRem(ctx, listingIndexKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune listing index: %w", err)
		}
	}

	sortListings(list)
	return list, nil
}

func (r *RedisStore) Remove(ctx context.Context, matchID string) error {
	var deleted *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, listingKeyPrefix+matchID)
		pipe.SRem(ctx, listingIndexKey, matchID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove listing: %w", err)
	}
	if deleted.Val() == 0 {
		return ErrNotFound
	}
	return nil
}
