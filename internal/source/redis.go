package source

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// RedisSet streams the members of a Redis set with SSCAN, one page at a
// time. SSCAN may return a member more than once while the set is being
// modified; such duplicates are passed through like any other.
type RedisSet struct {
	client *redis.Client
	key    string
	count  int64
	owned  bool

	cursor  uint64
	page    []string
	started bool
}

// NewRedisSet scans key on client. client stays open after Close.
func NewRedisSet(client *redis.Client, key string, count int64) *RedisSet {
	if count <= 0 {
		count = 1000
	}
	return &RedisSet{client: client, key: key, count: count}
}

// OpenRedisSet connects to url (redis://...) and scans key. The client is
// closed together with the source.
func OpenRedisSet(ctx context.Context, url, key string, count int64) (*RedisSet, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	s := NewRedisSet(client, key, count)
	s.owned = true
	return s, nil
}

func (s *RedisSet) Next(ctx context.Context) (string, error) {
	for len(s.page) == 0 {
		if s.started && s.cursor == 0 {
			return "", io.EOF
		}
		keys, cursor, err := s.client.SScan(ctx, s.key, s.cursor, "", s.count).Result()
		if err != nil {
			return "", fmt.Errorf("SSCAN %s: %w", s.key, err)
		}
		s.started = true
		s.cursor = cursor
		s.page = keys
	}

	v := s.page[0]
	s.page = s.page[1:]
	return v, nil
}

func (s *RedisSet) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}
