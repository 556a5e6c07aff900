package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisIndex keeps download entries in Redis hashes with a TTL equal to the
// result retention, so an entry disappears together with its bytes.
type RedisIndex struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

func NewRedisIndex(redisURL string, ttl time.Duration) (*RedisIndex, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisIndex{client: c, keyNS: "result", ttl: ttl}, nil
}

func (s *RedisIndex) key(name string) string { return fmt.Sprintf("%s:%s", s.keyNS, name) }

func (s *RedisIndex) Put(ctx context.Context, e Entry) error {
	m := map[string]interface{}{
		"original_name": e.OriginalName,
		"content_type":  e.ContentType,
		"size":          e.Size,
		"created":       e.Created.Format(time.RFC3339Nano),
	}
	k := s.key(e.Name)
	if err := s.client.HSet(ctx, k, m).Err(); err != nil {
		return err
	}
	if s.ttl > 0 {
		return s.client.Expire(ctx, k, s.ttl).Err()
	}
	return nil
}

func (s *RedisIndex) Get(ctx context.Context, name string) (Entry, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(name)).Result()
	if err != nil {
		return Entry{}, false, err
	}
	if len(res) == 0 {
		return Entry{}, false, nil
	}
	e := Entry{Name: name}
	e.OriginalName = res["original_name"]
	e.ContentType = res["content_type"]
	if v := res["size"]; v != "" {
		e.Size, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := res["created"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			e.Created = t
		}
	}
	return e, true, nil
}

// Ping checks redis connectivity.
func (s *RedisIndex) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisIndex) Close() error { return s.client.Close() }
