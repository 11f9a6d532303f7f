// Package redisstore keeps credentials in a Redis hash so several client processes can share one session.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-hms-client/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ credentials.Store = (*Store)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // hash key prefix, e.g. "hms:session"
	Name     string // session name appended to Prefix, "default" when empty
}

type Store struct {
	client redis.Cmdable
	key    string
}

// NewClient connects to a single Redis node and checks the connection
func NewClient(cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// New returns a store using client. The credentials live in one hash under Key().
func New(client redis.Cmdable, cfg Config) *Store {
	name := cfg.Name
	if name == "" {
		name = "default"
	}
	return &Store{client: client, key: fmt.Sprintf("%s:%s", cfg.Prefix, name)}
}

// Key returns the hash key holding the credentials
func (s *Store) Key() string {
	return s.key
}

func (s *Store) Load(ctx context.Context) (*credentials.Credentials, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[redisstore.Load] HGETALL")
	}
	return credentials.FromValues(values)
}

// Save replaces the hash inside MULTI/EXEC so no reader sees fields from two sessions
func (s *Store) Save(ctx context.Context, c *credentials.Credentials) error {
	values, err := c.Values()
	if err != nil {
		return err
	}
	fields := make([]any, 0, len(values)*2)
	for k, v := range values {
		fields = append(fields, k, v)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, fields...)
		return nil
	})
	return errors.Wrap(err, "[redisstore.Save] MULTI")
}

func (s *Store) Clear(ctx context.Context) error {
	return errors.Wrap(s.client.Del(ctx, s.key).Err(), "[redisstore.Clear] DEL")
}
