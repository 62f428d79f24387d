package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config selects the Redis instance holding session records.
type Config struct {
	Addr     string
	DB       int
	Password string
	// Timeout bounds dialing, each command and the startup ping. Zero means 5s.
	Timeout time.Duration
}

func (c Config) options() *redis.Options {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &redis.Options{
		Addr:         c.Addr,
		DB:           c.DB,
		Password:     c.Password,
		ClientName:   "valet-site",
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

// Connect opens a client and refuses to return it until the server answers.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts := cfg.options()
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Addr, err)
	}
	return rdb, nil
}
