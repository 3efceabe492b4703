package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients holds the two connections the service uses: a general client
// for reconciliation pings and publishing user notices, and a dedicated
// subscriber connection for the websocket hub.
type RedisClients struct {
	General *redis.Client
	PubSub  *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	general := redis.NewClient(opt)
	if err := general.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	subOpt := *opt
	pubsub := redis.NewClient(&subOpt)
	if err := pubsub.Ping(ctx).Err(); err != nil {
		general.Close()
		return nil, fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}

	return &RedisClients{General: general, PubSub: pubsub}, nil
}

func (r *RedisClients) Close() {
	r.General.Close()
	r.PubSub.Close()
}
