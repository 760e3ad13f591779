package redis

import (
	"context"
	"fmt"
	"time"

	"lunch-voting/internal/config"
	"lunch-voting/internal/logger"

	"github.com/go-redis/redis/v8"
)

// Connect builds a client and checks it with a PING.
func Connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: "", // no password
		DB:       0,  // use default DB
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis at %s: %v", cfg.Addr, err))
		return nil, err
	}

	log.Info("REDIS", fmt.Sprintf("Successfully connected to Redis at %s for vote caching", cfg.Addr))
	return client, nil
}

// Cache remembers which (user, menu) pairs already hold a vote so repeat
// attempts skip the database. Entries expire after TTL.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: client, TTL: ttl}
}

func votedKey(userID string, menuID int64) string {
	return fmt.Sprintf("vote:voted:%d:%s", menuID, userID)
}

func (c *Cache) HasVoted(ctx context.Context, userID string, menuID int64) (bool, error) {
	n, err := c.Client.Exists(ctx, votedKey(userID, menuID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Cache) MarkVoted(ctx context.Context, userID string, menuID int64) error {
	return c.Client.Set(ctx, votedKey(userID, menuID), "1", c.TTL).Err()
}
