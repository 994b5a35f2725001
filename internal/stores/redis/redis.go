package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedup keys follow dedup:{consumer}:{id}; a key that already exists means
// the event was processed before.
const keyDedup = "dedup:%s:%s"

var ttlDedup = 48 * time.Hour

type Conf struct {
	client *redis.Client
}

func NewConf(addr string) *Conf {
	return &Conf{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// FirstDelivery records the event id and reports whether this is the first
// time it was seen. Repeat deliveries return false.
func (c *Conf) FirstDelivery(ctx context.Context, consumer, eventID string) (bool, error) {
	key := fmt.Sprintf(keyDedup, consumer, eventID)
	ok, err := c.client.SetNX(ctx, key, 1, ttlDedup).Result()
	if err != nil {
		return false, fmt.Errorf("setting dedup key: %w", err)
	}
	return ok, nil
}

func (c *Conf) Close() error {
	return c.client.Close()
}
