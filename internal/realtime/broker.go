// Package realtime fans out "trades changed" notifications per owner.
// Notifications carry no payload: subscribers are expected to reload.
package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"trading-journal/internal/config"
)

// Broker delivers change notifications for an owner's trades.
//
// Callbacks run on the publishing goroutine (local) or on a per-subscription
// goroutine (redis) and must not block.
type Broker interface {
	Publish(ctx context.Context, ownerID string) error
	Subscribe(ownerID string, onChange func()) (unsubscribe func())
	Close() error
}

// NewBroker builds the broker selected by cfg.Backend.
func NewBroker(ctx context.Context, cfg config.Realtime, log *zap.Logger) (Broker, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalBroker(log), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisBroker(client, cfg.ChannelPrefix, log), nil
	default:
		return nil, fmt.Errorf("unsupported realtime backend: %s", cfg.Backend)
	}
}
