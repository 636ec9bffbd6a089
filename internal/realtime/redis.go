package realtime

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const changedMessage = "changed"

// RedisBroker fans notifications out through Redis pub/sub so that every
// server process sharing the database sees every write.
type RedisBroker struct {
	client *redis.Client
	prefix string
	log    *zap.Logger

	mu   sync.Mutex
	subs map[*redis.PubSub]struct{}
}

// NewRedisBroker wraps client. Channels are named "<prefix>:<ownerID>".
func NewRedisBroker(client *redis.Client, prefix string, log *zap.Logger) *RedisBroker {
	return &RedisBroker{
		client: client,
		prefix: prefix,
		log:    log.Named("realtime"),
		subs:   make(map[*redis.PubSub]struct{}),
	}
}

func (b *RedisBroker) channel(ownerID string) string {
	return b.prefix + ":" + ownerID
}

// Publish sends a change message on the owner's channel.
func (b *RedisBroker) Publish(ctx context.Context, ownerID string) error {
	return b.client.Publish(ctx, b.channel(ownerID), changedMessage).Err()
}

// Subscribe listens on the owner's channel until the returned function is called.
func (b *RedisBroker) Subscribe(ownerID string, onChange func()) func() {
	ps := b.client.Subscribe(context.Background(), b.channel(ownerID))

	b.mu.Lock()
	b.subs[ps] = struct{}{}
	b.mu.Unlock()

	go func() {
		for msg := range ps.Channel() {
			if msg.Payload != changedMessage {
				b.log.Warn("Ignoring unexpected message", zap.String("channel", msg.Channel), zap.String("payload", msg.Payload))
				continue
			}
			onChange()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ps)
			b.mu.Unlock()
			if err := ps.Close(); err != nil {
				b.log.Warn("Failed to close subscription", zap.Error(err))
			}
		})
	}
}

// Close ends every subscription and the client.
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	for ps := range b.subs {
		_ = ps.Close()
	}
	b.subs = make(map[*redis.PubSub]struct{})
	b.mu.Unlock()
	return b.client.Close()
}
