package recordstore

import (
	"context"

	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/foodorder-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

type pubsubOpener interface {
	Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error)
}

type relayClient interface {
	publisher
	pubsubOpener
}

// RedisRelay shares written paths between API instances over Redis pub/sub.
// Every instance, the writer included, notifies its subscribers when the
// message comes back.
type RedisRelay struct {
	pub   publisher
	sub   pubsubOpener
	store *Store
	logg  *logger.Logger
}

// NewRedisRelay wires the relay and installs it as the store's notifier.
func NewRedisRelay(client relayClient, store *Store, logg *logger.Logger) *RedisRelay {
	r := &RedisRelay{pub: client, sub: client, store: store, logg: logg}
	store.UseNotifier(r)
	return r
}

// Notify publishes path; when Redis is unreachable it falls back to local delivery.
func (r *RedisRelay) Notify(ctx context.Context, path string) {
	if err := r.pub.Publish(ctx, pkgredis.RecordsChannel, path); err != nil {
		if r.logg != nil {
			r.logg.Warn(r.logg.WithField(ctx, "record_path", path), "recordstore.relay_publish_failed")
		}
		r.store.Broadcast(path)
	}
}

// Run consumes relay messages until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	ps, err := r.sub.Subscribe(ctx, pkgredis.RecordsChannel)
	if err != nil {
		return err
	}
	defer ps.Close()
	if r.logg != nil {
		r.logg.Info(ctx, "recordstore.relay_started")
	}
	r.consume(ctx, ps.Channel())
	return nil
}

func (r *RedisRelay) consume(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			r.store.Broadcast(msg.Payload)
		}
	}
}
