package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/motoshop/catalog/pkg/common/jsoncompat"
	"github.com/motoshop/catalog/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ChangeChannel = "favorites_changed"

// RedisStore keeps the favorites list of an owner under favorites:<owner> and
// announces every save on ChangeChannel with the owner as payload.
type RedisStore struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewRedisStore(client redis.UniversalClient, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func key(owner string) string {
	return "favorites:" + owner
}

func (s *RedisStore) Load(ctx context.Context, owner string) ([]types.Product, error) {
	data, err := s.client.Get(ctx, key(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []types.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("favorites: load %s: %w", owner, err)
	}
	list := make([]types.Product, 0)
	if err := jsoncompat.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("favorites: decode %s: %w", owner, err)
	}
	return list, nil
}

func (s *RedisStore) Save(ctx context.Context, owner string, list []types.Product) error {
	data, err := jsoncompat.Marshal(list)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(owner), data, 0).Err(); err != nil {
		return fmt.Errorf("favorites: save %s: %w", owner, err)
	}
	if err := s.client.Publish(ctx, ChangeChannel, owner).Err(); err != nil {
		s.logger.Warn("failed to publish favorites change", zap.String("owner", owner), zap.Error(err))
	}
	return nil
}

// Watch calls fn with the owner of every announced change until ctx is done.
func (s *RedisStore) Watch(ctx context.Context, fn func(owner string)) {
	pubsub := s.client.Subscribe(ctx, ChangeChannel)
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fn(msg.Payload)
			}
		}
	}()
}
