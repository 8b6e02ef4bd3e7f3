package redis

import (
	"context"
	"fmt"
	"github.com/redis/go-redis/v9"
	"magal/internal/config"
	"time"
)

type Client interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

func NewClient(ctx context.Context, sc config.StorageRedis) (client *redis.Client, err error) {
	attempts := sc.Attempts
	if attempts < 1 {
		attempts = 1
	}

	// Попытки подключиться с повторениями в случае неудачи
	err = doWithTries(ctx, func() error {
		// Создаем новый контекст с таймаутом
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", sc.Host, sc.Port),
			Password: sc.Password,
			DB:       sc.DB,
		})

		if _, err := client.Ping(ctx).Result(); err != nil {
			_ = client.Close()
			return err
		}
		return nil
	}, attempts, sc.RetryDelay)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", attempts, err)
	}

	return client, nil
}

func doWithTries(ctx context.Context, fn func() error, attempts int, delay time.Duration) (err error) {
	for attempts > 0 {
		if err = fn(); err == nil {
			return nil
		}

		attempts--
		if attempts == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
