package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	redis2 "github.com/redis/go-redis/v9"
	"magal/internal/model"
	"magal/internal/storage"
	"magal/pkg/client/redis"
)

// setIfPresent writes KEYS[1] only while KEYS[2] exists, so a partial
// update never creates half a session.
const setIfPresent = `
if redis.call("EXISTS", KEYS[2]) == 0 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1])
return 1
`

type repositoryRedis struct {
	Client   redis.Client
	tokenKey string
	userKey  string
}

// NewRepositoryRedis returns a Store keeping the session under prefix +
// storage.TokenKey and prefix + storage.UserKey.
func NewRepositoryRedis(client redis.Client, prefix string) storage.Store {
	return &repositoryRedis{
		Client:   client,
		tokenKey: prefix + storage.TokenKey,
		userKey:  prefix + storage.UserKey,
	}
}

func (r *repositoryRedis) Load(ctx context.Context) (storage.Snapshot, error) {
	vals, err := r.Client.MGet(ctx, r.tokenKey, r.userKey).Result()
	if err != nil {
		return storage.Snapshot{}, unavailable("mget", err)
	}

	token, _ := vals[0].(string)
	rawUser, _ := vals[1].(string)
	if token == "" || rawUser == "" {
		return storage.Snapshot{}, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return storage.Snapshot{}, unavailable("decode user", err)
	}

	return storage.Snapshot{Token: token, User: &user}, nil
}

func (r *repositoryRedis) Save(ctx context.Context, token string, user *model.User) error {
	if token == "" || user == nil {
		return storage.ErrIncomplete
	}

	data, err := json.Marshal(user)
	if err != nil {
		return unavailable("encode user", err)
	}

	_, err = r.Client.TxPipelined(ctx, func(pipe redis2.Pipeliner) error {
		pipe.Set(ctx, r.tokenKey, token, 0)
		pipe.Set(ctx, r.userKey, data, 0)
		return nil
	})
	if err != nil {
		return unavailable("save session", err)
	}

	return nil
}

func (r *repositoryRedis) Token(ctx context.Context) (string, error) {
	snap, err := r.Load(ctx)
	return snap.Token, err
}

func (r *repositoryRedis) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return r.Clear(ctx)
	}
	return r.setIfPresent(ctx, r.tokenKey, r.userKey, token)
}

func (r *repositoryRedis) User(ctx context.Context) (*model.User, error) {
	snap, err := r.Load(ctx)
	return snap.User, err
}

func (r *repositoryRedis) SetUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return r.Clear(ctx)
	}

	data, err := json.Marshal(user)
	if err != nil {
		return unavailable("encode user", err)
	}
	return r.setIfPresent(ctx, r.userKey, r.tokenKey, string(data))
}

func (r *repositoryRedis) Clear(ctx context.Context) error {
	if err := r.Client.Del(ctx, r.tokenKey, r.userKey).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

func (r *repositoryRedis) Close() error {
	return r.Client.Close()
}

func (r *repositoryRedis) setIfPresent(ctx context.Context, key, other, value string) error {
	written, err := r.Client.Eval(ctx, setIfPresent, []string{key, other}, value).Int()
	if err != nil && !errors.Is(err, redis2.Nil) {
		return unavailable("eval", err)
	}
	if written == 0 {
		return storage.ErrNoSession
	}
	return nil
}

func unavailable(step string, err error) error {
	return fmt.Errorf("%w: redis %s: %v", storage.ErrUnavailable, step, err)
}
