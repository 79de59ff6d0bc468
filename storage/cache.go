package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

type cache struct {
	*redis.Client
}

func newCache(conn *redis.Client) *cache {
	if conn == nil {
		return nil
	}
	return &cache{
		conn,
	}
}

func (c *cache) get(ctx context.Context, key string, value interface{}) error {
	str, err := c.Get(ctx, key).Result()
	if err != nil {
		// returns err redis.Nil if key does not exist
		return err
	}

	return json.Unmarshal([]byte(str), value)
}

func (c *cache) set(ctx context.Context, key string, value interface{}, expiration int) error {
	str, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, str, time.Duration(expiration)*time.Second).Err()
}

// getList reads one page of a list; the pages of a list all live in a single hash so one Del invalidates them all
func (c *cache) getList(ctx context.Context, key string, field string, dest interface{}) error {
	str, err := c.HGet(ctx, key, field).Result()
	if err != nil {
		return err // most likely a redis.Nil
	}

	return json.Unmarshal([]byte(str), dest)
}

func (c *cache) setList(ctx context.Context, key string, field string, value interface{}, expiration int) error {
	str, err := json.Marshal(value)
	if err != nil {
		return err
	}

	pipe := c.TxPipeline()
	pipe.HSet(ctx, key, field, str)
	if expiration > 0 {
		pipe.Expire(ctx, key, time.Duration(expiration)*time.Second)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (c *cache) del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	// As Logan says: deleting the key is never the wrong move.
	return c.Del(ctx, keys...).Err()
}
