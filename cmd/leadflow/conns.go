package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/osr-alliance/backend-lib-leadflow/config"
	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/sirupsen/logrus"
)

type conns struct {
	write *sqlx.DB
	read  *sqlx.DB
	redis *redis.Client // nil when the cache is off
}

func createConns(ctx context.Context, c *config.Config) (*conns, error) {
	write, err := sqlx.ConnectContext(ctx, "postgres", c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	cn := &conns{write: write, read: write}
	if c.ReadURL() != c.DatabaseURL {
		cn.read, err = sqlx.ConnectContext(ctx, "postgres", c.ReadURL())
		if err != nil {
			write.Close()
			return nil, fmt.Errorf("connect to the postgres replica: %w", err)
		}
	}

	if c.NoCache {
		return cn, nil
	}
	cn.redis = redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := cn.redis.Ping(ctx).Err(); err != nil {
		cn.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", c.RedisAddr, err)
	}
	return cn, nil
}

func (cn *conns) store(c *config.Config) (store.Store, error) {
	return store.New(&store.Config{
		ReadConn:    cn.read,
		WriteConn:   cn.write,
		Redis:       cn.redis,
		ServiceName: c.ServiceName,
		Debugger:    c.Debug,

		ValidateQueries: c.ValidateQueries,
	})
}

func (cn *conns) Close() {
	if cn.redis != nil {
		if err := cn.redis.Close(); err != nil {
			logrus.WithError(err).Warn("closing redis")
		}
	}
	if cn.read != cn.write {
		cn.read.Close()
	}
	cn.write.Close()
}
