package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindfulkids-backend/internal/config"
)

var RedisClient *redis.Client

// RedisOptions parses the URI and applies the configured pool. Zero pool values keep the
// go-redis defaults.
func RedisOptions(uri string, pool config.RedisPool) (*redis.Options, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}
	if pool.PoolSize > 0 {
		opt.PoolSize = pool.PoolSize
	}
	if pool.MinIdleConns > 0 {
		opt.MinIdleConns = pool.MinIdleConns
	}
	if pool.MaxRetries != 0 {
		opt.MaxRetries = pool.MaxRetries
	}
	if pool.DialTimeout > 0 {
		opt.DialTimeout = pool.DialTimeout
	}
	if pool.IOTimeout > 0 {
		opt.ReadTimeout = pool.IOTimeout
		opt.WriteTimeout = pool.IOTimeout
	}
	if pool.PoolTimeout > 0 {
		opt.PoolTimeout = pool.PoolTimeout
	}
	if pool.MaxIdleTime > 0 {
		opt.ConnMaxIdleTime = pool.MaxIdleTime
	}
	return opt, nil
}

// ConnectRedis opens the shared client and pings it within the dial timeout.
func ConnectRedis(uri string, pool config.RedisPool) error {
	opt, err := RedisOptions(uri, pool)
	if err != nil {
		return err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), opt.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis at %s: %w", opt.Addr, err)
	}

	RedisClient = client
	zap.L().Info("✅ Connected to Redis", zap.String("addr", opt.Addr), zap.Int("db", opt.DB), zap.Int("pool_size", opt.PoolSize))
	return nil
}

// DisconnectRedis closes the Redis connection
func DisconnectRedis() error {
	if RedisClient == nil {
		return nil
	}
	err := RedisClient.Close()
	RedisClient = nil
	return err
}
