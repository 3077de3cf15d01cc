// Package cache provides the Redis-backed balance cache. The database stays
// authoritative; balances are written through on reads and invalidated on
// every mutation so other consumers never see a stale value survive a
// transfer.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fundlink/internal/money"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

const balanceTTL = 5 * time.Minute

// BalanceCache caches account balances in paise.
type BalanceCache struct {
	client *redis.Client
}

func NewBalanceCache(client *redis.Client) *BalanceCache {
	return &BalanceCache{client: client}
}

func balanceKey(accountID uint) string {
	return fmt.Sprintf("account:balance:%d", accountID)
}

func (c *BalanceCache) SetBalance(ctx context.Context, accountID uint, balance money.Amount) error {
	return c.client.Set(ctx, balanceKey(accountID), strconv.FormatInt(balance.Paise(), 10), balanceTTL).Err()
}

func (c *BalanceCache) Invalidate(ctx context.Context, accountID uint) error {
	return c.client.Del(ctx, balanceKey(accountID)).Err()
}

// InvalidateAll drops every cached balance, used by the data reset flow.
func (c *BalanceCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "account:balance:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// HealthCheck pings Redis.
func (c *BalanceCache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (c *BalanceCache) Close() error {
	return c.client.Close()
}
