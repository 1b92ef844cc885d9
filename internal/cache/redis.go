package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/hotelbooking/config"
	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client   *redis.Client
	roomsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, roomsTTL time.Duration) *RedisCache {
	return newRedisCache(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), roomsTTL)
}

func newRedisCache(client *redis.Client, roomsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, roomsTTL: roomsTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetRooms returns nil without an error on a cache miss.
func (c *RedisCache) GetRooms(ctx context.Context) ([]domain.Room, error) {
	data, err := c.client.Get(ctx, roomsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var rooms []domain.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *RedisCache) SetRooms(ctx context.Context, rooms []domain.Room) error {
	payload, err := json.Marshal(rooms)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, roomsKey(), payload, c.roomsTTL).Err()
}

// StoreConfirmationCode keeps the hash of the latest code issued for a
// booking. A new code replaces the previous one and clears its wrong
// attempt counter.
func (c *RedisCache) StoreConfirmationCode(ctx context.Context, bookingID, hash string, ttl time.Duration) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, codeKey(bookingID), hash, ttl)
		pipe.Del(ctx, attemptsKey(bookingID))
		return nil
	})
	return err
}

// GetConfirmationCode reports false when no code is live for the booking.
func (c *RedisCache) GetConfirmationCode(ctx context.Context, bookingID string) (string, bool, error) {
	hash, err := c.client.Get(ctx, codeKey(bookingID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return hash, true, nil
}

func (c *RedisCache) DeleteConfirmationCode(ctx context.Context, bookingID string) error {
	return c.client.Del(ctx, codeKey(bookingID), attemptsKey(bookingID)).Err()
}

// RecordFailedAttempt returns the number of wrong codes entered for the
// booking. The counter lives no longer than ttl after the last attempt.
func (c *RedisCache) RecordFailedAttempt(ctx context.Context, bookingID string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, attemptsKey(bookingID))
		pipe.Expire(ctx, attemptsKey(bookingID), ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// AcquireResendCooldown succeeds once per ttl window for a booking.
func (c *RedisCache) AcquireResendCooldown(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, cooldownKey(bookingID), "1", ttl).Result()
}

func (c *RedisCache) ReleaseResendCooldown(ctx context.Context, bookingID string) error {
	return c.client.Del(ctx, cooldownKey(bookingID)).Err()
}

func roomsKey() string {
	return "cache:rooms"
}

func codeKey(bookingID string) string {
	return fmt.Sprintf("booking:%s:code", bookingID)
}

func attemptsKey(bookingID string) string {
	return fmt.Sprintf("booking:%s:attempts", bookingID)
}

func cooldownKey(bookingID string) string {
	return fmt.Sprintf("booking:%s:resend", bookingID)
}
