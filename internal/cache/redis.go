package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avilov/drivebook/config"
	"github.com/avilov/drivebook/internal/schedule"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client   *redis.Client
	slotsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, slotsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		slotsTTL: slotsTTL,
	}
}

// GetDaySlots returns the cached free slots for an instructor's day, or
// nil on a miss.
func (c *RedisCache) GetDaySlots(ctx context.Context, instructorID int64, date time.Time) (*schedule.DaySlots, error) {
	data, err := c.client.Get(ctx, daySlotsKey(instructorID, date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var slots schedule.DaySlots
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, err
	}
	return &slots, nil
}

func (c *RedisCache) SetDaySlots(ctx context.Context, instructorID int64, date time.Time, slots *schedule.DaySlots) error {
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, daySlotsKey(instructorID, date), payload, c.slotsTTL).Err()
}

// InvalidateDaySlots drops the cached day after a booking mutation.
func (c *RedisCache) InvalidateDaySlots(ctx context.Context, instructorID int64, date time.Time) error {
	return c.client.Del(ctx, daySlotsKey(instructorID, date)).Err()
}

// AcquireSlotHold takes a short-lived hold on an instructor's slot while
// the booking insert is in flight. The store's unique index remains the
// final arbiter; the hold only keeps two students from racing through
// checkout for the same hour.
func (c *RedisCache) AcquireSlotHold(ctx context.Context, instructorID int64, date time.Time, hour int, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, slotHoldKey(instructorID, date, hour), "held", ttl).Result()
}

func (c *RedisCache) ReleaseSlotHold(ctx context.Context, instructorID int64, date time.Time, hour int) error {
	return c.client.Del(ctx, slotHoldKey(instructorID, date, hour)).Err()
}

func daySlotsKey(instructorID int64, date time.Time) string {
	return fmt.Sprintf("cache:slots:%d:%s", instructorID, date.Format("2006-01-02"))
}

func slotHoldKey(instructorID int64, date time.Time, hour int) string {
	return fmt.Sprintf("hold:slot:%d:%s:%d", instructorID, date.Format("2006-01-02"), hour)
}
