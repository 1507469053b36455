// Package cache — кеш рассчитанных слотов доступности в Redis.
// Кеш опционален: nil *SlotCache отключает кеширование без ветвлений
// у вызывающего кода.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type SlotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSlotCache(rdb *redis.Client, ttl time.Duration) *SlotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SlotCache{rdb: rdb, ttl: ttl}
}

func slotKey(tenantID, employeeID uuid.UUID, date time.Time, durationMin int) string {
	return fmt.Sprintf("slots:%s:%s:%s:%d", tenantID, employeeID, date.Format("2006-01-02"), durationMin)
}

// Get возвращает закешированный список слотов, ok=false при промахе.
// Ошибки Redis считаются промахом: кеш не должен ломать чтение доступности.
func (c *SlotCache) Get(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	date time.Time,
	durationMin int,
) ([]time.Time, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, slotKey(tenantID, employeeID, date, durationMin)).Result()
	if err != nil {
		return nil, false
	}
	var slots []time.Time
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (c *SlotCache) Set(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	date time.Time,
	durationMin int,
	slots []time.Time,
) {
	if c == nil {
		return
	}
	body, err := json.Marshal(slots)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, slotKey(tenantID, employeeID, date, durationMin), body, c.ttl)
}

// InvalidateDay сбрасывает все слоты сотрудника на дату (любые длительности).
// Вызывается жизненным циклом после каждой мутации брони.
func (c *SlotCache) InvalidateDay(ctx context.Context, tenantID, employeeID uuid.UUID, date time.Time) {
	c.invalidate(ctx, fmt.Sprintf("slots:%s:%s:%s:*", tenantID, employeeID, date.Format("2006-01-02")))
}

// InvalidateEmployee сбрасывает все слоты сотрудника на любые даты.
// Вызывается при смене графика или отсутствий.
func (c *SlotCache) InvalidateEmployee(ctx context.Context, tenantID, employeeID uuid.UUID) {
	c.invalidate(ctx, fmt.Sprintf("slots:%s:%s:*", tenantID, employeeID))
}

func (c *SlotCache) invalidate(ctx context.Context, pattern string) {
	if c == nil {
		return
	}
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}
