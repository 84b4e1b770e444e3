// Package servicetype read-through кэш типов услуг в Redis
package servicetype

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

const (
	keyPrefix    = "scheduling:service_type:"
	maxBufferKey = "scheduling:service_types:max_buffer"
)

// Cache кэширует типы услуг поверх Source.
// Ошибки Redis не влияют на результат: при сбое кэша запрос уходит в Source.
type Cache struct {
	source Source
	redis  *redis.Client
	ttl    time.Duration
	logger Logger
}

// NewCache создает кэш типов услуг
func NewCache(source Source, client *redis.Client, ttl time.Duration, logger Logger) *Cache {
	return &Cache{
		source: source,
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetByID возвращает тип услуги из кэша или из источника
func (c *Cache) GetByID(ctx context.Context, id int64) (*domain.ServiceType, error) {
	key := keyPrefix + strconv.FormatInt(id, 10)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var st domain.ServiceType
		if err := json.Unmarshal(data, &st); err == nil {
			return &st, nil
		}
		c.logger.Warn("ServiceTypeCache: corrupted entry %s, reloading", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("ServiceTypeCache: get %s: %v", key, err)
	}

	st, err := c.source.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, key, st); err != nil {
		c.logger.Warn("ServiceTypeCache: set %s: %v", key, err)
	}

	return st, nil
}

// MaxBufferMinutes возвращает максимальный буфер среди активных типов услуг
func (c *Cache) MaxBufferMinutes(ctx context.Context) (int, error) {
	value, err := c.redis.Get(ctx, maxBufferKey).Int()
	switch {
	case err == nil:
		return value, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("ServiceTypeCache: get %s: %v", maxBufferKey, err)
	}

	maxBuffer, err := c.source.MaxBufferMinutes(ctx)
	if err != nil {
		return 0, err
	}

	if err := c.redis.Set(ctx, maxBufferKey, maxBuffer, c.ttl).Err(); err != nil {
		c.logger.Warn("ServiceTypeCache: set %s: %v", maxBufferKey, err)
	}

	return maxBuffer, nil
}

func (c *Cache) store(ctx context.Context, key string, st *domain.ServiceType) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal service type: %w", err)
	}
	return c.redis.Set(ctx, key, data, c.ttl).Err()
}
