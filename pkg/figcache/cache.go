// Package figcache кеширует отрендеренные SVG в Redis.
//
// Ключ: coffeedash:svg:<dataset checksum>:<chart>:<xxh3(selection)>. Контрольная
// сумма набора данных входит в ключ, поэтому перезапуск с другим CSV не
// может вернуть устаревший график.
package figcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"

	"github.com/ruslano69/coffeedash/pkg/resilience"
)

// Cache - Redis-кеш SVG. Нулевой *Cache (nil) - отключенный кеш:
// Get всегда промахивается, Set ничего не делает.
//
// Обращения к Redis идут через circuit breaker: после серии сбоев Get и Set
// сразу возвращают resilience.ErrCircuitOpen, и графики рендерятся без кеша.
type Cache struct {
	client   *redis.Client
	checksum string
	ttl      time.Duration
	breaker  *resilience.CircuitBreaker
}

// New создает кеш для набора данных с контрольной суммой checksum.
// client == nil или ttl <= 0 возвращает nil (кеш отключен).
func New(client *redis.Client, checksum string, ttl time.Duration) *Cache {
	return NewWithBreaker(client, checksum, ttl, resilience.DefaultConfig("figcache"))
}

// NewWithBreaker - как New, с явной конфигурацией circuit breaker
func NewWithBreaker(client *redis.Client, checksum string, ttl time.Duration, bc resilience.Config) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	if bc.OnStateChange == nil {
		bc.OnStateChange = logStateChange
	}
	breaker, err := resilience.New(bc)
	if err != nil {
		log.Warn().Err(err).Msg("figcache: invalid breaker config, using defaults")
		breaker, _ = resilience.New(resilience.DefaultConfig("figcache"))
	}
	return &Cache{client: client, checksum: checksum, ttl: ttl, breaker: breaker}
}

func logStateChange(name string, from, to resilience.State) {
	ev := log.Info()
	if to == resilience.StateOpen {
		ev = log.Warn()
	}
	ev.Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("redis circuit breaker state changed")
}

// Key возвращает ключ Redis для графика chart и выбора selection
func (c *Cache) Key(chart, selection string) string {
	return fmt.Sprintf("coffeedash:svg:%s:%s:%016x", c.checksum, chart, xxh3.HashString(selection))
}

// Get возвращает SVG из кеша; ok=false при промахе.
// Ошибка возвращается только для сбоев Redis (не для промаха).
func (c *Cache) Get(ctx context.Context, chart, selection string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	var (
		data []byte
		hit  bool
	)
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, c.Key(chart, selection)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		hit = err == nil
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("figcache get: %w", err)
	}
	return data, hit, nil
}

// Set сохраняет SVG с TTL кеша
func (c *Cache) Set(ctx context.Context, chart, selection string, svg []byte) error {
	if c == nil {
		return nil
	}
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, c.Key(chart, selection), svg, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("figcache set: %w", err)
	}
	return nil
}

// Enabled reports whether the cache is backed by Redis.
func (c *Cache) Enabled() bool {
	return c != nil
}
