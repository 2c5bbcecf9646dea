package infra

import (
	"context"
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Infra holds all live infrastructure handles for the running service.
type Infra struct {
	Redis *redis.Client // nil when Redis is disabled

	// dev-mode internal instance; nil in production
	mini *miniredis.Miniredis
}

// Setup initialises Redis.
//   - dev=true: starts an in-process miniredis instance.
//   - dev=false with redis.addr set: connects to that address.
//   - otherwise Redis stays disabled and Infra.Redis is nil.
func Setup(ctx context.Context, cfg *Config, dev bool) (*Infra, error) {
	inf := &Infra{}

	switch {
	case dev:
		var err error
		inf.mini, err = miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("infra: miniredis: %w", err)
		}
		inf.Redis = redis.NewClient(&redis.Options{Addr: inf.mini.Addr()})
		log.Info().Str("redis", inf.mini.Addr()).Msg("dev: in-process miniredis started")
	case cfg.Redis.Enabled():
		inf.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		log.Debug().Msg("redis disabled: no redis.addr configured")
		return inf, nil
	}

	if err := inf.Redis.Ping(ctx).Err(); err != nil {
		inf.Close()
		return nil, fmt.Errorf("infra: redis ping: %w", err)
	}
	return inf, nil
}

// Ping checks the Redis connection; a disabled Redis is always healthy.
func (inf *Infra) Ping(ctx context.Context) error {
	if inf == nil || inf.Redis == nil {
		return nil
	}
	return inf.Redis.Ping(ctx).Err()
}

// Close releases all infrastructure resources.
func (inf *Infra) Close() {
	if inf.Redis != nil {
		_ = inf.Redis.Close()
	}
	if inf.mini != nil {
		inf.mini.Close()
	}
}
