package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/coffeedash/pkg/etl"
	"github.com/ruslano69/coffeedash/pkg/retry"
)

// LoadReport представляет итог подготовки набора данных, публикуемый в Redis
// после старта (независимо от того, были ли проблемы с данными).
//
// Redis-ключи:
//
//	SET  coffeedash:load:<name>:state  <JSON>  EX <ttl>  (для опроса мониторингом)
//	PUB  coffeedash:load:<name>                          (для подписчиков)
type LoadReport struct {
	Source      string           `json:"source"`
	ResultName  string           `json:"result_name"`
	Status      string           `json:"status"` // "clean" | "degraded" | "failed"
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	DurationMs  int64            `json:"duration_ms"`
	RowsLoaded  int              `json:"rows_loaded"`
	RowsDropped int              `json:"rows_dropped"`
	RowsKept    int              `json:"rows_kept"`
	Columns     int              `json:"columns"`
	Checksum    string           `json:"checksum"`
	Diagnostics []etl.Diagnostic `json:"diagnostics,omitempty"`
}

// Статусы отчета
const (
	StatusClean    = "clean"    // без диагностик
	StatusDegraded = "degraded" // есть предупреждения о данных
	StatusFailed   = "failed"   // CSV не разобран
)

// NewLoadReport собирает отчет из результата подготовки
func NewLoadReport(source, resultName string, res *etl.Result) LoadReport {
	r := LoadReport{
		Source:      source,
		ResultName:  resultName,
		StartedAt:   res.Stats.StartTime,
		FinishedAt:  res.Stats.EndTime,
		DurationMs:  res.Stats.Duration.Milliseconds(),
		RowsLoaded:  res.Stats.RowsLoaded,
		RowsDropped: res.Stats.RowsDropped,
		RowsKept:    res.Stats.RowsKept,
		Columns:     res.Stats.Columns,
		Checksum:    res.Checksum,
		Diagnostics: res.Diagnostics,
	}
	switch {
	case len(etl.FilterKind(res.Diagnostics, etl.KindParseError)) > 0:
		r.Status = StatusFailed
	case len(res.Diagnostics) > 0:
		r.Status = StatusDegraded
	default:
		r.Status = StatusClean
	}
	return r
}

// StateKey возвращает ключ последнего состояния
func StateKey(name string) string {
	return fmt.Sprintf("coffeedash:load:%s:state", name)
}

// Channel возвращает канал событий
func Channel(name string) string {
	return fmt.Sprintf("coffeedash:load:%s", name)
}

// RedisPublisher публикует отчет о загрузке в Redis
type RedisPublisher struct {
	client  *redis.Client
	name    string
	ttl     time.Duration
	retryer *retry.Retryer
}

// NewRedisPublisher создает publisher поверх существующего клиента.
// Клиентом владеет вызывающий код. Сбои Redis повторяются по retry.DefaultConfig.
func NewRedisPublisher(client *redis.Client, name string, ttl time.Duration) *RedisPublisher {
	cfg := retry.DefaultConfig()
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Str("result", name).Msg("load report publish retry")
	}
	r, _ := retry.NewRetryer(cfg)
	return &RedisPublisher{client: client, name: name, ttl: ttl, retryer: r}
}

// WithRetry заменяет политику повторов
func (p *RedisPublisher) WithRetry(cfg retry.Config) (*RedisPublisher, error) {
	r, err := retry.NewRetryer(cfg)
	if err != nil {
		return nil, err
	}
	p.retryer = r
	return p, nil
}

// Publish публикует отчет:
//   - SET coffeedash:load:<name>:state <JSON> EX <ttl>  → для опроса (polling)
//   - PUBLISH coffeedash:load:<name> <JSON>             → для подписки (pub/sub)
func (p *RedisPublisher) Publish(ctx context.Context, report LoadReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	// SET идемпотентен, поэтому повтор после неудачного PUBLISH безопасен
	return p.retryer.Do(ctx, func(ctx context.Context) error {
		// SET ключ с TTL; ttl=0 - без истечения
		if err := p.client.Set(ctx, StateKey(p.name), payload, p.ttl).Err(); err != nil {
			return fmt.Errorf("redis SET failed: %w", err)
		}
		if err := p.client.Publish(ctx, Channel(p.name), payload).Err(); err != nil {
			return fmt.Errorf("redis PUBLISH failed: %w", err)
		}
		return nil
	})
}

// Latest читает последний опубликованный отчет
func (p *RedisPublisher) Latest(ctx context.Context) (*LoadReport, error) {
	data, err := p.client.Get(ctx, StateKey(p.name)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}
	var r LoadReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}
