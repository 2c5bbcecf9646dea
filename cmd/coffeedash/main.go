// Command coffeedash serves an interactive dashboard over the coffee quality dataset.
//
// Usage:
//
//	coffeedash [--config path] [--addr :8050] [--dev]
//
// Flags:
//
//	--config  Path to coffeedash.yaml (optional; defaults are used without it)
//	--addr    Override server.addr from config
//	--dev     Start an in-process miniredis for the figure cache and load report
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/coffeedash/internal/api"
	"github.com/ruslano69/coffeedash/internal/dashboard"
	"github.com/ruslano69/coffeedash/internal/infra"
	"github.com/ruslano69/coffeedash/pkg/etl"
	"github.com/ruslano69/coffeedash/pkg/figcache"
	"github.com/ruslano69/coffeedash/pkg/processors"
	"github.com/ruslano69/coffeedash/pkg/resultlog"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	addrOverride := flag.String("addr", "", "listen address override (e.g. :3000)")
	dev := flag.Bool("dev", false, "dev mode: in-process miniredis")
	flag.Parse()

	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("config load failed")
	}
	if *addrOverride != "" {
		cfg.Server.Addr = *addrOverride
	}
	setupLogging(cfg.Server.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inf, err := infra.Setup(ctx, cfg, *dev)
	if err != nil {
		log.Fatal().Err(err).Msg("infrastructure setup failed")
	}
	defer inf.Close()

	if *dev {
		log.Warn().Msg("──────────────────────────────────────────────")
		log.Warn().Msg("  DEV MODE ACTIVE: in-process miniredis       ")
		log.Warn().Msg("──────────────────────────────────────────────")
	}

	// Подготовка данных: один раз при старте
	custom, err := processors.CreateChainFromConfigs(cfg.Cleaning.Custom)
	if err != nil {
		log.Fatal().Err(err).Msg("cleaning config invalid")
	}
	res := etl.NewProcessor(cfg.Source, custom).Execute(ctx)
	logResult(cfg.Source.Path, res)

	views, err := etl.ComputeViews(ctx, res.Table, cfg.Views)
	if err != nil {
		log.Error().Err(err).Msg("views workspace unavailable")
	}
	for _, v := range views {
		if v.Err != nil {
			log.Warn().Err(v.Err).Str("view", v.Config.Name).Msg("view failed")
			continue
		}
		log.Debug().Str("view", v.Config.Name).Int("rows", v.Table.Len()).Msg("view computed")
	}

	if inf.Redis != nil {
		pub := resultlog.NewRedisPublisher(inf.Redis, cfg.Redis.ResultName, cfg.Redis.ResultTTL)
		report := resultlog.NewLoadReport(cfg.Source.Path, cfg.Redis.ResultName, res)
		if err := pub.Publish(ctx, report); err != nil {
			log.Warn().Err(err).Msg("load report publish failed")
		}
	}

	var health api.Pinger
	if inf.Redis != nil {
		health = inf
	}

	server := api.NewServer(api.Options{
		Name:    cfg.Server.Name,
		State:   dashboard.New(res.Table),
		Result:  res,
		Source:  cfg.Source.Path,
		Views:   views,
		Cache:   figcache.New(inf.Redis, res.Checksum, cfg.Redis.CacheTTL),
		Health:  health,
		Timeout: cfg.Server.WriteTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Bool("dev", *dev).
			Bool("redis", inf.Redis != nil).
			Msg("coffeedash started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("stopped")
}

// setupLogging: консоль и debug-уровень в режиме отладки, JSON и info иначе
func setupLogging(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// logResult выводит диагностики загрузки как предупреждения и итоговую сводку.
// Диагностики не влияют на код завершения.
func logResult(source string, res *etl.Result) {
	for _, d := range res.Diagnostics {
		ev := log.Warn()
		if d.Kind == etl.KindParseError {
			ev = log.Error()
		}
		ev.Str("kind", string(d.Kind)).Str("source", source).Msg(d.Message)
	}

	log.Info().
		Str("source", source).
		Int("loaded", res.Stats.RowsLoaded).
		Int("dropped", res.Stats.RowsDropped).
		Int("kept", res.Stats.RowsKept).
		Int("columns", res.Stats.Columns).
		Int("diagnostics", len(res.Diagnostics)).
		Str("checksum", res.Checksum).
		Dur("duration", res.Stats.Duration).
		Msg("dataset ready")
}
