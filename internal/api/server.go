// Package api serves the coffee dashboard over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ruslano69/coffeedash/internal/dashboard"
	"github.com/ruslano69/coffeedash/pkg/core/table"
	"github.com/ruslano69/coffeedash/pkg/etl"
	"github.com/ruslano69/coffeedash/pkg/figcache"
)

// ─────────────────────────────────────────────────────────────────────────────
// Data model
// ─────────────────────────────────────────────────────────────────────────────

// Dataset - очищенная таблица или вычисленный SQL-вид
type Dataset struct {
	Name   string
	IsView bool
	Desc   string
	Table  *table.Table
	Err    error // вид не вычислен
}

// Pinger проверяет доступность внешней инфраструктуры (Redis)
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options - зависимости сервера. Все поля, кроме State и Result, опциональны.
type Options struct {
	Name    string           // заголовок страницы
	State   *dashboard.State // неизменяемый контекст данных
	Result  *etl.Result      // итог загрузки (статистика, диагностики, checksum)
	Source  string           // путь к CSV, для отображения
	Views   []etl.ViewResult // вычисленные SQL-виды
	Cache   *figcache.Cache  // nil = без кеша SVG
	Health  Pinger           // nil = без проверки Redis
	Timeout time.Duration    // таймаут обработки запроса; по умолчанию 30s
}

// Server - HTTP сервер дашборда. Все поля заполняются в NewServer и далее
// только читаются.
type Server struct {
	opts      Options
	datasets  map[string]*Dataset
	order     []string // порядок для отображения в UI
	startedAt time.Time
}

// NewServer собирает сервер из подготовленного состояния
func NewServer(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "Coffee Analysis"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Result == nil {
		opts.Result = &etl.Result{Table: opts.State.Table()}
	}

	s := &Server{
		opts:      opts,
		datasets:  make(map[string]*Dataset),
		startedAt: time.Now(),
	}

	base := opts.State.Table()
	s.addDataset(&Dataset{Name: datasetName(base), Desc: "Cleaned dataset", Table: base})
	for _, v := range opts.Views {
		s.addDataset(&Dataset{
			Name:   v.Config.Name,
			IsView: true,
			Desc:   v.Config.Description,
			Table:  v.Table,
			Err:    v.Err,
		})
	}

	recordLoad(opts.Result)
	return s
}

func datasetName(t *table.Table) string {
	if t.Name == "" {
		return etl.DefaultTableName
	}
	return t.Name
}

func (s *Server) addDataset(d *Dataset) {
	if _, dup := s.datasets[d.Name]; dup {
		return
	}
	s.datasets[d.Name] = d
	s.order = append(s.order, d.Name)
}

// ─────────────────────────────────────────────────────────────────────────────
// Router
// ─────────────────────────────────────────────────────────────────────────────

// Handler returns the chi router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.Timeout))
	r.Use(gzipMiddleware)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Get("/load", s.handleLoad)
		r.Get("/figures/initial", s.handleInitialFigure)
		r.Get("/figures/farm-region", s.handleFarmFigure)
	})

	r.Get("/charts/initial.svg", s.handleInitialSVG)
	r.Get("/charts/farm-region.svg", s.handleFarmSVG)

	r.Get("/data", s.handleDataIndex)
	r.Get("/data/{name}", s.handleData)

	r.Get("/export/farm.xlsx", s.handleExport)

	return r
}
