package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"

	"github.com/ruslano69/coffeedash/internal/dashboard"
	"github.com/ruslano69/coffeedash/pkg/chart"
	"github.com/ruslano69/coffeedash/pkg/resilience"
	"github.com/ruslano69/coffeedash/pkg/xlsx"
)

// Имена графиков в метриках, кеше и ETag
const (
	chartInitial    = "initial"
	chartFarmRegion = "farm-region"
)

// ─────────────────────────────────────────────────────────────────────────────
// Selection
// ─────────────────────────────────────────────────────────────────────────────

// selection возвращает выбранную ферму из ?farm=. Отсутствующий параметр
// означает "All Farms"; пустое значение - это ферма с пустым именем.
func selection(q url.Values) string {
	if _, ok := q["farm"]; !ok {
		return dashboard.AllFarms
	}
	return q.Get("farm")
}

// selectionKind - метка метрики: all | farm | unknown
func (s *Server) selectionKind(sel string) string {
	switch {
	case dashboard.IsAll(sel):
		return "all"
	case s.opts.State.HasOption(sel):
		return "farm"
	default:
		return "unknown"
	}
}

// etag - слабый ETag: контрольная сумма набора данных + график + выбор
func (s *Server) etag(chartName, sel string) string {
	return fmt.Sprintf(`W/"%s-%s-%016x"`, s.opts.Result.Checksum, chartName, xxh3.HashString(sel))
}

// notModified выставляет ETag и отвечает 304, если клиент уже имеет эту версию
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// JSON endpoints
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"status": "ok", "redis": "disabled"}
	status := http.StatusOK
	if s.opts.Health != nil {
		checks["redis"] = "ok"
		if err := s.opts.Health.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			checks["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, checks)
}

type optionsResponse struct {
	Options []string `json:"options"`
	Default string   `json:"default"`
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		Options: s.opts.State.Options(),
		Default: dashboard.AllFarms,
	})
}

type loadResponse struct {
	Source      string      `json:"source,omitempty"`
	Checksum    string      `json:"checksum"`
	Stats       any         `json:"stats"`
	Diagnostics []diagnosis `json:"diagnostics"`
}

type diagnosis struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleLoad(w http.ResponseWriter, _ *http.Request) {
	res := s.opts.Result
	resp := loadResponse{
		Source:      s.opts.Source,
		Checksum:    res.Checksum,
		Stats:       res.Stats,
		Diagnostics: make([]diagnosis, 0, len(res.Diagnostics)),
	}
	for _, d := range res.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, diagnosis{Kind: string(d.Kind), Message: d.Message})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInitialFigure(w http.ResponseWriter, r *http.Request) {
	figureRequestsTotal.WithLabelValues(chartInitial, "json", "all").Inc()
	if notModified(w, r, s.etag(chartInitial, "")) {
		return
	}
	writeJSON(w, http.StatusOK, s.opts.State.InitialChart())
}

func (s *Server) handleFarmFigure(w http.ResponseWriter, r *http.Request) {
	sel := selection(r.URL.Query())
	figureRequestsTotal.WithLabelValues(chartFarmRegion, "json", s.selectionKind(sel)).Inc()
	if notModified(w, r, s.etag(chartFarmRegion, sel)) {
		return
	}
	writeJSON(w, http.StatusOK, s.opts.State.FarmChart(sel))
}

// ─────────────────────────────────────────────────────────────────────────────
// SVG endpoints
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) handleInitialSVG(w http.ResponseWriter, r *http.Request) {
	figureRequestsTotal.WithLabelValues(chartInitial, "svg", "all").Inc()
	s.serveSVG(w, r, chartInitial, "", s.opts.State.InitialChart)
}

func (s *Server) handleFarmSVG(w http.ResponseWriter, r *http.Request) {
	sel := selection(r.URL.Query())
	figureRequestsTotal.WithLabelValues(chartFarmRegion, "svg", s.selectionKind(sel)).Inc()
	s.serveSVG(w, r, chartFarmRegion, sel, func() chart.Figure {
		return s.opts.State.FarmChart(sel)
	})
}

// serveSVG отдает SVG графика: из кеша, если он есть, иначе рендерит и
// сохраняет. Ошибки кеша не прерывают запрос.
func (s *Server) serveSVG(w http.ResponseWriter, r *http.Request, chartName, sel string, build func() chart.Figure) {
	if notModified(w, r, s.etag(chartName, sel)) {
		return
	}
	ctx := r.Context()

	if !s.opts.Cache.Enabled() {
		svgCacheTotal.WithLabelValues("disabled").Inc()
	} else if data, ok, err := s.opts.Cache.Get(ctx, chartName, sel); errors.Is(err, resilience.ErrCircuitOpen) {
		svgCacheTotal.WithLabelValues("bypass").Inc()
	} else if err != nil {
		svgCacheTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("chart", chartName).Msg("svg cache read failed")
	} else if ok {
		svgCacheTotal.WithLabelValues("hit").Inc()
		writeSVG(w, data)
		return
	} else {
		svgCacheTotal.WithLabelValues("miss").Inc()
	}

	var buf bytes.Buffer
	if err := chart.RenderSVG(&buf, build(), chart.DefaultWidth, chart.DefaultHeight); err != nil {
		log.Error().Err(err).Str("chart", chartName).Str("farm", sel).Msg("render failed")
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}

	if err := s.opts.Cache.Set(ctx, chartName, sel, buf.Bytes()); err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		log.Warn().Err(err).Str("chart", chartName).Msg("svg cache write failed")
	}
	writeSVG(w, buf.Bytes())
}

func writeSVG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ─────────────────────────────────────────────────────────────────────────────
// Export
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sel := selection(r.URL.Query())
	subset := s.opts.State.Subset(sel)

	var buf bytes.Buffer
	if err := xlsx.Write(&buf, subset, sel); err != nil {
		log.Error().Err(err).Str("farm", sel).Msg("xlsx export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := "coffee.xlsx"
	if !dashboard.IsAll(sel) {
		filename = "coffee-" + xlsx.SheetName(sel, "farm") + ".xlsx"
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
