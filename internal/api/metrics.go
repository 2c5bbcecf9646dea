package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ruslano69/coffeedash/pkg/etl"
)

var (
	// figureRequestsTotal counts chart requests (JSON and SVG) by chart and selection kind.
	figureRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeedash_figure_requests_total",
			Help: "Total number of chart description and SVG requests",
		},
		[]string{"chart", "format", "selection"}, // selection: all | farm | unknown
	)

	// svgCacheTotal counts figure cache lookups.
	svgCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeedash_svg_cache_total",
			Help: "SVG cache lookups by result (hit, miss, error, bypass, disabled)",
		},
		[]string{"result"},
	)

	// datasetRows reports row counts of the startup load.
	datasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coffeedash_dataset_rows",
			Help: "Rows of the coffee dataset by stage (loaded, dropped, kept)",
		},
		[]string{"stage"},
	)

	// datasetDiagnostics reports the number of startup diagnostics by kind.
	datasetDiagnostics = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coffeedash_dataset_diagnostics",
			Help: "Data quality diagnostics raised while loading the dataset",
		},
		[]string{"kind"},
	)
)

func recordLoad(res *etl.Result) {
	datasetRows.WithLabelValues("loaded").Set(float64(res.Stats.RowsLoaded))
	datasetRows.WithLabelValues("dropped").Set(float64(res.Stats.RowsDropped))
	datasetRows.WithLabelValues("kept").Set(float64(res.Stats.RowsKept))

	for _, kind := range []etl.DiagnosticKind{
		etl.KindParseError, etl.KindMissingColumns, etl.KindMissingValues, etl.KindCleaningError,
	} {
		datasetDiagnostics.WithLabelValues(string(kind)).Set(float64(len(etl.FilterKind(res.Diagnostics, kind))))
	}
}
