package plotting

import "github.com/prometheus/client_golang/prometheus"

// engineMetrics are the prometheus collectors the plotter registers on
// construction: an ambient observability layer at each stage boundary.
type engineMetrics struct {
	activeDownloads prometheus.Gauge
	activeEncodes   prometheus.Gauge
	sectorsPlotted  prometheus.Counter
	sectorErrors    prometheus.Counter
	plotDuration    prometheus.Histogram
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	m := &engineMetrics{
		activeDownloads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plotengine",
			Name:      "active_downloads",
			Help:      "Number of sectors currently in the download stage.",
		}),
		activeEncodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plotengine",
			Name:      "active_encodes",
			Help:      "Number of sectors currently in the encode stage.",
		}),
		sectorsPlotted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotengine",
			Name:      "sectors_plotted_total",
			Help:      "Number of sectors that finished successfully.",
		}),
		sectorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotengine",
			Name:      "sector_errors_total",
			Help:      "Number of sectors that ended in a terminal Error event.",
		}),
		plotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plotengine",
			Name:      "sector_plot_duration_seconds",
			Help:      "End-to-end duration of successful PlotSector calls.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.activeDownloads, m.activeEncodes, m.sectorsPlotted, m.sectorErrors, m.plotDuration)
	}
	return m
}
