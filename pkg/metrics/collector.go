// Package metrics exposes Prometheus collectors for settings-engine operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	savesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_saves_total",
			Help: "Total number of save operations labeled by scope and status",
		},
		[]string{"scope", "status"},
	)
	saveDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settings_save_duration_seconds",
			Help:    "Duration of save operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)
	validationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_validation_failures_total",
			Help: "Total number of fields that failed validation per section",
		},
		[]string{"section"},
	)
	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_imports_total",
			Help: "Total number of import attempts by outcome",
		},
		[]string{"status"},
	)
	exportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settings_exports_total",
			Help: "Total number of exported settings artifacts",
		},
	)
	themeAppliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settings_theme_applies_total",
			Help: "Total number of theme materializations pushed to the rendering context",
		},
	)
)

// RecordSave increments the save counter and records its duration.
func RecordSave(scope, status string, duration time.Duration) {
	savesTotal.WithLabelValues(scope, status).Inc()
	saveDurationSeconds.WithLabelValues(scope).Observe(duration.Seconds())
}

// RecordValidationFailures counts fields that failed validation for a section.
func RecordValidationFailures(section string, count int) {
	if count <= 0 {
		return
	}
	validationFailuresTotal.WithLabelValues(section).Add(float64(count))
}

// RecordImport counts an import attempt by outcome.
func RecordImport(status string) {
	importsTotal.WithLabelValues(status).Inc()
}

// RecordExport counts a delivered export artifact.
func RecordExport() {
	exportsTotal.Inc()
}

// RecordThemeApply counts a theme materialization.
func RecordThemeApply() {
	themeAppliesTotal.Inc()
}
