package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	geophygis = "geophygis"

	featuresTotal          = "features_total"
	profilesTotal          = "profiles_total"
	batchesTotal           = "batches_total"
	windowAdjustmentsTotal = "window_adjustments_total"
	runDurationSeconds     = "run_duration_seconds"

	// Labels
	directionLabel = "direction"
	statusLabel    = "status"
)

// Run directions
const (
	Export = "export"
	Import = "import"
)

// Profile outcomes
const (
	ProfileWritten    = "written"
	ProfileNotFound   = "not_found"
	ProfileParseError = "parse_error"
)

/**
* Metrics definition
**/
var featuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: geophygis,
		Name:      featuresTotal,
		Help:      "number of input features processed",
	},
	[]string{directionLabel},
)

var profilesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: geophygis,
		Name:      profilesTotal,
		Help:      "number of profiles processed by outcome",
	},
	[]string{directionLabel, statusLabel},
)

var batchesTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: geophygis,
		Name:      batchesTotal,
		Help:      "number of batch descriptors written",
	},
)

var windowAdjustmentsTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: geophygis,
		Name:      windowAdjustmentsTotal,
		Help:      "number of smoothing windows changed to fit a profile",
	},
)

var runDurationSecondsMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: geophygis,
		Name:      runDurationSeconds,
		Help:      "duration of complete runs",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	},
	[]string{directionLabel},
)

func IncreaseFeaturesTotalMetric(direction string, count int) {
	featuresTotalMetric.With(prometheus.Labels{directionLabel: direction}).Add(float64(count))
}

func IncreaseProfilesTotalMetric(direction, status string) {
	labels := prometheus.Labels{
		directionLabel: direction,
		statusLabel:    status,
	}
	profilesTotalMetric.With(labels).Inc()
}

func IncreaseBatchesTotalMetric(count int) {
	batchesTotalMetric.Add(float64(count))
}

func IncreaseWindowAdjustmentsMetric() {
	windowAdjustmentsTotalMetric.Inc()
}

func ObserveRunDuration(direction string, d time.Duration) {
	runDurationSecondsMetric.With(prometheus.Labels{directionLabel: direction}).Observe(d.Seconds())
}

// WriteTextfile dumps every registered metric to path in the text exposition format
// read by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(featuresTotalMetric)
	prometheus.MustRegister(profilesTotalMetric)
	prometheus.MustRegister(batchesTotalMetric)
	prometheus.MustRegister(windowAdjustmentsTotalMetric)
	prometheus.MustRegister(runDurationSecondsMetric)
}
