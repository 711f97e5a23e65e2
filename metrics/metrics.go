// Package metrics records per-run pipeline figures and writes them in the
// Prometheus text exposition format for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry so a run never touches the global one.
type Recorder struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	readings    prometheus.Gauge
	discharge   *prometheus.GaugeVec
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewRecorder registers the pipeline metrics labelled with the site and parameter.
func NewRecorder(siteID, parameterCode string) *Recorder {
	labels := prometheus.Labels{"site_no": siteID, "parameter_cd": parameterCode}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "streamflow_pipeline_runs_total",
			Help:        "Pipeline runs by outcome (success, empty, failure).",
			ConstLabels: labels,
		}, []string{"outcome"}),
		readings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "streamflow_readings",
			Help:        "Readings that survived cleaning in the last successful run.",
			ConstLabels: labels,
		}),
		discharge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "streamflow_discharge_cfs",
			Help:        "Discharge statistics of the last successful run in cubic feet per second.",
			ConstLabels: labels,
		}, []string{"stat"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "streamflow_pipeline_duration_seconds",
			Help:        "Wall time of the last run.",
			ConstLabels: labels,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "streamflow_pipeline_last_success_timestamp_seconds",
			Help:        "Unix time of the last successful run.",
			ConstLabels: labels,
		}),
	}

	r.registry.MustRegister(r.runs, r.readings, r.discharge, r.duration, r.lastSuccess)
	return r
}

// ObserveSuccess records the figures of a run that exported its outputs.
func (r *Recorder) ObserveSuccess(count int, min, max, avg, latest float64, took time.Duration, at time.Time) {
	r.runs.WithLabelValues("success").Inc()
	r.readings.Set(float64(count))
	r.discharge.WithLabelValues("min").Set(min)
	r.discharge.WithLabelValues("max").Set(max)
	r.discharge.WithLabelValues("avg").Set(avg)
	r.discharge.WithLabelValues("latest").Set(latest)
	r.duration.Set(took.Seconds())
	r.lastSuccess.Set(float64(at.Unix()))
}

// ObserveEmpty records a run that stopped for lack of usable data.
func (r *Recorder) ObserveEmpty(took time.Duration) {
	r.runs.WithLabelValues("empty").Inc()
	r.duration.Set(took.Seconds())
}

// ObserveFailure records a run that ended with an error.
func (r *Recorder) ObserveFailure(took time.Duration) {
	r.runs.WithLabelValues("failure").Inc()
	r.duration.Set(took.Seconds())
}

// WriteTextfile atomically replaces path with the current metric values.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
