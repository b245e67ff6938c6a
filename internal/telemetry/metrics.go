package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netwatch_device_registrations_total",
			Help: "Device registrations by outcome.",
		},
		[]string{"result"},
	)
	samplesIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netwatch_samples_ingested_total",
			Help: "Metric samples stored, by origin.",
		},
		[]string{"origin"},
	)
	ingestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netwatch_ingest_errors_total",
			Help: "Rejected or failed submissions, by reason.",
		},
		[]string{"reason"},
	)
	devicesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netwatch_devices",
			Help: "Registered devices by derived liveness status.",
		},
		[]string{"status"},
	)
	collectionTasks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netwatch_collection_tasks",
			Help: "Server-side collection tasks currently running.",
		},
	)
)

func init() {
	prometheus.MustRegister(registrationsTotal)
	prometheus.MustRegister(samplesIngestedTotal)
	prometheus.MustRegister(ingestErrorsTotal)
	prometheus.MustRegister(devicesByStatus)
	prometheus.MustRegister(collectionTasks)
}
