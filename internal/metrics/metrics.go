package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	HarvestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvester_run_duration_seconds",
			Help:    "Duration of each harvest run in seconds.",
			Buckets: []float64{10, 30, 60, 300, 900, 1800},
		},
	)
	HarvestStepDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "harvester_step_duration_seconds",
			Help:       "Duration of each step in the harvest pipeline.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
	PostingsFoundCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_postings_found_total",
			Help: "Total number of raw posting records lifted off board pages.",
		},
	)
	PostingsAdmittedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_postings_admitted_total",
			Help: "Total number of postings admitted as new.",
		},
	)
	PostingsDuplicateCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_postings_duplicate_total",
			Help: "Total number of postings rejected as already seen.",
		},
	)
	MatchesSavedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_matches_saved_total",
			Help: "Total number of match results persisted above threshold.",
		},
	)
)

func StartMetricsServer(addr string) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(HarvestDuration)
	prometheus.MustRegister(HarvestStepDuration)
	prometheus.MustRegister(PostingsFoundCounter)
	prometheus.MustRegister(PostingsAdmittedCounter)
	prometheus.MustRegister(PostingsDuplicateCounter)
	prometheus.MustRegister(MatchesSavedCounter)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(addr, nil))
	}()
}
