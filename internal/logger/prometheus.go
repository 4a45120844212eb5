package logger

import (
	"github.com/postulamatic/harvester/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// prometheusHook feeds the errors-by-type counter from error entries.
// Entries tagged with ErrorTypeField (db, portal, decode, score) get their
// own bucket, everything else counts as unknown.
type prometheusHook struct{}

func (h *prometheusHook) Fire(entry *log.Entry) error {
	errorType, ok := entry.Data[ErrorTypeField].(string)
	if !ok {
		errorType = "unknown"
	}

	metrics.ErrorsCounter.WithLabelValues(errorType).Inc()
	return nil
}

func (h *prometheusHook) Levels() []log.Level {
	return []log.Level{
		log.ErrorLevel,
		log.FatalLevel,
		log.PanicLevel,
	}
}

func addPrometheusHook() {
	log.AddHook(&prometheusHook{})
}
