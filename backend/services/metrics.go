// ABOUTME: Prometheus instrumentation for the diagnosis pipeline
// ABOUTME: Counts cascade tiers, pipeline outcomes and collaborator fallbacks

package services

import (
	"time"

	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	identifications  *prometheus.CounterVec
	classifyDuration *prometheus.HistogramVec
	diagnoses        *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		identifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leafdoctor",
			Name:      "crop_identifications_total",
			Help:      "Crop identifications by the tier that resolved them (none for misses).",
		}, []string{"source"}),
		classifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leafdoctor",
			Name:      "disease_classification_seconds",
			Help:      "Disease classifier latency per crop.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"crop", "result"}),
		diagnoses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leafdoctor",
			Name:      "diagnoses_total",
			Help:      "Pipeline runs by final state.",
		}, []string{"state"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leafdoctor",
			Name:      "collaborator_fallbacks_total",
			Help:      "External collaborator calls that fell back to local behaviour.",
		}, []string{"collaborator"}),
	}
	reg.MustRegister(m.identifications, m.classifyDuration, m.diagnoses, m.fallbacks)
	return m
}

func (m *Metrics) observeIdentification(source models.IdentificationSource) {
	if m == nil {
		return
	}
	label := string(source)
	if label == "" {
		label = "none"
	}
	m.identifications.WithLabelValues(label).Inc()
}

func (m *Metrics) observeClassification(crop models.Crop, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.classifyDuration.WithLabelValues(string(crop), result).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeDiagnosis(state models.PipelineState) {
	if m == nil {
		return
	}
	m.diagnoses.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) observeFallback(collaborator string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(collaborator).Inc()
}
