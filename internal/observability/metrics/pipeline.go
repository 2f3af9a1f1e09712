package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

// PipelineMetrics implements the pipeline, health gate and breaker
// observers.
type PipelineMetrics struct {
	service string

	detectionsTotal    *prometheus.CounterVec
	flagsTotal         *prometheus.CounterVec
	reportsTotal       *prometheus.CounterVec
	providerUp         *prometheus.GaugeVec
	fallbackTotal      *prometheus.CounterVec
	breakerTransitions *prometheus.CounterVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	detectionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "detections_total",
			Help:      "Detected labels by backend and outcome.",
		},
		[]string{"service", "source", "outcome"},
	)
	flagsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "flags_total",
			Help:      "Emitted flags by code and severity.",
		},
		[]string{"service", "code", "severity"},
	)
	reportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_total",
			Help:      "Built reports by kind, legacy status and fallback.",
		},
		[]string{"service", "kind", "status", "fallback"},
	)
	providerUp := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "up",
			Help:      "Last known provider health, 1 when up.",
		},
		[]string{"service", "provider"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fallback_total",
			Help:      "Provider calls answered by fallback.",
		},
		[]string{"service", "provider", "reason"},
	)
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state changes.",
		},
		[]string{"service", "operation", "from", "to"},
	)

	registerer.MustRegister(detectionsTotal, flagsTotal, reportsTotal, providerUp, fallbackTotal, breakerTransitions)

	return &PipelineMetrics{
		service:            service,
		detectionsTotal:    detectionsTotal,
		flagsTotal:         flagsTotal,
		reportsTotal:       reportsTotal,
		providerUp:         providerUp,
		fallbackTotal:      fallbackTotal,
		breakerTransitions: breakerTransitions,
	}
}

func (m *PipelineMetrics) ObserveDetections(source domain.DetectionSource, kept, rejected int) {
	if kept > 0 {
		m.detectionsTotal.WithLabelValues(m.service, string(source), "kept").Add(float64(kept))
	}
	if rejected > 0 {
		m.detectionsTotal.WithLabelValues(m.service, string(source), "rejected").Add(float64(rejected))
	}
}

func (m *PipelineMetrics) ObserveFlags(flags []domain.Flag) {
	for _, flag := range flags {
		m.flagsTotal.WithLabelValues(m.service, flag.Code, string(flag.Severity)).Inc()
	}
}

func (m *PipelineMetrics) ObserveReport(kind domain.ReportKind, status domain.LegacyStatus, fallback bool) {
	m.reportsTotal.WithLabelValues(m.service, string(kind), string(status), strconv.FormatBool(fallback)).Inc()
}

func (m *PipelineMetrics) ObserveProviderState(provider string, up bool) {
	value := 0.0
	if up {
		value = 1
	}
	m.providerUp.WithLabelValues(m.service, provider).Set(value)
}

func (m *PipelineMetrics) ObserveFallback(provider, reason string) {
	m.fallbackTotal.WithLabelValues(m.service, provider, reason).Inc()
}

// ObserveBreakerTransition matches resilience.BreakerObserver.
func (m *PipelineMetrics) ObserveBreakerTransition(operation, from, to string) {
	m.breakerTransitions.WithLabelValues(m.service, operation, from, to).Inc()
}
