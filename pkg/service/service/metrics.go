package service

import (
	"strings"

	"github.com/heyfey/gpujob/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ServiceMetrics struct {
	serviceInfoGauge         *prometheus.GaugeVec
	requestsCounter          *prometheus.CounterVec
	createJobSuccessDuration prometheus.Summary
	deleteJobSuccessDuration prometheus.Summary
}

func (s *Service) initServiceMetrics(registerer prometheus.Registerer) {
	namespace := strings.Replace(config.Name, "-", "_", -1)
	f := promauto.With(registerer)

	m := ServiceMetrics{
		serviceInfoGauge: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "service_info",
			Namespace: namespace,
			Help:      "Information about the job service.",
		}, []string{"version", "namespace"}),

		requestsCounter: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "service_requests_total",
			Namespace: namespace,
			Help:      "Counts handled requests by handler and response code.",
		}, []string{"handler", "code"}),

		createJobSuccessDuration: f.NewSummary(prometheus.SummaryOpts{
			Name:      "service_create_job_success_duration_seconds",
			Namespace: namespace,
			Help:      "A summary of the duration of successfully creating a job.",
		}),

		deleteJobSuccessDuration: f.NewSummary(prometheus.SummaryOpts{
			Name:      "service_delete_job_success_duration_seconds",
			Namespace: namespace,
			Help:      "A summary of the duration of successfully deleting a job.",
		}),
	}
	m.serviceInfoGauge.WithLabelValues(config.Version, s.JM.Namespace()).Set(1)
	s.Metrics = m
}
