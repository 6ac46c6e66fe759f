package jobmaster

import (
	"strings"

	"github.com/heyfey/gpujob/config"
	"github.com/heyfey/gpujob/pkg/common/kerrors"
	"github.com/heyfey/gpujob/pkg/common/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type JobMasterMetrics struct {
	jobsCreatedCounter prometheus.Counter
	jobsDeletedCounter prometheus.Counter
	apiErrorsCounter   *prometheus.CounterVec
	statusCounter      *prometheus.CounterVec
	createJobDuration  prometheus.Summary
	deleteJobDuration  prometheus.Summary
	getStatusDuration  prometheus.Summary
	listEventsDuration prometheus.Summary
}

func (jm *JobMaster) initJobMasterMetrics() {
	namespace := strings.Replace(config.Name, "-", "_", -1)
	f := promauto.With(jm.registerer)

	m := JobMasterMetrics{
		jobsCreatedCounter: f.NewCounter(prometheus.CounterOpts{
			Name:      "jobmaster_jobs_created_total",
			Namespace: namespace,
			Help:      "Counts number of jobs accepted by the cluster.",
		}),
		jobsDeletedCounter: f.NewCounter(prometheus.CounterOpts{
			Name:      "jobmaster_jobs_deleted_total",
			Namespace: namespace,
			Help:      "Counts number of jobs deleted.",
		}),
		apiErrorsCounter: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "jobmaster_errors_total",
			Namespace: namespace,
			Help:      "Counts failed operations by operation and error kind.",
		}, []string{"operation", "kind"}),
		statusCounter: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "jobmaster_status_queries_total",
			Namespace: namespace,
			Help:      "Counts status queries by returned status.",
		}, []string{"status"}),
		createJobDuration: f.NewSummary(prometheus.SummaryOpts{
			Name:      "jobmaster_create_job_duration_seconds",
			Namespace: namespace,
			Help:      "A summary of the duration of creating a job.",
		}),
		deleteJobDuration: f.NewSummary(prometheus.SummaryOpts{
			Name:      "jobmaster_delete_job_duration_seconds",
			Namespace: namespace,
			Help:      "A summary of the duration of deleting a job.",
		}),
		getStatusDuration: f.NewSummary(prometheus.SummaryOpts{
			Name:      "jobmaster_get_status_duration_seconds",
			Namespace: namespace,
			Help:      "A summary of the duration of inferring a job status.",
		}),
		listEventsDuration: f.NewSummary(prometheus.SummaryOpts{
			Name:      "jobmaster_list_events_duration_seconds",
			Namespace: namespace,
			Help:      "A summary of the duration of listing namespace events.",
		}),
	}
	jm.metrics = m
}

func (m JobMasterMetrics) observeError(operation string, err error) {
	kind := kerrors.Kind(err)
	if kind == nil {
		kind = kerrors.ErrAPI
	}
	m.apiErrorsCounter.WithLabelValues(operation, kind.Error()).Inc()
}

func (m JobMasterMetrics) observeStatus(s types.JobStatusType) {
	m.statusCounter.WithLabelValues(string(s)).Inc()
}
