package service

import (
	"time"

	"github.com/gorilla/mux"
	"github.com/heyfey/gpujob/config"
	"github.com/heyfey/gpujob/pkg/common/mongo"
	"github.com/heyfey/gpujob/pkg/common/rabbitmq"
	"github.com/heyfey/gpujob/pkg/jobmaster"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// JobRecorder keeps the submission history. Implemented by mongo.JobRecorder.
type JobRecorder interface {
	RecordSubmission(record mongo.JobRecord) error
	RecordDeletion(namespace string, name string, at time.Time) error
}

// Notifier announces created and deleted jobs. Implemented by
// rabbitmq.Publisher.
type Notifier interface {
	Publish(msg rabbitmq.Msg) error
}

type Service struct {
	JM       *jobmaster.JobMaster
	Router   *mux.Router
	recorder JobRecorder
	notifier Notifier
	Metrics  ServiceMetrics
}

type Option func(*Service)

func WithRecorder(r JobRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService serves jm over HTTP. Metrics are registered to registerer, and
// /metrics exposes prometheus.DefaultGatherer when registerer is the default
// one. A nil registerer leaves the service metrics unregistered.
func NewService(jm *jobmaster.JobMaster, registerer prometheus.Registerer, opts ...Option) *Service {
	s := &Service{
		JM:     jm,
		Router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initRoutes()
	s.initServiceMetrics(registerer)
	return s
}

func (s *Service) initRoutes() {
	s.Router.HandleFunc("/", homePage)
	s.Router.HandleFunc(config.EntryPoint, s.createJobHandler()).Methods("POST")
	s.Router.HandleFunc(config.EntryPoint, s.listJobsHandler()).Methods("GET")
	s.Router.HandleFunc(config.EntryPoint+"/{name}/status", s.getJobStatusHandler()).Methods("GET")
	s.Router.HandleFunc(config.EntryPoint+"/{name}/pods", s.getJobPodsHandler()).Methods("GET")
	s.Router.HandleFunc(config.EntryPoint+"/{name}", s.deleteJobHandler()).Methods("DELETE")
	s.Router.HandleFunc("/events", s.listEventsHandler()).Methods("GET")
	s.Router.Handle("/metrics", promhttp.Handler())
}
