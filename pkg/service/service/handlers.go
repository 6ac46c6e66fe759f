package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/heyfey/gpujob/config"
	"github.com/heyfey/gpujob/pkg/common/kerrors"
	"github.com/heyfey/gpujob/pkg/common/mongo"
	"github.com/heyfey/gpujob/pkg/common/rabbitmq"
	"github.com/heyfey/gpujob/pkg/common/types"
	"github.com/heyfey/gpujob/pkg/jobmaster"
	yaml2 "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/klog/v2"
)

// CreateJobResponse is returned by POST /jobs.
type CreateJobResponse struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// JobStatusResponse is returned by GET /jobs/{name}/status.
type JobStatusResponse struct {
	Name   string              `json:"name"`
	Status types.JobStatusType `json:"status"`
}

// DeleteJobResponse is returned by DELETE /jobs/{name}.
type DeleteJobResponse struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func homePage(w http.ResponseWriter, r *http.Request) {
	klog.V(4).InfoS("Endpoint hit", "endpoint", "homePage")
	fmt.Fprintf(w, "%s (v%s) - Job Service", config.Msg, config.Version)
}

func (s *Service) createJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		klog.V(4).InfoS("Endpoint hit", "endpoint", "createJob")
		reqBody, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeError(w, "create", http.StatusBadRequest, err)
			return
		}

		d, err := bytesToJobDescriptor(reqBody)
		if err != nil {
			klog.InfoS("Failed to convert request to job descriptor", "err", err)
			s.writeError(w, "create", http.StatusBadRequest, err)
			return
		}

		start := time.Now()
		if err := s.JM.SubmitJob(r.Context(), d); err != nil {
			s.writeError(w, "create", httpStatus(err), err)
			return
		}
		s.Metrics.createJobSuccessDuration.Observe(time.Since(start).Seconds())

		s.recordSubmission(d, start)
		s.notify(rabbitmq.VerbCreate, d.Name)
		s.writeJSON(w, "create", http.StatusCreated, CreateJobResponse{Name: d.Name, Namespace: s.JM.Namespace()})
	}
}

// bytesToJobDescriptor accepts a JSON or YAML body.
func bytesToJobDescriptor(data []byte) (jobmaster.JobDescriptor, error) {
	d := jobmaster.JobDescriptor{}
	data, err := yaml2.ToJSON(data)
	if err != nil {
		return d, err
	}
	if err = json.Unmarshal(data, &d); err != nil {
		return d, err
	}
	return d, nil
}

func (s *Service) listJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		klog.V(4).InfoS("Endpoint hit", "endpoint", "listJobs")
		jobs, err := s.JM.ListJobs(r.Context())
		if err != nil {
			s.writeError(w, "list", httpStatus(err), err)
			return
		}
		s.writeJSON(w, "list", http.StatusOK, jobs)
	}
}

// getJobStatusHandler always answers 200, a job that cannot be inspected is
// reported as unspecified.
func (s *Service) getJobStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		klog.V(4).InfoS("Endpoint hit", "endpoint", "getJobStatus", "job", name)
		st := s.JM.GetJobStatus(r.Context(), name)
		s.writeJSON(w, "status", http.StatusOK, JobStatusResponse{Name: name, Status: st})
	}
}

func (s *Service) getJobPodsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		klog.V(4).InfoS("Endpoint hit", "endpoint", "getJobPods", "job", name)
		pods, err := s.JM.GetJobPods(r.Context(), name)
		if err != nil {
			s.writeError(w, "pods", httpStatus(err), err)
			return
		}
		s.writeJSON(w, "pods", http.StatusOK, pods)
	}
}

func (s *Service) deleteJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		klog.V(4).InfoS("Endpoint hit", "endpoint", "deleteJob", "job", name)

		start := time.Now()
		if err := s.JM.RemoveJob(r.Context(), name); err != nil {
			s.writeError(w, "delete", httpStatus(err), err)
			return
		}
		s.Metrics.deleteJobSuccessDuration.Observe(time.Since(start).Seconds())

		if s.recorder != nil {
			// best effort, the job is already gone
			_ = s.recorder.RecordDeletion(s.JM.Namespace(), name, start)
		}
		s.notify(rabbitmq.VerbDelete, name)
		s.writeJSON(w, "delete", http.StatusOK, DeleteJobResponse{Name: name, Deleted: true})
	}
}

func (s *Service) listEventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		klog.V(4).InfoS("Endpoint hit", "endpoint", "listEvents")
		events := s.JM.ListEvents(r.Context())
		if events == nil {
			s.writeError(w, "events", http.StatusBadGateway, errors.New("failed to list events"))
			return
		}
		s.writeJSON(w, "events", http.StatusOK, events)
	}
}

func (s *Service) recordSubmission(d jobmaster.JobDescriptor, at time.Time) {
	if s.recorder == nil {
		return
	}
	record := mongo.JobRecord{
		Name:        d.Name,
		Namespace:   s.JM.Namespace(),
		Image:       d.Image,
		Command:     d.Command,
		Args:        d.Args,
		Accelerator: s.JM.Accelerator().Type,
		Submitted:   at,
	}
	// The job is accepted by the cluster at this point, a failed insert is
	// logged by the recorder and not reported to the caller.
	_ = s.recorder.RecordSubmission(record)
}

func (s *Service) notify(verb rabbitmq.VerbType, name string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Publish(rabbitmq.Msg{Verb: verb, JobName: name, Namespace: s.JM.Namespace()})
}

// httpStatus maps a classified orchestrator error to a response code.
// Anything the cluster refused for other reasons is a bad gateway.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, kerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, kerrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, kerrors.ErrInvalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *Service) writeJSON(w http.ResponseWriter, handler string, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.ErrorS(err, "Failed to encode response", "handler", handler)
	}
	s.Metrics.requestsCounter.WithLabelValues(handler, strconv.Itoa(code)).Inc()
}

func (s *Service) writeError(w http.ResponseWriter, handler string, code int, err error) {
	s.writeJSON(w, handler, code, ErrorResponse{Error: err.Error()})
}
