package jobmaster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/heyfey/gpujob/config"
	"github.com/heyfey/gpujob/pkg/common/kerrors"
	"github.com/heyfey/gpujob/pkg/common/types"
	"github.com/heyfey/gpujob/pkg/status"
	"github.com/prometheus/client_golang/prometheus"
	batchv1 "k8s.io/api/batch/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"
)

// legacyJobNameLabel is set on pods by the job controller. It is only used
// when a job carries no selector, which the API server normally defaults.
const legacyJobNameLabel = "job-name"

// PodSelection decides which of the pods matched by a job's selector
// determine its status.
type PodSelection int

const (
	// PodSelectionFirst classifies the first pod returned by the API server.
	PodSelectionFirst PodSelection = iota
	// PodSelectionAggregate folds all matched pods with status.Aggregate.
	PodSelectionAggregate
)

// JobSummary is one line of ListJobs.
type JobSummary struct {
	Name    string              `json:"name"`
	Status  types.JobStatusType `json:"status"`
	Created time.Time           `json:"created"`
}

// JobMaster creates, inspects and deletes GPU jobs in one namespace. It keeps
// no state between calls, every call goes to the API server once.
type JobMaster struct {
	kClient     kubernetes.Interface
	namespace   string
	accelerator Accelerator
	selection   PodSelection

	registerer prometheus.Registerer
	metrics    JobMasterMetrics
}

type Option func(*JobMaster)

// WithAccelerator overrides DefaultAccelerator.
func WithAccelerator(acc Accelerator) Option {
	return func(jm *JobMaster) { jm.accelerator = acc }
}

func WithPodSelection(s PodSelection) Option {
	return func(jm *JobMaster) { jm.selection = s }
}

// WithRegisterer registers the job master metrics. Without it the metrics are
// collected but not exported.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(jm *JobMaster) { jm.registerer = r }
}

// NewJobMaster creates a job master on top of an authenticated client, see
// connector.Connect.
func NewJobMaster(kClient kubernetes.Interface, namespace string, opts ...Option) *JobMaster {
	if namespace == "" {
		namespace = config.Namespace
	}
	jm := &JobMaster{
		kClient:     kClient,
		namespace:   namespace,
		accelerator: DefaultAccelerator(),
		selection:   PodSelectionFirst,
	}
	for _, opt := range opts {
		opt(jm)
	}
	jm.initJobMasterMetrics()
	return jm
}

func (jm *JobMaster) Namespace() string {
	return jm.namespace
}

func (jm *JobMaster) Accelerator() Accelerator {
	return jm.accelerator
}

// CreateJob submits a job and reports whether the API server accepted it. It
// does not wait for the job to start.
func (jm *JobMaster) CreateJob(ctx context.Context, name string, image string, command []string, args []string) bool {
	err := jm.SubmitJob(ctx, JobDescriptor{Name: name, Image: image, Command: command, Args: args})
	return err == nil
}

// SubmitJob is CreateJob returning the cause of a failure, classified with
// kerrors.
func (jm *JobMaster) SubmitJob(ctx context.Context, d JobDescriptor) error {
	timer := prometheus.NewTimer(jm.metrics.createJobDuration)
	defer timer.ObserveDuration()

	if err := d.Validate(); err != nil {
		err = fmt.Errorf("%w: %v", kerrors.ErrInvalid, err)
		klog.ErrorS(err, "Refused to create job", "job", klog.KRef(jm.namespace, d.Name))
		jm.metrics.observeError("create", err)
		return err
	}

	job := newJob(d, jm.namespace, jm.accelerator)
	created, err := jm.kClient.BatchV1().Jobs(jm.namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		err = kerrors.Classify(err)
		klog.ErrorS(err, "Failed to create job", "job", klog.KRef(jm.namespace, d.Name))
		jm.metrics.observeError("create", err)
		return err
	}

	jm.metrics.jobsCreatedCounter.Inc()
	klog.InfoS("Created job", "job", klog.KObj(created), "image", d.Image,
		"accelerator", jm.accelerator.Type, "status", created.Status)
	return nil
}

// GetJobStatus infers the status of a job from its pods. Missing job, no pods
// yet and API failures all yield types.JobUnspecified.
func (jm *JobMaster) GetJobStatus(ctx context.Context, name string) types.JobStatusType {
	timer := prometheus.NewTimer(jm.metrics.getStatusDuration)
	defer timer.ObserveDuration()

	pods, err := jm.GetJobPods(ctx, name)
	if err != nil {
		if errors.Is(err, kerrors.ErrNotFound) {
			klog.InfoS("Job not found", "job", klog.KRef(jm.namespace, name))
		} else {
			klog.ErrorS(err, "Failed to get job status", "job", klog.KRef(jm.namespace, name))
		}
		jm.metrics.observeError("status", err)
		jm.metrics.observeStatus(types.JobUnspecified)
		return types.JobUnspecified
	}

	s := jm.inferStatus(pods)
	jm.metrics.observeStatus(s)
	klog.V(4).InfoS("Got job status", "job", klog.KRef(jm.namespace, name), "status", s, "numPods", len(pods))
	return s
}

func (jm *JobMaster) inferStatus(pods []types.PodObservation) types.JobStatusType {
	if len(pods) == 0 {
		return types.JobUnspecified
	}
	if jm.selection == PodSelectionAggregate {
		return status.Aggregate(pods)
	}
	if len(pods) > 1 {
		klog.V(4).InfoS("Job selector matched more than one pod, using the first", "pods", len(pods), "pod", pods[0].Name)
	}
	return status.Classify(pods[0])
}

// GetJobPods returns the pods of a job, in the order the API server listed
// them.
func (jm *JobMaster) GetJobPods(ctx context.Context, name string) ([]types.PodObservation, error) {
	job, err := jm.kClient.BatchV1().Jobs(jm.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, kerrors.Classify(err)
	}
	return jm.listJobPods(ctx, job)
}

func (jm *JobMaster) listJobPods(ctx context.Context, job *batchv1.Job) ([]types.PodObservation, error) {
	selector := podSelector(job)
	pods, err := jm.kClient.CoreV1().Pods(jm.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, kerrors.Classify(err)
	}

	observations := make([]types.PodObservation, 0, len(pods.Items))
	for i := range pods.Items {
		observations = append(observations, types.NewPodObservation(&pods.Items[i]))
	}
	return observations, nil
}

// podSelector renders the equality selector of the job's matchLabels.
func podSelector(job *batchv1.Job) string {
	if job.Spec.Selector != nil && len(job.Spec.Selector.MatchLabels) > 0 {
		return labels.SelectorFromSet(job.Spec.Selector.MatchLabels).String()
	}
	return labels.SelectorFromSet(labels.Set{legacyJobNameLabel: job.GetName()}).String()
}

// ListJobs lists the jobs created by this system, i.e. with the app label on
// their pod template, together with their inferred status.
func (jm *JobMaster) ListJobs(ctx context.Context) ([]JobSummary, error) {
	jobs, err := jm.kClient.BatchV1().Jobs(jm.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		err = kerrors.Classify(err)
		jm.metrics.observeError("list", err)
		return nil, err
	}

	summaries := make([]JobSummary, 0, len(jobs.Items))
	for i := range jobs.Items {
		job := &jobs.Items[i]
		if job.Spec.Template.GetLabels()[config.AppLabelKey] != config.AppLabelValue {
			continue
		}
		s := types.JobUnspecified
		pods, err := jm.listJobPods(ctx, job)
		if err != nil {
			klog.ErrorS(err, "Failed to list pods of job", "job", klog.KObj(job))
		} else {
			s = jm.inferStatus(pods)
		}
		summaries = append(summaries, JobSummary{
			Name:    job.GetName(),
			Status:  s,
			Created: job.GetCreationTimestamp().Time,
		})
	}
	return summaries, nil
}

// DeleteJob deletes a job and lets the garbage collector remove its pods. It
// returns false on any error, a job that does not exist included.
func (jm *JobMaster) DeleteJob(ctx context.Context, name string) bool {
	return jm.RemoveJob(ctx, name) == nil
}

// RemoveJob is DeleteJob returning the classified cause of a failure.
func (jm *JobMaster) RemoveJob(ctx context.Context, name string) error {
	timer := prometheus.NewTimer(jm.metrics.deleteJobDuration)
	defer timer.ObserveDuration()

	propagation := metav1.DeletePropagationBackground
	err := jm.kClient.BatchV1().Jobs(jm.namespace).Delete(ctx, name, metav1.DeleteOptions{
		PropagationPolicy: &propagation,
	})
	if err != nil {
		err = kerrors.Classify(err)
		klog.ErrorS(err, "Failed to delete job", "job", klog.KRef(jm.namespace, name))
		jm.metrics.observeError("delete", err)
		return err
	}

	jm.metrics.jobsDeletedCounter.Inc()
	klog.InfoS("Deleted job", "job", klog.KRef(jm.namespace, name))
	return nil
}
