package jobmaster

import (
	"errors"

	"github.com/heyfey/gpujob/config"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// JobDescriptor is what a caller asks to run: one container on one GPU.
type JobDescriptor struct {
	// Name must be unique in the namespace, the cluster rejects duplicates.
	Name    string   `json:"name"`
	Image   string   `json:"image"`
	Command []string `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// Accelerator is the hardware every job is pinned to.
type Accelerator struct {
	// Resource is the extended resource key, e.g. "nvidia.com/gpu".
	Resource corev1.ResourceName
	// NodeLabel and Type form the node selector, e.g.
	// "cloud.google.com/gke-accelerator": "nvidia-tesla-t4".
	NodeLabel string
	Type      string
}

// DefaultAccelerator returns the accelerator configured in package config.
func DefaultAccelerator() Accelerator {
	return Accelerator{
		Resource:  config.AcceleratorResource,
		NodeLabel: config.AcceleratorLabel,
		Type:      config.AcceleratorType,
	}
}

// Validate only checks what is needed to build a Job object. Everything else
// (name syntax, image reference) is left to the API server.
func (d JobDescriptor) Validate() error {
	if d.Name == "" {
		return errors.New("job name must not be empty")
	}
	if d.Image == "" {
		return errors.New("job image must not be empty")
	}
	return nil
}

// newJob renders the descriptor as a batch/v1 Job: a single container limited
// to exactly one accelerator unit, node selector on the accelerator type,
// restartPolicy Never and backoffLimit 0 so a failed pod is never retried.
func newJob(d JobDescriptor, namespace string, acc Accelerator) *batchv1.Job {
	backoffLimit := int32(0)

	container := corev1.Container{
		Name:    d.Name,
		Image:   d.Image,
		Command: d.Command,
		Args:    d.Args,
		Resources: corev1.ResourceRequirements{
			Limits: corev1.ResourceList{
				acc.Resource: resource.MustParse("1"),
			},
		},
	}

	template := corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{
			Labels: map[string]string{config.AppLabelKey: config.AppLabelValue},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers:    []corev1.Container{container},
			NodeSelector:  map[string]string{acc.NodeLabel: acc.Type},
		},
	}

	return &batchv1.Job{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "batch/v1",
			Kind:       "Job",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.Name,
			Namespace: namespace,
		},
		Spec: batchv1.JobSpec{
			Template:     template,
			BackoffLimit: &backoffLimit,
		},
	}
}
