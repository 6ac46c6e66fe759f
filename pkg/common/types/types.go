package types

import (
	"time"

	corev1 "k8s.io/api/core/v1"
)

// JobStatusType is the status vocabulary exposed to callers. It is derived
// from the job's pod on every query and never stored.
type JobStatusType string

const (
	// JobPending means the job's pod exists but its containers are not running
	// yet, either because it is waiting for a node with a free accelerator or
	// because images are still being pulled.
	JobPending JobStatusType = "pending"

	// JobStarted means the pod is bound to a node and at least one container
	// is running.
	JobStarted JobStatusType = "started"

	// JobCompleted means all containers of the pod terminated in success.
	JobCompleted JobStatusType = "completed"

	// JobFailed means the pod terminated with a failure. Jobs are submitted
	// with backoffLimit 0 so a failed job is never retried by the cluster.
	JobFailed JobStatusType = "failed"

	// JobUnspecified covers everything else: job or pod not found, API
	// failures and pods in phase Unknown.
	JobUnspecified JobStatusType = "unspecified"
)

// ContainerStateType is the active state of a container.
type ContainerStateType string

const (
	ContainerWaiting    ContainerStateType = "Waiting"
	ContainerRunning    ContainerStateType = "Running"
	ContainerTerminated ContainerStateType = "Terminated"
	// ContainerUnknown is reported when the kubelet has not published any state.
	ContainerUnknown ContainerStateType = "Unknown"
)

// PodCondition is a single pod condition, looked up by Type.
type PodCondition struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ContainerObservation is the state of one container of a pod.
type ContainerObservation struct {
	Name   string             `json:"name"`
	State  ContainerStateType `json:"state"`
	Reason string             `json:"reason,omitempty"`
}

// PodObservation is the part of a pod that status inference looks at.
type PodObservation struct {
	Name       string                 `json:"name"`
	Phase      corev1.PodPhase        `json:"phase"`
	Conditions []PodCondition         `json:"conditions,omitempty"`
	Containers []ContainerObservation `json:"containers,omitempty"`
	Created    time.Time              `json:"created"`
}

// NewPodObservation extracts a PodObservation from a pod.
func NewPodObservation(pod *corev1.Pod) PodObservation {
	o := PodObservation{
		Name:    pod.GetName(),
		Phase:   pod.Status.Phase,
		Created: pod.GetCreationTimestamp().Time,
	}
	for _, c := range pod.Status.Conditions {
		o.Conditions = append(o.Conditions, PodCondition{
			Type:   string(c.Type),
			Status: string(c.Status),
			Reason: c.Reason,
		})
	}
	for _, cs := range pod.Status.ContainerStatuses {
		o.Containers = append(o.Containers, newContainerObservation(cs))
	}
	return o
}

func newContainerObservation(cs corev1.ContainerStatus) ContainerObservation {
	c := ContainerObservation{Name: cs.Name, State: ContainerUnknown}
	switch {
	case cs.State.Waiting != nil:
		c.State = ContainerWaiting
		c.Reason = cs.State.Waiting.Reason
	case cs.State.Running != nil:
		c.State = ContainerRunning
	case cs.State.Terminated != nil:
		c.State = ContainerTerminated
		c.Reason = cs.State.Terminated.Reason
	}
	return c
}

// Condition returns the condition of the given type, if present.
func (o PodObservation) Condition(condType string) (PodCondition, bool) {
	for _, c := range o.Conditions {
		if c.Type == condType {
			return c, true
		}
	}
	return PodCondition{}, false
}
