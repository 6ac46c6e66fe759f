package status

import (
	"github.com/heyfey/gpujob/pkg/common/types"
	corev1 "k8s.io/api/core/v1"
)

// PodState is a finer grained view of a pod than types.JobStatusType. Several
// states may share one external label, see Label.
type PodState int

const (
	PodStateUnknown PodState = iota
	// PodStateQueued: pending and not scheduled yet, the cluster has no node
	// with a free accelerator.
	PodStateQueued
	// PodStateScheduled: pending but bound to a node, containers are being
	// created.
	PodStateScheduled
	PodStateRunning
	PodStateSucceeded
	PodStateFailed
)

func (s PodState) String() string {
	switch s {
	case PodStateQueued:
		return "Queued"
	case PodStateScheduled:
		return "Scheduled"
	case PodStateRunning:
		return "Running"
	case PodStateSucceeded:
		return "Succeeded"
	case PodStateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// State derives the PodState from the pod's phase. Only a pending pod looks
// further, at its PodScheduled condition.
func State(pod types.PodObservation) PodState {
	switch pod.Phase {
	case corev1.PodSucceeded:
		return PodStateSucceeded
	case corev1.PodFailed:
		return PodStateFailed
	case corev1.PodRunning:
		return PodStateRunning
	case corev1.PodPending:
		if isUnscheduled(pod) {
			return PodStateQueued
		}
		return PodStateScheduled
	default:
		return PodStateUnknown
	}
}

// isUnscheduled reports whether the PodScheduled condition is present and False.
func isUnscheduled(pod types.PodObservation) bool {
	c, ok := pod.Condition(string(corev1.PodScheduled))
	return ok && c.Status == string(corev1.ConditionFalse)
}

// Label maps a PodState to the external status label. Queued and Scheduled
// both report pending.
func Label(s PodState) types.JobStatusType {
	switch s {
	case PodStateSucceeded:
		return types.JobCompleted
	case PodStateFailed:
		return types.JobFailed
	case PodStateRunning:
		return types.JobStarted
	case PodStateQueued, PodStateScheduled:
		return types.JobPending
	default:
		return types.JobUnspecified
	}
}

// Classify returns the status label of a single pod.
func Classify(pod types.PodObservation) types.JobStatusType {
	return Label(State(pod))
}
