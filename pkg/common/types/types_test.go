package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func Test_NewPodObservation(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "ml-job-03-abcde", CreationTimestamp: metav1.NewTime(created)},
		Status: corev1.PodStatus{
			Phase: corev1.PodPending,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodScheduled, Status: corev1.ConditionTrue},
				{Type: corev1.ContainersReady, Status: corev1.ConditionFalse, Reason: "ContainersNotReady"},
			},
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: "a", State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "ContainerCreating"}}},
				{Name: "b", State: corev1.ContainerState{Running: &corev1.ContainerStateRunning{}}},
				{Name: "c", State: corev1.ContainerState{Terminated: &corev1.ContainerStateTerminated{Reason: "Completed"}}},
				{Name: "d"},
			},
		},
	}

	o := NewPodObservation(pod)
	require.Equal(t, "ml-job-03-abcde", o.Name)
	require.Equal(t, corev1.PodPending, o.Phase)
	require.Equal(t, created, o.Created)
	require.Equal(t, []PodCondition{
		{Type: "PodScheduled", Status: "True"},
		{Type: "ContainersReady", Status: "False", Reason: "ContainersNotReady"},
	}, o.Conditions)
	require.Equal(t, []ContainerObservation{
		{Name: "a", State: ContainerWaiting, Reason: "ContainerCreating"},
		{Name: "b", State: ContainerRunning},
		{Name: "c", State: ContainerTerminated, Reason: "Completed"},
		{Name: "d", State: ContainerUnknown},
	}, o.Containers)
}

func Test_PodObservation_Condition(t *testing.T) {
	o := PodObservation{Conditions: []PodCondition{
		{Type: "Initialized", Status: "True"},
		{Type: "PodScheduled", Status: "False", Reason: "Unschedulable"},
	}}

	c, ok := o.Condition("PodScheduled")
	require.True(t, ok)
	require.Equal(t, "False", c.Status)
	require.Equal(t, "Unschedulable", c.Reason)

	_, ok = o.Condition("Ready")
	require.False(t, ok)

	_, ok = PodObservation{}.Condition("PodScheduled")
	require.False(t, ok)
}
