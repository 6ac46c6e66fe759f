package jobmaster

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

var eventsStart = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newEvent(name string, offset time.Duration, reason string) *corev1.Event {
	return &corev1.Event{
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			Namespace:         testNamespace,
			CreationTimestamp: metav1.NewTime(eventsStart.Add(offset)),
		},
		Reason:  reason,
		Message: reason + " message",
	}
}

func Test_ListEvents_Sorted(t *testing.T) {
	f := newFixture(t)
	f.kubeObjects = append(f.kubeObjects,
		newEvent("e3", 3*time.Second, "Completed"),
		newEvent("e1", 1*time.Second, "Scheduled"),
		newEvent("e2", 2*time.Second, "Started"),
		newEvent("e0", 0, "SuccessfulCreate"),
	)
	jm := f.newJobMaster()

	events := jm.ListEvents(context.Background())
	require.Len(t, events, 4)
	require.True(t, sort.SliceIsSorted(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	}))
	require.Equal(t, EventRecord{
		Time:      eventsStart,
		Namespace: testNamespace,
		Name:      "e0",
		Reason:    "SuccessfulCreate",
		Message:   "SuccessfulCreate message",
	}, events[0])
	require.Equal(t, "Completed", events[3].Reason)

	// same cluster state, same output
	require.Equal(t, events, jm.ListEvents(context.Background()))
}

func Test_ListEvents_Empty(t *testing.T) {
	f := newFixture(t)
	jm := f.newJobMaster()

	events := jm.ListEvents(context.Background())
	require.NotNil(t, events)
	require.Empty(t, events)
}

func Test_ListEvents_Failure(t *testing.T) {
	f := newFixture(t)
	f.kubeObjects = append(f.kubeObjects, newEvent("e0", 0, "Scheduled"))
	jm := f.newJobMaster()
	f.failOn("list", "events", apierrors.NewInternalError(errors.New("boom")))

	require.Nil(t, jm.ListEvents(context.Background()))
}

func Test_ListEvents_Only_Namespace(t *testing.T) {
	f := newFixture(t)
	other := newEvent("elsewhere", 0, "Scheduled")
	other.Namespace = "kube-system"
	f.kubeObjects = append(f.kubeObjects, other, newEvent("here", time.Second, "Pulled"))
	jm := f.newJobMaster()

	events := jm.ListEvents(context.Background())
	require.Len(t, events, 1)
	require.Equal(t, "here", events[0].Name)
}

func Test_EventRecords_Stable_For_Equal_Timestamps(t *testing.T) {
	events := []corev1.Event{
		*newEvent("late", time.Minute, "Completed"),
		*newEvent("tie-a", 0, "Pulling"),
		*newEvent("tie-b", 0, "Pulled"),
		*newEvent("tie-c", 0, "Created"),
	}

	records := eventRecords(events)
	names := []string{}
	for _, r := range records {
		names = append(names, r.Name)
	}
	require.Equal(t, []string{"tie-a", "tie-b", "tie-c", "late"}, names)
}

func Test_EventRecord_JSON(t *testing.T) {
	data, err := json.Marshal(EventRecord{
		Time:      eventsStart,
		Namespace: "default",
		Name:      "ml-job-03.17b",
		Reason:    "Completed",
		Message:   "Job completed",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"time": "2024-03-01T10:00:00Z",
		"namespace": "default",
		"name": "ml-job-03.17b",
		"reason": "Completed",
		"message": "Job completed"
	}`, string(data))
}
