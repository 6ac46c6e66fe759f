package jobmaster

import (
	"context"
	"sort"
	"time"

	"github.com/heyfey/gpujob/pkg/common/kerrors"
	"github.com/prometheus/client_golang/prometheus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
)

// EventRecord is the projection of a namespace event returned by ListEvents.
type EventRecord struct {
	Time      time.Time `json:"time"`
	Namespace string    `json:"namespace"`
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
}

// ListEvents lists all events of the namespace, oldest first. Events with
// equal timestamps keep the order the API server returned them in. On
// failure it logs and returns nil, never a partial list.
func (jm *JobMaster) ListEvents(ctx context.Context) []EventRecord {
	timer := prometheus.NewTimer(jm.metrics.listEventsDuration)
	defer timer.ObserveDuration()

	events, err := jm.kClient.CoreV1().Events(jm.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		err = kerrors.Classify(err)
		klog.ErrorS(err, "Failed to list events", "namespace", jm.namespace)
		jm.metrics.observeError("events", err)
		return nil
	}

	records := eventRecords(events.Items)
	klog.V(4).InfoS("Listed events", "namespace", jm.namespace, "numEvents", len(records))
	return records
}

// eventRecords sorts events by creation timestamp in place and projects them.
func eventRecords(events []corev1.Event) []EventRecord {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreationTimestamp.Before(&events[j].CreationTimestamp)
	})

	records := make([]EventRecord, 0, len(events))
	for _, e := range events {
		records = append(records, EventRecord{
			Time:      e.CreationTimestamp.Time,
			Namespace: e.GetNamespace(),
			Name:      e.GetName(),
			Reason:    e.Reason,
			Message:   e.Message,
		})
	}
	return records
}
