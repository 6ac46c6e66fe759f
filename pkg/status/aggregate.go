package status

import (
	"github.com/heyfey/gpujob/pkg/common/types"
)

// Aggregate derives one status from every pod matched by a job's selector,
// independent of the order the API returned them in:
//   1. any pod succeeded -> completed
//   2. any pod running   -> started
//   3. any pod pending   -> pending
//   4. all pods failed   -> failed
//   5. otherwise (no pods, or an unknown pod among failed ones) -> unspecified
func Aggregate(pods []types.PodObservation) types.JobStatusType {
	if len(pods) == 0 {
		return types.JobUnspecified
	}

	counts := make(map[PodState]int)
	for _, pod := range pods {
		counts[State(pod)]++
	}

	switch {
	case counts[PodStateSucceeded] > 0:
		return types.JobCompleted
	case counts[PodStateRunning] > 0:
		return types.JobStarted
	case counts[PodStateQueued]+counts[PodStateScheduled] > 0:
		return types.JobPending
	case counts[PodStateFailed] == len(pods):
		return types.JobFailed
	default:
		return types.JobUnspecified
	}
}
