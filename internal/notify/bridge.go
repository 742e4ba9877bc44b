package notify

import (
	"sync"

	"github.com/brandlens/brandlens/internal/queue"
)

// Broadcaster receives job update snapshots for delivery to clients.
type Broadcaster interface {
	BroadcastJobUpdate(job queue.Job)
}

// BridgeJob subscribes to a job's updates and forwards each snapshot to the
// broadcaster. The subscription removes itself after forwarding the first
// terminal update, so listener lists do not accumulate for finished jobs.
// The returned function detaches early; calling it twice is harmless.
func BridgeJob(jobs *queue.JobQueue, b Broadcaster, jobID string) func() {
	var mu sync.Mutex
	var unsubscribe func()

	detach := func() {
		mu.Lock()
		u := unsubscribe
		unsubscribe = nil
		mu.Unlock()
		if u != nil {
			u()
		}
	}

	mu.Lock()
	unsubscribe = jobs.Subscribe(jobID, func(job queue.Job) error {
		// Detach before forwarding so no update can slip in between the
		// terminal broadcast and the unsubscribe.
		if job.Status.Terminal() {
			detach()
		}
		b.BroadcastJobUpdate(job)
		return nil
	})
	mu.Unlock()

	return detach
}
