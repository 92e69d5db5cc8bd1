//go:build feedq_debug

package feedq

// checkEnqueue validates the enqueue preconditions that are too expensive
// for release builds: every buffer must be non-nil and must not already be
// queued or checked out. Called with q.mu held.
func checkEnqueue(q *Queue, bufs []Buffer) {
	for i, buf := range bufs {
		if buf == nil {
			panic("feedq: enqueue of a nil buffer")
		}
		if buf == q.current {
			panic("feedq: enqueue of the checked-out buffer")
		}
		for _, p := range q.pending {
			if p == buf {
				panic("feedq: buffer enqueued twice")
			}
		}
		for _, p := range bufs[:i] {
			if p == buf {
				panic("feedq: buffer enqueued twice")
			}
		}
	}
}
