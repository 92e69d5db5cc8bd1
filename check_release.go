//go:build !feedq_debug

package feedq

// Enqueue preconditions are verified only in builds tagged feedq_debug,
// see check_debug.go.
func checkEnqueue(*Queue, []Buffer) {}
