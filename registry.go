package feedq

import (
	"strconv"
	"sync"
)

// Registry hands out one [Duplex] per device ordinal, creating it on
// first use. A host runtime typically keeps a single registry and
// resolves the queue pair for whichever device a computation happens to
// be bound to.
type Registry struct {
	options []Option

	mu      sync.Mutex
	devices map[int]*Duplex
}

// NewRegistry creates an empty registry. The options are applied to every
// duplex the registry creates; each pair is named device<ordinal>.
func NewRegistry(options ...Option) *Registry {
	return &Registry{
		options: options,
		devices: make(map[int]*Duplex),
	}
}

// Device returns the duplex of the given device ordinal, creating it on
// first use. Concurrent calls with the same ordinal return the same
// instance.
func (r *Registry) Device(ordinal int) *Duplex {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[ordinal]
	if !ok {
		options := append([]Option{}, r.options...)
		options = append(options, WithName("device"+strconv.Itoa(ordinal)))
		d = NewDuplex(options...)
		r.devices[ordinal] = d
	}

	return d
}

// Reset resets every duplex created so far, see [Duplex.Reset]. Devices
// are independent, so the order is unspecified.
func (r *Registry) Reset() {
	r.mu.Lock()
	devices := make([]*Duplex, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d)
	}
	r.mu.Unlock()

	// Done callbacks fire during reset, keep the registry unlocked.
	for _, d := range devices {
		d.Reset()
	}
}
