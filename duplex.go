package feedq

// Duplex pairs the two hand-off queues a hosted computation needs: an
// inbound queue carrying buffers into the computation and an outbound
// queue carrying results back out. The two queues are fully independent,
// Duplex adds no coordination beyond a convenience reset.
type Duplex struct {
	in  *Queue
	out *Queue
}

// NewDuplex creates the inbound/outbound queue pair. Both queues share
// the given options; their names are the configured name (see [WithName])
// suffixed with "/in" and "/out".
func NewDuplex(options ...Option) *Duplex {
	cfg := newConfig(options...)
	named := func(name string) []Option {
		return append(append([]Option{}, options...), WithName(name))
	}
	return &Duplex{
		in:  NewQueue(named(cfg.name + "/in")...),
		out: NewQueue(named(cfg.name + "/out")...),
	}
}

// Inbound returns the queue feeding buffers into the computation.
func (d *Duplex) Inbound() *Queue {
	return d.in
}

// Outbound returns the queue carrying results out of the computation.
func (d *Duplex) Outbound() *Queue {
	return d.out
}

// Reset resets the inbound queue and then the outbound queue, see
// [Queue.Reset]. The two resets are not atomic with respect to each
// other; no invariant spans the two queues.
func (d *Duplex) Reset() {
	d.in.Reset()
	d.out.Reset()
}
