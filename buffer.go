package feedq

// Buffer is a borrowed reference to producer-owned storage that moves
// through a [Queue]. The queue never copies, reads or frees the storage;
// it holds the reference until the consumer is finished with it and then
// reports, through Done, that it will never touch the buffer again.
//
// Implementations must keep Len and Bytes stable from the moment the
// buffer is enqueued until Done fires.
type Buffer interface {
	// Len returns the byte count of the buffer. It is fixed for the
	// buffer's lifetime.
	Len() int

	// Bytes returns the buffer's storage. The slice identity matters:
	// [Queue.Release] validates both its length and its backing array.
	Bytes() []byte

	// Done tells the owner that the queue and its consumer are finished
	// with the buffer. It is called exactly once per enqueued buffer,
	// either by [Queue.Release] or by [Queue.Reset], and never with a
	// queue lock held. Ownership of the storage returns to the producer
	// when Done fires.
	Done()
}
