package gepa

import "context"

// Semaphore bounds the number of in-flight LLM gateway calls to width N,
// shared by the Evaluator and the Mutator of one run. Scheduler.Run
// creates a new Semaphore per run, so concurrent runs in one process do
// not share a gate. The gate is not guaranteed FIFO, only bounded.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore of the given width. Width must be >= 1.
func NewSemaphore(width int) *Semaphore {
	if width < 1 {
		width = 1
	}
	return &Semaphore{slots: make(chan struct{}, width)}
}

// Acquire blocks until a slot is free or ctx is cancelled.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (s *Semaphore) Release() {
	<-s.slots
}
