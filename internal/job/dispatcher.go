package job

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Handler executes one job type.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job *Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// Dispatcher routes jobs to the handler registered for their type. Jobs
// loaded back from storage carry only a type and a payload, so this is what
// makes them executable again.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Type]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Type]Handler)}
}

// Register binds h to typ, replacing any previous handler.
func (d *Dispatcher) Register(typ Type, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[typ] = h
}

// Dispatch runs the handler for job.Type. An unknown type is a permanent error.
func (d *Dispatcher) Dispatch(ctx context.Context, job *Job) error {
	d.mu.RLock()
	h, ok := d.handlers[job.Type]
	d.mu.RUnlock()
	if !ok {
		return Permanent(fmt.Errorf("%w: %s", ErrUnknownType, job.Type))
	}
	return h.Handle(ctx, job)
}

// maxBackoff caps the delay between retries.
const maxBackoff = 5 * time.Minute

// Backoff returns the delay before the next try after attempt attempts,
// doubling base each time.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
