// Package tasks runs deferred interaction work outside the webhook
// request/response cycle.
package tasks

import (
    "context"
    "log"
    "time"

    "github.com/google/uuid"

    "lojabot/internal/metrics"
)

// Dispatcher fires background tasks for handlers that already returned a
// deferred acknowledgement. Tasks are fire-and-forget: nothing awaits or
// cancels them, and each is expected to deliver at most one follow-up call,
// success or failure. A panic inside a task is contained at this boundary.
type Dispatcher struct{}

func NewDispatcher() *Dispatcher { return &Dispatcher{} }

// Go schedules fn on its own goroutine with a fresh background context (the
// request context dies as soon as the deferred ack is written).
func (d *Dispatcher) Go(name string, fn func(ctx context.Context)) {
    id := uuid.NewString()[:8]
    metrics.BackgroundInFlight.Inc()
    go func() {
        start := time.Now()
        defer metrics.BackgroundInFlight.Dec()
        defer func() {
            if r := recover(); r != nil {
                metrics.BackgroundTasks.WithLabelValues(name, "panic").Inc()
                log.Printf("task %s %s panicked after %v: %v", name, id, time.Since(start), r)
            }
        }()
        log.Printf("task %s %s started", name, id)
        fn(context.Background())
        metrics.BackgroundTasks.WithLabelValues(name, "done").Inc()
        log.Printf("task %s %s finished in %v", name, id, time.Since(start))
    }()
}
