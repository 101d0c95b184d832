package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the bot
    Registry = prometheus.NewRegistry()
    // Interactions counts inbound interactions by kind and outcome
    Interactions = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "interactions_total", Help: "Inbound interactions by kind and outcome."},
        []string{"kind", "outcome"},
    )
    // InteractionDuration records synchronous handling time in seconds
    InteractionDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "interaction_duration_seconds", Help: "Synchronous interaction handling duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"kind"},
    )
    // BackgroundTasks counts deferred task outcomes by name and status
    BackgroundTasks = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "background_tasks_total", Help: "Deferred tasks by name and status."},
        []string{"name", "status"},
    )
    // BackgroundInFlight tracks currently running deferred tasks
    BackgroundInFlight = prometheus.NewGauge(
        prometheus.GaugeOpts{Name: "background_tasks_in_flight", Help: "Deferred tasks currently running."},
    )
    // PlatformRequests counts outbound platform REST calls by operation and status
    PlatformRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "platform_requests_total", Help: "Outbound platform API calls by op and status."},
        []string{"op", "status"},
    )
)

// RegisterDefault registers collectors to the registry.
func RegisterDefault() {
    regOnce.Do(func() {
        Registry.MustRegister(Interactions)
        Registry.MustRegister(InteractionDuration)
        Registry.MustRegister(BackgroundTasks)
        Registry.MustRegister(BackgroundInFlight)
        Registry.MustRegister(PlatformRequests)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
