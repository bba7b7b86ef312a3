package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_published_total",
		Help: "Total number of events accepted by the broker, labelled by routing key.",
	}, []string{"routing_key"})

	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_publish_failures_total",
		Help: "Total number of publishes rejected by the broker, labelled by routing key.",
	}, []string{"routing_key"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_consumed_total",
		Help: "Total number of consumption attempts, labelled by queue and outcome.",
	}, []string{"queue", "outcome"})

	EventsRetried = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_retried_total",
		Help: "Total number of messages sent to a retry queue, labelled by queue.",
	}, []string{"queue"})

	EventsDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_dead_lettered_total",
		Help: "Total number of messages routed to the dead-letter queue, labelled by queue and reason.",
	}, []string{"queue", "reason"})

	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_dispatch_duration_seconds",
		Help:    "Time spent handling one delivery, decode through ack decision.",
		Buckets: prometheus.DefBuckets,
	}, []string{"queue"})
)
