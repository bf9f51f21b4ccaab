package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkparty_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// SweepPartiesDeleted counts parties removed by the cleanup sweep.
	SweepPartiesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkparty_sweep_parties_deleted_total",
		Help: "Total number of expired parties deleted by the cleanup sweep",
	})

	// SweepImageDeleteFailures counts storage deletions that failed during the sweep.
	SweepImageDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkparty_sweep_image_delete_failures_total",
		Help: "Total number of queued-image storage deletions that failed during cleanup",
	})

	// WebhookEventsTotal counts verified email webhook events by type.
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkparty_webhook_events_total",
		Help: "Total number of verified email webhook events by type",
	}, []string{"type"})

	// NotificationFanout counts side-channel deliveries by channel and outcome.
	NotificationFanout = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkparty_notification_fanout_total",
		Help: "Total number of notification side-channel deliveries by channel and outcome",
	}, []string{"channel", "outcome"})
)
