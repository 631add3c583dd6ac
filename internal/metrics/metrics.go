package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Messages persisted per storage mode
	MessagesAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persiq_messages_added_total",
			Help: "Total number of messages persisted to storage",
		},
		[]string{"mode"},
	)

	// Messages removed per storage mode
	MessagesPopped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persiq_messages_popped_total",
			Help: "Total number of messages popped from storage",
		},
		[]string{"mode"},
	)

	// Messages dispatched by listener loops
	ListenerMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "persiq_listener_messages_total",
			Help: "Total number of messages dispatched to callbacks",
		},
	)

	// Errors routed to exception callbacks
	ListenerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "persiq_listener_errors_total",
			Help: "Total number of errors routed to exception callbacks",
		},
	)
)
