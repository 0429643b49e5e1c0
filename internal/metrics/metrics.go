// Package metrics holds the Prometheus collectors of the credential service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDropped = "dropped"
)

var (
	// operationsTotal counts state machine operations by outcome.
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_operations_total",
		Help: "Total number of credential operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// notificationsTotal counts notification deliveries by kind and outcome.
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_notifications_total",
		Help: "Total number of notification deliveries by kind and outcome",
	}, []string{"kind", "outcome"})
)

// RecordOperation increments the operation counter. A nil err is a success.
func RecordOperation(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordNotification increments the notification counter
func RecordNotification(kind, outcome string) {
	notificationsTotal.WithLabelValues(kind, outcome).Inc()
}
