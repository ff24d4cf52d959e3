// Package metrics defines the custom Prometheus metrics of the user service.
// They register on the default registry at init through promauto; HTTP
// request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/apiusers/user-service/internal/core/ports"
)

const namespace = "users"

// UserWritesTotal counts committed user writes.
// Label:
//   - op: "create", "update" or "delete"
var UserWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "writes_total",
		Help:      "Total number of committed user writes, by operation.",
	},
	[]string{"op"},
)

// EmailConflictsTotal counts requests rejected with 409.
// Label:
//   - stage: "precheck" (repository lookup) or "commit" (unique index)
var EmailConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_conflicts_total",
		Help:      "Total number of duplicate-email rejections, by detection stage.",
	},
	[]string{"stage"},
)

// IdempotentReplaysTotal counts creates answered from a stored Idempotency-Key.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of POST /users requests replayed from an Idempotency-Key.",
	},
)

// StoreErrorsTotal counts record store failures surfaced as 5xx.
// Label:
//   - op: the service operation that failed
var StoreErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Total number of record store failures, by operation.",
	},
	[]string{"op"},
)

// UserRecorder feeds the counters above from the service layer.
type UserRecorder struct{}

var _ ports.UserMetrics = UserRecorder{}

func (UserRecorder) UserWritten(op string)      { UserWritesTotal.WithLabelValues(op).Inc() }
func (UserRecorder) EmailConflict(stage string) { EmailConflictsTotal.WithLabelValues(stage).Inc() }
func (UserRecorder) IdempotentReplay()          { IdempotentReplaysTotal.Inc() }
func (UserRecorder) StoreError(op string)       { StoreErrorsTotal.WithLabelValues(op).Inc() }
