package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "syncpad", Name: "active_connections", Help: "Number of currently open collaboration sessions."},
	)
	DeltasRelayed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "syncpad", Name: "deltas_relayed_total", Help: "Number of change deltas forwarded to room members."},
	)
	DeltasDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "syncpad", Name: "deltas_dropped_total", Help: "Number of change deltas dropped, by reason."},
		[]string{"reason"},
	)
	SnapshotsPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "syncpad", Name: "snapshots_persisted_total", Help: "Number of document snapshots written to the durable store."},
	)
	SnapshotFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "syncpad", Name: "snapshot_failures_total", Help: "Number of durable-store snapshot writes that failed."},
	)
	PresenceBroadcasts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "syncpad", Name: "presence_broadcasts_total", Help: "Number of presence set recomputations broadcast to rooms."},
	)
	AccessDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "syncpad", Name: "access_denied_total", Help: "Number of denied operations, by surface."},
		[]string{"surface"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "syncpad", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "syncpad", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		ActiveConnections,
		DeltasRelayed,
		DeltasDropped,
		SnapshotsPersisted,
		SnapshotFailures,
		PresenceBroadcasts,
		AccessDenied,
		RateLimitAllowed,
		RateLimitRejected,
	)
}
