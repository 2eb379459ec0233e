package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	workflowOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_operations_total",
			Help: "Total workflow operations by outcome",
		},
		[]string{"operation", "status"},
	)

	chainCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chain_call_duration_seconds",
			Help:    "Duration of chain gateway calls including confirmation wait",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"method"},
	)

	reputationPenalties = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reputation_penalties_total",
			Help: "Total missed-event reputation penalties applied",
		},
	)

	inflightGuards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inflight_guards_total",
			Help: "Current number of held workflow guards",
		},
	)
)

// TrackWorkflow counts one workflow operation outcome.
func TrackWorkflow(operation, status string) {
	workflowOperations.WithLabelValues(operation, status).Inc()
}

// TrackChainCall records the duration of one chain gateway call.
func TrackChainCall(method string, duration time.Duration) {
	chainCallDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// TrackPenalties counts applied missed-event penalties.
func TrackPenalties(n int) {
	reputationPenalties.Add(float64(n))
}

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		m.collectGuardMetrics(ctx)
	}
}

func (m *Monitor) collectGuardMetrics(ctx context.Context) {
	keys, _ := m.redis.Keys(ctx, "inflight:*").Result()
	inflightGuards.Set(float64(len(keys)))
}
