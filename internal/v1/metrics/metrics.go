// Package metrics declares Prometheus metrics for the relay, kept close
// to business logic and avoiding coupling between packages.
//
// Naming convention: namespace_subsystem_name
// - namespace: relay (application-level grouping)
// - subsystem: session, scene, entity, admission, chat, redis, rate_limit,
//   circuit_breaker (feature-level grouping)
// - name: specific metric (connections_active, rejects_total, etc.)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks the current number of connected players.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relay",
		Subsystem: "session",
		Name:      "connections_active",
		Help:      "Current number of connected players",
	})

	// ActiveScenes tracks the current number of non-empty scenes.
	ActiveScenes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relay",
		Subsystem: "scene",
		Name:      "scenes_active",
		Help:      "Current number of scenes with at least one occupant",
	})

	// ScenePopulation tracks the occupant count of each scene.
	ScenePopulation = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "relay",
		Subsystem: "scene",
		Name:      "population",
		Help:      "Number of players currently occupying each scene",
	}, []string{"scene"})

	// CachedEntities tracks the current number of cached entity states.
	CachedEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relay",
		Subsystem: "entity",
		Name:      "cached_total",
		Help:      "Current number of cached entity states across all scenes",
	})

	// HostElections counts scene host elections and transfers by cause.
	HostElections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "scene",
		Name:      "host_elections_total",
		Help:      "Total scene host elections and transfers",
	}, []string{"cause"})

	// AdmissionRejects counts LoginRequest rejections by RejectCode.
	AdmissionRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "admission",
		Name:      "rejects_total",
		Help:      "Total LoginRequest rejections by reason",
	}, []string{"reason"})

	// ChatMessagesRouted counts chat frames by how they were resolved.
	ChatMessagesRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "chat",
		Name:      "messages_routed_total",
		Help:      "Total chat frames routed, by outcome",
	}, []string{"outcome"})

	// InboundFrames counts every dispatched InboundMessage by kind.
	InboundFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "router",
		Name:      "inbound_frames_total",
		Help:      "Total inbound frames dispatched, by kind",
	}, []string{"kind"})

	// FrameProcessingDuration tracks per-frame handler latency.
	FrameProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relay",
		Subsystem: "router",
		Name:      "frame_processing_seconds",
		Help:      "Time spent processing an inbound frame",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
	}, []string{"kind"})

	// CircuitBreakerState tracks the current state of a circuit breaker.
	// 0: Closed (Healthy), 1: Open (Failure), 2: Half-Open (Recovering)
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "relay",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current state of the circuit breaker (0: Closed, 1: Open, 2: Half-Open)",
	}, []string{"service"})

	// CircuitBreakerFailures tracks requests rejected by an open breaker.
	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "circuit_breaker",
		Name:      "failures_total",
		Help:      "Total requests rejected by the circuit breaker",
	}, []string{"service"})

	// RateLimitExceeded tracks requests that exceeded a rate limit.
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "rate_limit",
		Name:      "exceeded_total",
		Help:      "Total number of requests that exceeded the rate limit",
	}, []string{"category"})

	// RateLimitAllowed tracks requests that passed a rate limit check.
	RateLimitAllowed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "rate_limit",
		Name:      "allowed_total",
		Help:      "Total number of requests that passed a rate limit check",
	}, []string{"category"})

	// WebSocketEvents counts websocket connection lifecycle events by
	// kind (connect, disconnect, upgrade_error, read_error, write_error)
	// and status.
	WebSocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total websocket connection lifecycle events, by kind and status",
	}, []string{"kind", "status"})

	// RedisOperationsTotal tracks Redis operations performed by accesslists/bus.
	RedisOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "redis",
		Name:      "operations_total",
		Help:      "Total number of Redis operations",
	}, []string{"operation", "status"})

	// RedisOperationDuration tracks the duration of Redis operations.
	RedisOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relay",
		Subsystem: "redis",
		Name:      "operation_duration_seconds",
		Help:      "Duration of Redis operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func IncSession() { ActiveSessions.Inc() }
func DecSession() { ActiveSessions.Dec() }
