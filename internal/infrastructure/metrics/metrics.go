package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Requests tracks maze requests by method and outcome status.
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maze_requests_total",
		Help: "Total number of requests handled by the deception engine",
	}, []string{"method", "status"})

	// CacheOperations tracks response-cache hits and misses.
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maze_cache_operations_total",
		Help: "Total number of response cache hits and misses",
	}, []string{"level", "result"})

	// Synthesis tracks which content source produced new endpoint bodies.
	Synthesis = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maze_synthesis_total",
		Help: "Endpoint bodies synthesized, by source (generator or fallback)",
	}, []string{"source"})

	// TarpitDelays counts artificial delays applied to suspected scanners.
	TarpitDelays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maze_tarpit_delays_total",
		Help: "Number of responses slowed down by the tarpit",
	})

	// BeaconEvents tracks bait-file lifecycle transitions.
	BeaconEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maze_beacon_events_total",
		Help: "Bait-file beacon lifecycle events",
	}, []string{"event"})

	// StoredEndpoints reports the number of persisted endpoint records.
	StoredEndpoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "maze_stored_endpoints",
		Help: "Number of endpoint records currently persisted",
	})
)
