package vkapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vk_backup",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vk_backup",
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Retries of recoverable API failures.",
		},
		[]string{"method"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vk_backup",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of a single API round trip.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
