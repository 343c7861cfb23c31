// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Profile generation metrics
	IncProfileCacheHit()
	IncProfileCacheMiss()
	IncProfileGenerated()
	ObserveGenerateDuration(duration time.Duration)

	// Rate limiter metrics
	IncRateLimitRejected(endpoint string)

	// Request log pipeline metrics
	IncLogEventPublished(status string) // status: "success" or "dropped"
	IncLogEventProcessed(status string) // status: "success", "failed", "skipped"
	ObserveLogBatchSize(size int)
}
