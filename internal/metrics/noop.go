package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncProfileCacheHit is a no-op.
func (n *NoopRecorder) IncProfileCacheHit() {}

// IncProfileCacheMiss is a no-op.
func (n *NoopRecorder) IncProfileCacheMiss() {}

// IncProfileGenerated is a no-op.
func (n *NoopRecorder) IncProfileGenerated() {}

// ObserveGenerateDuration is a no-op.
func (n *NoopRecorder) ObserveGenerateDuration(duration time.Duration) {}

// IncRateLimitRejected is a no-op.
func (n *NoopRecorder) IncRateLimitRejected(endpoint string) {}

// IncLogEventPublished is a no-op.
func (n *NoopRecorder) IncLogEventPublished(status string) {}

// IncLogEventProcessed is a no-op.
func (n *NoopRecorder) IncLogEventProcessed(status string) {}

// ObserveLogBatchSize is a no-op.
func (n *NoopRecorder) ObserveLogBatchSize(size int) {}
