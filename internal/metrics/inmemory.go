package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ProfileCacheHits        uint64
	ProfileCacheMisses      uint64
	ProfilesGenerated       uint64
	GenerateDurationCount   uint64
	GenerateDurationTotalNs int64
	RateLimitRejected       uint64
	LogEventsPublished      uint64
	LogEventsDropped        uint64
	LogEventsProcessed      uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	profileCacheHits        uint64
	profileCacheMisses      uint64
	profilesGenerated       uint64
	generateDurationCount   uint64
	generateDurationTotalNs int64
	rateLimitRejected       uint64
	logEventsPublished      uint64
	logEventsDropped        uint64
	logEventsProcessed      uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ProfileCacheHits:        atomic.LoadUint64(&m.profileCacheHits),
		ProfileCacheMisses:      atomic.LoadUint64(&m.profileCacheMisses),
		ProfilesGenerated:       atomic.LoadUint64(&m.profilesGenerated),
		GenerateDurationCount:   atomic.LoadUint64(&m.generateDurationCount),
		GenerateDurationTotalNs: atomic.LoadInt64(&m.generateDurationTotalNs),
		RateLimitRejected:       atomic.LoadUint64(&m.rateLimitRejected),
		LogEventsPublished:      atomic.LoadUint64(&m.logEventsPublished),
		LogEventsDropped:        atomic.LoadUint64(&m.logEventsDropped),
		LogEventsProcessed:      atomic.LoadUint64(&m.logEventsProcessed),
	}
}

// IncProfileCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncProfileCacheHit() {
	atomic.AddUint64(&m.profileCacheHits, 1)
}

// IncProfileCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncProfileCacheMiss() {
	atomic.AddUint64(&m.profileCacheMisses, 1)
}

// IncProfileGenerated increments the generated profile counter.
func (m *InMemoryRecorder) IncProfileGenerated() {
	atomic.AddUint64(&m.profilesGenerated, 1)
}

// ObserveGenerateDuration records generation duration.
func (m *InMemoryRecorder) ObserveGenerateDuration(duration time.Duration) {
	atomic.AddUint64(&m.generateDurationCount, 1)
	atomic.AddInt64(&m.generateDurationTotalNs, duration.Nanoseconds())
}

// IncRateLimitRejected increments the rejected request counter.
func (m *InMemoryRecorder) IncRateLimitRejected(endpoint string) {
	atomic.AddUint64(&m.rateLimitRejected, 1)
}

// IncLogEventPublished counts published or dropped log events.
func (m *InMemoryRecorder) IncLogEventPublished(status string) {
	if status == "dropped" {
		atomic.AddUint64(&m.logEventsDropped, 1)
		return
	}
	atomic.AddUint64(&m.logEventsPublished, 1)
}

// IncLogEventProcessed counts processed log events.
func (m *InMemoryRecorder) IncLogEventProcessed(status string) {
	atomic.AddUint64(&m.logEventsProcessed, 1)
}

// ObserveLogBatchSize is a no-op for the in-memory recorder.
func (m *InMemoryRecorder) ObserveLogBatchSize(size int) {}
