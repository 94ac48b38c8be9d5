package metrics

import (
	"sync/atomic"
	"time"
)

// ID names one counter or histogram.
type ID uint16

const (
	LoginSuccess ID = iota
	LoginFailure
	RevalidateSuccess
	RevalidateRejected
	RevalidateTransient
	RevalidateDiscarded
	Logout
	SetAuth
	CredentialCorrupt
	StorageFailure
	PaymentSetupOpened
	PaymentSetupOpenFailed
	PaymentConfirmSuccess
	PaymentConfirmFailure
	PaymentFinalizeSuccess
	PaymentFinalizeFailure
	PaymentFlowCancelled

	RevalidateLatency
	PaymentConfirmLatency

	idCount
)

// BucketCount is the number of latency buckets per histogram.
const BucketCount = 8

const cacheLineSize = 64

type histogram struct {
	buckets [BucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config enables collection.
type Config struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Registry stores counters and histograms. A nil *Registry is valid and
// records nothing.
type Registry struct {
	enabled       bool
	enableLatency bool
	counters      [idCount]paddedCounter
	histograms    [idCount]histogram
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Counters   map[ID]uint64
	Histograms map[ID][]uint64
}

func New(cfg Config) *Registry {
	return &Registry{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// IsHistogram reports whether id is observed rather than counted.
func IsHistogram(id ID) bool {
	return id == RevalidateLatency || id == PaymentConfirmLatency
}

func (r *Registry) Enabled() bool {
	return r != nil && r.enabled
}

func (r *Registry) LatencyEnabled() bool {
	return r != nil && r.enableLatency
}

func (r *Registry) Inc(id ID) {
	if r == nil || !r.enabled || id >= idCount || IsHistogram(id) {
		return
	}
	atomic.AddUint64(&r.counters[id].value, 1)
}

func (r *Registry) Observe(id ID, d time.Duration) {
	if r == nil || !r.enableLatency || !IsHistogram(id) {
		return
	}
	atomic.AddUint64(&r.histograms[id].buckets[bucketIndex(d)], 1)
}

func (r *Registry) Value(id ID) uint64 {
	if r == nil || id >= idCount {
		return 0
	}
	return atomic.LoadUint64(&r.counters[id].value)
}

func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Counters:   map[ID]uint64{},
		Histograms: map[ID][]uint64{},
	}
	if r == nil || !r.enabled {
		return s
	}

	for id := ID(0); id < idCount; id++ {
		if IsHistogram(id) {
			if r.enableLatency {
				buckets := make([]uint64, BucketCount)
				for i := range buckets {
					buckets[i] = atomic.LoadUint64(&r.histograms[id].buckets[i])
				}
				s.Histograms[id] = buckets
			}
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&r.counters[id].value)
	}
	return s
}

// bucket upper bounds: 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, +Inf.
var bucketBounds = [BucketCount - 1]int64{5, 10, 25, 50, 100, 250, 500}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()
	for i, bound := range bucketBounds {
		if ms <= bound {
			return i
		}
	}
	return BucketCount - 1
}
