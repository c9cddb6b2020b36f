package adminguard

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricEvaluateAuthenticated counts evaluations that granted access.
	MetricEvaluateAuthenticated MetricID = iota
	// MetricEvaluateMissingCredentials counts denials for absent session entries.
	MetricEvaluateMissingCredentials
	// MetricEvaluateInvalidToken counts denials for undecodable tokens.
	MetricEvaluateInvalidToken
	// MetricEvaluateExpired counts denials for expired tokens.
	MetricEvaluateExpired
	// MetricEvaluateMalformedCredentials counts denials for undecodable role or permission sets.
	MetricEvaluateMalformedCredentials
	// MetricEvaluateStoreUnavailable counts denials caused by store read failures.
	MetricEvaluateStoreUnavailable
	// MetricLoginSuccess counts logins that stored a session.
	MetricLoginSuccess
	// MetricLoginFailure counts logins rejected by the Auth API or unreachable.
	MetricLoginFailure
	// MetricLoginIncomplete counts successful responses missing session fields.
	MetricLoginIncomplete
	// MetricLogout counts logouts that cleared the session.
	MetricLogout
	// MetricLogoutNoToken counts logouts skipped because no token was stored.
	MetricLogoutNoToken
	// MetricMenuFiltered counts navigation menu renders.
	MetricMenuFiltered
	// MetricGuardRedirect counts protected navigations sent to the login view.
	MetricGuardRedirect
	// MetricWatcherRedirect counts forced navigations after an external logout.
	MetricWatcherRedirect
	// MetricEvaluateLatency is the evaluate latency histogram, store read included.
	MetricEvaluateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics].
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters that record only when cfg.Enabled is set.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters record.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram records.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
//
// Performance: a single atomic add; safe for concurrent use.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only [MetricEvaluateLatency] is a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricEvaluateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricEvaluateLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricEvaluateLatency].buckets[i])
		}
		s.Histograms[MetricEvaluateLatency] = buckets
	}

	return s
}

func reasonMetric(r Reason) MetricID {
	switch r {
	case ReasonNone:
		return MetricEvaluateAuthenticated
	case ReasonMissingCredentials:
		return MetricEvaluateMissingCredentials
	case ReasonInvalidToken:
		return MetricEvaluateInvalidToken
	case ReasonExpired:
		return MetricEvaluateExpired
	case ReasonMalformedCredentials:
		return MetricEvaluateMalformedCredentials
	default:
		return MetricEvaluateStoreUnavailable
	}
}

// bucketIndex maps d onto upper bounds of 1, 2, 5, 10, 25, 50 and 100ms, then +Inf.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 1000:
		return 0
	case us <= 2000:
		return 1
	case us <= 5000:
		return 2
	case us <= 10000:
		return 3
	case us <= 25000:
		return 4
	case us <= 50000:
		return 5
	case us <= 100000:
		return 6
	default:
		return 7
	}
}
