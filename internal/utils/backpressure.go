package utils

import (
	"sync/atomic"
)

// BackpressureMetrics tracks channel overflow statistics
type BackpressureMetrics struct {
	overflows int64
	dropped   int64
}

// Stats returns the current counters.
func (bm *BackpressureMetrics) Stats() (overflows, dropped int64) {
	return atomic.LoadInt64(&bm.overflows),
		atomic.LoadInt64(&bm.dropped)
}

// TrySend attempts to send without blocking, returns success status
func TrySend[T any](ch chan<- T, data T, metrics *BackpressureMetrics) bool {
	select {
	case ch <- data:
		return true
	default:
		if metrics != nil {
			atomic.AddInt64(&metrics.overflows, 1)
			atomic.AddInt64(&metrics.dropped, 1)
		}
		return false
	}
}

// ReplaceLatest delivers data to a single-slot style channel, evicting the oldest
// queued value when full so the receiver always sees the newest one.
func ReplaceLatest[T any](ch chan T, data T, metrics *BackpressureMetrics) {
	for {
		select {
		case ch <- data:
			return
		default:
		}
		select {
		case <-ch:
			if metrics != nil {
				atomic.AddInt64(&metrics.dropped, 1)
			}
		default:
		}
	}
}
