// ABOUTME: Viewer-side clock synchronization with the robot
// ABOUTME: Estimates offset and drift from client/time round trips
package sync

import (
	"log"
	"sync"
	"time"
)

const (
	maxRTTMicros      = 100000 // discard round trips slower than 100ms
	maxResidualMicros = 50000  // discard samples that jump more than 50ms
	degradedRTTMicros = 50000
	staleAfter        = 5 * time.Second
)

// Quality represents sync quality
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityDegraded:
		return "degraded"
	default:
		return "lost"
	}
}

// ClockSync maps robot clock microseconds onto the local clock
type ClockSync struct {
	mu             sync.RWMutex
	offset         int64   // robot - local, microseconds
	drift          float64 // μs of offset change per local μs
	rtt            int64
	quality        Quality
	lastSync       time.Time
	lastSyncMicros int64 // local time of the last accepted sample
	sampleCount    int
	smoothingRate  float64
}

// NewClockSync creates a new clock synchronizer
func NewClockSync() *ClockSync {
	return &ClockSync{
		smoothingRate: 0.1,
		quality:       QualityLost,
	}
}

// ProcessSyncResponse folds one exchange into the estimate.
// t1/t4 are local send/receive times, t2/t3 robot receive/send times.
func (cs *ClockSync) ProcessSyncResponse(t1, t2, t3, t4 int64) {
	rtt, measuredOffset := calculateOffset(t1, t2, t3, t4)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.rtt = rtt
	cs.lastSync = time.Now()

	if rtt > maxRTTMicros || rtt < 0 {
		log.Printf("Discarding sync sample: RTT %dμs", rtt)
		return
	}

	switch cs.sampleCount {
	case 0:
		cs.offset = measuredOffset
		log.Printf("Initial sync: offset=%dμs, rtt=%dμs", cs.offset, rtt)

	case 1:
		if dt := float64(t4 - cs.lastSyncMicros); dt > 0 {
			cs.drift = float64(measuredOffset-cs.offset) / dt
		}
		cs.offset = measuredOffset

	default:
		dt := float64(t4 - cs.lastSyncMicros)
		if dt <= 0 {
			log.Printf("Discarding sync sample: non-monotonic time")
			return
		}

		predicted := cs.offset + int64(cs.drift*dt)
		residual := measuredOffset - predicted
		if residual > maxResidualMicros || residual < -maxResidualMicros {
			log.Printf("Discarding sync sample: residual %dμs", residual)
			return
		}

		// fixed-gain filter over offset and drift
		cs.offset = predicted + int64(cs.smoothingRate*float64(residual))
		cs.drift += cs.smoothingRate * float64(residual) / dt
	}

	cs.lastSyncMicros = t4
	cs.sampleCount++

	if rtt < degradedRTTMicros {
		cs.quality = QualityGood
	} else {
		cs.quality = QualityDegraded
	}
}

// calculateOffset computes RTT and clock offset
func calculateOffset(t1, t2, t3, t4 int64) (rtt, offset int64) {
	rtt = (t4 - t1) - (t3 - t2)
	offset = ((t2 - t1) + (t3 - t4)) / 2
	return
}

// Synced reports whether at least one sample was accepted
func (cs *ClockSync) Synced() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.sampleCount > 0
}

// GetStats returns sync statistics
func (cs *ClockSync) GetStats() (offset, rtt int64, quality Quality) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.offset, cs.rtt, cs.quality
}

// CheckQuality marks the sync lost when no response arrived recently
func (cs *ClockSync) CheckQuality() Quality {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if time.Since(cs.lastSync) > staleAfter {
		cs.quality = QualityLost
	}
	return cs.quality
}

// ServerToLocalMicros converts a robot timestamp to local microseconds
func (cs *ClockSync) ServerToLocalMicros(serverTime int64) int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if cs.sampleCount == 0 {
		return serverTime
	}

	// server = local + offset + drift*(local - lastSync), solved for local
	numerator := float64(serverTime) - float64(cs.offset) + cs.drift*float64(cs.lastSyncMicros)
	return int64(numerator / (1.0 + cs.drift))
}

// Latency is how long ago the robot stamped serverTime, or zero before sync
func (cs *ClockSync) Latency(serverTime int64) time.Duration {
	if !cs.Synced() {
		return 0
	}
	return time.Duration(ClientMicros()-cs.ServerToLocalMicros(serverTime)) * time.Microsecond
}

// ClientMicros returns the local Unix time in microseconds
func ClientMicros() int64 {
	return time.Now().UnixMicro()
}
