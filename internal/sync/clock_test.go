// ABOUTME: Tests for clock synchronization
// ABOUTME: Tests RTT calculation, outlier rejection and time conversion
package sync

import (
	"testing"
	"time"
)

func TestCalculateOffset(t *testing.T) {
	// robot clock is 1s ahead; 2ms each way; 0.5ms processing
	t1 := int64(1000000)
	t2 := int64(2002000)
	t3 := int64(2002500)
	t4 := int64(1004500)

	rtt, offset := calculateOffset(t1, t2, t3, t4)
	if rtt != 4000 {
		t.Errorf("rtt = %d, want 4000", rtt)
	}
	if offset != 1000000 {
		t.Errorf("offset = %d, want 1000000", offset)
	}
}

func TestProcessSyncResponse_FirstSample(t *testing.T) {
	cs := NewClockSync()
	if cs.Synced() {
		t.Fatal("expected not synced initially")
	}
	if _, _, q := cs.GetStats(); q != QualityLost {
		t.Errorf("initial quality = %v", q)
	}

	cs.ProcessSyncResponse(1000000, 2002000, 2002500, 1004500)

	if !cs.Synced() {
		t.Fatal("expected synced after first response")
	}
	offset, rtt, q := cs.GetStats()
	if offset != 1000000 || rtt != 4000 || q != QualityGood {
		t.Errorf("stats = %d/%d/%v", offset, rtt, q)
	}
}

func TestProcessSyncResponse_RejectsHighRTT(t *testing.T) {
	cs := NewClockSync()
	cs.ProcessSyncResponse(0, 100, 100, 200000)

	if cs.Synced() {
		t.Error("high RTT sample should be discarded")
	}
}

func TestProcessSyncResponse_DegradedQuality(t *testing.T) {
	cs := NewClockSync()
	cs.ProcessSyncResponse(0, 30000, 30000, 60000)

	if _, _, q := cs.GetStats(); q != QualityDegraded {
		t.Errorf("quality = %v, want degraded", q)
	}
}

func TestProcessSyncResponse_RejectsJump(t *testing.T) {
	cs := NewClockSync()
	cs.ProcessSyncResponse(0, 500, 500, 1000)
	cs.ProcessSyncResponse(1000000, 1000500, 1000500, 1001000)

	before, _, _ := cs.GetStats()
	// offset suddenly 200ms larger
	cs.ProcessSyncResponse(2000000, 2200500, 2200500, 2001000)

	if after, _, _ := cs.GetStats(); after != before {
		t.Errorf("offset moved from %d to %d on an outlier", before, after)
	}
}

func TestServerToLocalMicros(t *testing.T) {
	cs := NewClockSync()
	if got := cs.ServerToLocalMicros(42); got != 42 {
		t.Errorf("unsynced conversion = %d, want identity", got)
	}

	cs.ProcessSyncResponse(1000000, 2002000, 2002500, 1004500)
	if got := cs.ServerToLocalMicros(3000000); got != 2000000 {
		t.Errorf("ServerToLocalMicros = %d, want 2000000", got)
	}
}

func TestLatency(t *testing.T) {
	cs := NewClockSync()
	if cs.Latency(123) != 0 {
		t.Error("latency before sync should be zero")
	}

	// robot clock equals local clock
	now := ClientMicros()
	cs.ProcessSyncResponse(now-1000, now-500, now-500, now)

	lat := cs.Latency(ClientMicros() - 20000)
	if lat < 15*time.Millisecond || lat > time.Second {
		t.Errorf("latency = %v, want about 20ms", lat)
	}
}

func TestCheckQuality_Stale(t *testing.T) {
	cs := NewClockSync()
	cs.ProcessSyncResponse(0, 500, 500, 1000)
	cs.lastSync = time.Now().Add(-10 * time.Second)

	if q := cs.CheckQuality(); q != QualityLost {
		t.Errorf("quality = %v, want lost", q)
	}
}
