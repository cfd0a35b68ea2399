// ABOUTME: Pull-model playback sink over the capture reader
// ABOUTME: Never blocks and never pads with silence
package playback

import (
	"sync/atomic"

	"github.com/livecam/livecam-go/internal/capture"
)

// PullSink hands buffered capture bytes to a device on request
type PullSink struct {
	r capture.Reader

	reads     atomic.Int64
	underruns atomic.Int64
	bytes     atomic.Int64
}

// NewPullSink wraps a capture reader
func NewPullSink(r capture.Reader) *PullSink {
	return &PullSink{r: r}
}

// ReadInto copies min(len(p), buffered) bytes rounded down to even.
// Zero means no data yet, not end of stream.
func (s *PullSink) ReadInto(p []byte) int {
	n := s.r.ReadInto(p)
	s.reads.Add(1)
	s.bytes.Add(int64(n))
	if n < len(p)&^1 {
		s.underruns.Add(1)
	}
	return n
}

// Read adapts ReadInto to io.Reader. It never returns io.EOF.
func (s *PullSink) Read(p []byte) (int, error) {
	return s.ReadInto(p), nil
}

// PullStats counts device pulls
type PullStats struct {
	Reads     int64
	Underruns int64
	Bytes     int64
}

// Stats returns pull counters
func (s *PullSink) Stats() PullStats {
	return PullStats{
		Reads:     s.reads.Load(),
		Underruns: s.underruns.Load(),
		Bytes:     s.bytes.Load(),
	}
}
