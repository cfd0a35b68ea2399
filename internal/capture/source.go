// ABOUTME: SampleSource pushes captured batches into the ring buffer
// ABOUTME: Each sample is duplicated by the rate ratio and written little-endian
package capture

import (
	"log"
	"sync/atomic"

	"github.com/livecam/livecam-go/pkg/audio"
	"github.com/livecam/livecam-go/pkg/audio/resample"
	"github.com/livecam/livecam-go/pkg/audio/ring"
)

// SourceStats counts what the capture side delivered
type SourceStats struct {
	Batches int64
	Samples int64
	Clamped int64
}

// SampleSource is the producer half of a capture session. OnSamples runs
// on the device goroutine and only ever takes the ring's lock.
type SampleSource struct {
	buf      *ring.Buffer
	dup      *resample.Duplicator
	maxBatch int

	// reused across calls; only the device goroutine touches it
	scratch []byte

	batches atomic.Int64
	samples atomic.Int64
	clamped atomic.Int64
}

// NewSampleSource creates a source converting inRate to outRate into buf
func NewSampleSource(buf *ring.Buffer, inRate, outRate int) (*SampleSource, error) {
	dup, err := resample.NewDuplicator(inRate, outRate)
	if err != nil {
		return nil, err
	}
	return &SampleSource{
		buf:      buf,
		dup:      dup,
		maxBatch: inRate,
	}, nil
}

// OnSamples converts one batch and pushes every byte in order
func (s *SampleSource) OnSamples(batch audio.Batch) {
	samples := batch.Samples
	if len(samples) > s.maxBatch {
		log.Printf("Capture batch of %d samples exceeds one second, clamping to %d", len(samples), s.maxBatch)
		samples = samples[:s.maxBatch]
		s.clamped.Add(1)
	}

	s.scratch = s.dup.AppendLE(s.scratch[:0], samples)
	for _, b := range s.scratch {
		s.buf.Push(b)
	}

	s.batches.Add(1)
	s.samples.Add(int64(len(samples)))
}

// Stats returns delivery counters
func (s *SampleSource) Stats() SourceStats {
	return SourceStats{
		Batches: s.batches.Load(),
		Samples: s.samples.Load(),
		Clamped: s.clamped.Load(),
	}
}
