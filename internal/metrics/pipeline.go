// Frame pipeline counters
package metrics

import (
	"sync/atomic"
	"time"
)

// PipelineStats counts what happened to frames between arrival and overlay.
// All methods are safe for concurrent use.
type PipelineStats struct {
	received   atomic.Uint64
	dropped    atomic.Uint64
	processed  atomic.Uint64
	identity   atomic.Uint64
	failures   atomic.Uint64
	stale      atomic.Uint64
	rendered   atomic.Uint64
	lastNanos  atomic.Int64
	totalNanos atomic.Int64
	lastSeq    atomic.Uint64
}

// Snapshot is a point-in-time copy of PipelineStats.
type Snapshot struct {
	// FramesReceived counts frames published to the pipeline inbox.
	FramesReceived uint64 `json:"frames_received"`
	// FramesDropped counts inbox frames overwritten before the worker took them.
	FramesDropped uint64 `json:"frames_dropped"`
	// FramesProcessed counts transforms that produced a frame.
	FramesProcessed uint64 `json:"frames_processed"`
	// IdentitySkips counts frames short-circuited by the None filter.
	IdentitySkips uint64 `json:"identity_skips"`
	// TransformFailures counts frames dropped because the transform failed.
	TransformFailures uint64 `json:"transform_failures"`
	// StaleResults counts results discarded on the UI thread as out of date.
	StaleResults uint64 `json:"stale_results"`
	// OverlaysRendered counts overlay replacements.
	OverlaysRendered uint64 `json:"overlays_rendered"`

	LastSeq         uint64        `json:"last_seq"`
	LastProcessTime time.Duration `json:"last_process_ns"`
	AvgProcessTime  time.Duration `json:"avg_process_ns"`
}

func NewPipelineStats() *PipelineStats {
	return &PipelineStats{}
}

func (s *PipelineStats) FrameReceived()   { s.received.Add(1) }
func (s *PipelineStats) FrameDropped()    { s.dropped.Add(1) }
func (s *PipelineStats) IdentitySkipped() { s.identity.Add(1) }
func (s *PipelineStats) TransformFailed() { s.failures.Add(1) }
func (s *PipelineStats) StaleDiscarded()  { s.stale.Add(1) }
func (s *PipelineStats) OverlayRendered() { s.rendered.Add(1) }

// FrameProcessed records one successful transform and its duration.
func (s *PipelineStats) FrameProcessed(seq uint64, d time.Duration) {
	s.processed.Add(1)
	s.lastNanos.Store(int64(d))
	s.totalNanos.Add(int64(d))
	s.lastSeq.Store(seq)
}

// Snapshot copies the current counters.
func (s *PipelineStats) Snapshot() Snapshot {
	snap := Snapshot{
		FramesReceived:    s.received.Load(),
		FramesDropped:     s.dropped.Load(),
		FramesProcessed:   s.processed.Load(),
		IdentitySkips:     s.identity.Load(),
		TransformFailures: s.failures.Load(),
		StaleResults:      s.stale.Load(),
		OverlaysRendered:  s.rendered.Load(),
		LastSeq:           s.lastSeq.Load(),
		LastProcessTime:   time.Duration(s.lastNanos.Load()),
	}
	if snap.FramesProcessed > 0 {
		snap.AvgProcessTime = time.Duration(s.totalNanos.Load() / int64(snap.FramesProcessed))
	}
	return snap
}

// DropRate is dropped / received, 0 when nothing was received.
func (s Snapshot) DropRate() float64 {
	if s.FramesReceived == 0 {
		return 0
	}
	return float64(s.FramesDropped) / float64(s.FramesReceived)
}
