package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestSnapshotCounts(t *testing.T) {
	s := NewPipelineStats()
	s.FrameReceived()
	s.FrameReceived()
	s.FrameDropped()
	s.IdentitySkipped()
	s.TransformFailed()
	s.StaleDiscarded()
	s.OverlayRendered()
	s.FrameProcessed(7, 2*time.Millisecond)
	s.FrameProcessed(9, 4*time.Millisecond)

	snap := s.Snapshot()
	if snap.FramesReceived != 2 || snap.FramesDropped != 1 || snap.FramesProcessed != 2 {
		t.Fatalf("unexpected counts %+v", snap)
	}
	if snap.IdentitySkips != 1 || snap.TransformFailures != 1 || snap.StaleResults != 1 || snap.OverlaysRendered != 1 {
		t.Fatalf("unexpected counts %+v", snap)
	}
	if snap.LastSeq != 9 || snap.LastProcessTime != 4*time.Millisecond {
		t.Fatalf("last = %d / %s", snap.LastSeq, snap.LastProcessTime)
	}
	if snap.AvgProcessTime != 3*time.Millisecond {
		t.Fatalf("avg = %s, want 3ms", snap.AvgProcessTime)
	}
	if snap.DropRate() != 0.5 {
		t.Fatalf("drop rate = %v", snap.DropRate())
	}
}

func TestEmptySnapshot(t *testing.T) {
	snap := NewPipelineStats().Snapshot()
	if snap.DropRate() != 0 || snap.AvgProcessTime != 0 {
		t.Fatalf("unexpected empty snapshot %+v", snap)
	}
}

func TestConcurrentRecording(t *testing.T) {
	s := NewPipelineStats()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.FrameReceived()
			}
		}()
	}
	wg.Wait()
	if got := s.Snapshot().FramesReceived; got != 10000 {
		t.Fatalf("received = %d", got)
	}
}
