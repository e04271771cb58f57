package pipeline

import (
	"testing"
	"time"
)

func TestBuildStats_Empty(t *testing.T) {
	s := NewBuildStats(time.Hour)
	snap := s.Snapshot()
	if snap.Count != 0 {
		t.Errorf("empty stats should report zero count, got %d", snap.Count)
	}
}

func TestBuildStats_Aggregates(t *testing.T) {
	s := NewBuildStats(time.Hour)
	for _, ms := range []int64{10, 20, 30, 40, 100} {
		s.Record(ms)
	}

	snap := s.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("count = %d, want 5", snap.Count)
	}
	if snap.AvgMs != 40 {
		t.Errorf("avg = %v, want 40", snap.AvgMs)
	}
	if snap.P50Ms != 30 {
		t.Errorf("p50 = %v, want 30", snap.P50Ms)
	}
	if snap.MaxMs != 100 {
		t.Errorf("max = %d, want 100", snap.MaxMs)
	}
}

func TestBuildStats_NegativeClamped(t *testing.T) {
	s := NewBuildStats(time.Hour)
	s.Record(-5)
	snap := s.Snapshot()
	if snap.Count != 1 || snap.MaxMs != 0 {
		t.Errorf("negative sample should clamp to 0, got %+v", snap)
	}
}

func TestBuildStats_WindowPrunes(t *testing.T) {
	s := NewBuildStats(10 * time.Millisecond)
	s.Record(50)
	time.Sleep(20 * time.Millisecond)
	snap := s.Snapshot()
	if snap.Count != 0 {
		t.Errorf("expired samples should be pruned, got count %d", snap.Count)
	}
}
