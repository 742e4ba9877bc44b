package metrics

import (
	"testing"
	"time"
)

func TestCollectorTimings(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(StageCrawl, 100*time.Millisecond)
	c.RecordTiming(StageCrawl, 300*time.Millisecond)
	c.RecordFailure(StageCrawl, 200*time.Millisecond)

	snap := c.Snapshot()
	if snap.Crawl == nil {
		t.Fatal("expected crawl snapshot")
	}
	if snap.Crawl.Count != 3 {
		t.Errorf("count = %d, want 3", snap.Crawl.Count)
	}
	if snap.Crawl.Failures != 1 {
		t.Errorf("failures = %d, want 1", snap.Crawl.Failures)
	}
	if snap.Crawl.MinTimeMs != 100 {
		t.Errorf("min = %d, want 100", snap.Crawl.MinTimeMs)
	}
	if snap.Crawl.MaxTimeMs != 300 {
		t.Errorf("max = %d, want 300", snap.Crawl.MaxTimeMs)
	}
	if snap.Crawl.AvgTimeMs != 200 {
		t.Errorf("avg = %f, want 200", snap.Crawl.AvgTimeMs)
	}
}

func TestCollectorEmptyStages(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()

	if snap.Extract != nil || snap.Analyze != nil || snap.Pipeline != nil {
		t.Error("expected nil snapshots for unrecorded stages")
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("uptime = %f, want >= 0", snap.UptimeSeconds)
	}
}
