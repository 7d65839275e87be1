package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordAndSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(500, 30*time.Millisecond)
	c.Record(429, 2*time.Millisecond)

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 3 {
		t.Fatalf("expected 3 requests, got %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 error, got %v", snap["errorsTotal"])
	}
	if snap["rateLimitedTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 rate limited, got %v", snap["rateLimitedTotal"])
	}
}

func TestIncConcurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc(LLMFallback)
		}()
	}
	wg.Wait()

	if got := c.Count(LLMFallback); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	pipeline := c.Snapshot()["pipeline"].(map[string]uint64)
	if pipeline[LLMFallback] != 50 {
		t.Fatalf("expected snapshot counter 50, got %d", pipeline[LLMFallback])
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Inc(EmailSent)
	c.Record(200, time.Millisecond)
	if c.Count(EmailSent) != 0 {
		t.Fatal("expected zero count on nil collector")
	}
}
