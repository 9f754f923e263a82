package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{5, 3, 1, 4, 2}

	got := Map(context.Background(), 3, items, func(_ context.Context, n int) int {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10
	})

	want := []int{50, 30, 10, 40, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMap_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	var mu sync.Mutex

	items := make([]int, 20)
	Map(context.Background(), 4, items, func(_ context.Context, _ int) struct{} {
		cur := running.Add(1)
		mu.Lock()
		if cur > peak.Load() {
			peak.Store(cur)
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}
	})

	if p := peak.Load(); p > 4 {
		t.Errorf("peak concurrency %d exceeds bound 4", p)
	}
}

func TestMap_ZeroWorkersRunsSequentially(t *testing.T) {
	got := Map(context.Background(), 0, []int{1, 2, 3}, func(_ context.Context, n int) int {
		return n
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
}

func TestMap_CancelledContextStillYieldsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := Map(ctx, 2, []int{1, 2, 3}, func(ctx context.Context, n int) string {
		if ctx.Err() != nil {
			return "cancelled"
		}
		return "ran"
	})

	if len(got) != 3 {
		t.Fatalf("expected a result per item, got %d", len(got))
	}
	for _, r := range got {
		if r != "cancelled" {
			t.Errorf("expected cancellation to reach fn, got %q", r)
		}
	}
}

func TestPacer_DisabledIntervalDoesNotBlock(t *testing.T) {
	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("disabled pacer blocked for %v", elapsed)
	}
}

func TestPacer_SpacesCalls(t *testing.T) {
	p := NewPacer(20 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	// first call is immediate, the next two wait one interval each
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("three calls completed in %v, want >= 40ms", elapsed)
	}
}

func TestPacer_HonorsCancellation(t *testing.T) {
	p := NewPacer(time.Hour)
	_ = p.Wait(context.Background()) // consume the initial token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
}
