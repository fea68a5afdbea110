package flight

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetCachesResult(t *testing.T) {
	var calls atomic.Int32
	c := New(0, func(k string) (string, error) {
		calls.Add(1)
		return "v:" + k, nil
	})

	for range 3 {
		v, err := c.Get("a")
		if err != nil || v != "v:a" {
			t.Fatalf("Get = %q, %v", v, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("work ran %d times, want 1", got)
	}
}

func TestGetCoalescesConcurrentCallers(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	c := New(0, func(k int) (int, error) {
		calls.Add(1)
		<-gate
		return k * 2, nil
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := c.Get(21); err != nil || v != 42 {
				t.Errorf("Get = %d, %v", v, err)
			}
		}()
	}
	// Let the goroutines pile onto the single pending job.
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("work ran %d times, want 1", got)
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	var calls atomic.Int32
	c := New(0, func(string) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	if _, err := c.Get("k"); err == nil {
		t.Fatal("expected error on first call")
	}
	v, err := c.Get("k")
	if err != nil || v != "ok" {
		t.Fatalf("retry = %q, %v", v, err)
	}
}

func TestTTLExpiry(t *testing.T) {
	var calls atomic.Int32
	c := New(time.Millisecond, func(string) (int, error) {
		return int(calls.Add(1)), nil
	})

	if v, _ := c.Get("k"); v != 1 {
		t.Fatalf("first Get = %d", v)
	}
	time.Sleep(5 * time.Millisecond)
	if v, _ := c.Get("k"); v != 2 {
		t.Errorf("expired Get = %d, want recompute", v)
	}
}

func TestForget(t *testing.T) {
	var calls atomic.Int32
	c := New(0, func(string) (int, error) {
		return int(calls.Add(1)), nil
	})
	c.Get("k")
	c.Forget("k")
	if v, _ := c.Get("k"); v != 2 {
		t.Errorf("Get after Forget = %d, want 2", v)
	}
}
