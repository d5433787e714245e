package maps

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var calls atomic.Int32
	var lastQuery atomic.Value

	run := func(query string) error {
		return d.Do(context.Background(), func(ctx context.Context) error {
			calls.Add(1)
			lastQuery.Store(query)
			return nil
		})
	}

	// Three keystrokes in quick succession. Only the final query should
	// reach the function.
	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, q := range []string{"S", "Sy", "Syr"} {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			errs[i] = run(q)
		}(i, q)
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("upstream calls = %d, want 1", got)
	}
	if got := lastQuery.Load(); got != "Syr" {
		t.Errorf("executed query = %v, want Syr", got)
	}

	var superseded int
	for _, err := range errs {
		if errors.Is(err, ErrSuperseded) {
			superseded++
		}
	}
	if superseded != 2 {
		t.Errorf("superseded calls = %d, want 2", superseded)
	}
}

func TestDebouncerCancelsInFlightWork(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	started := make(chan struct{})
	var firstErr error
	done := make(chan struct{})

	go func() {
		defer close(done)
		firstErr = d.Do(context.Background(), func(ctx context.Context) error {
			close(started)
			<-ctx.Done() // simulate a slow network call
			return ctx.Err()
		})
	}()

	<-started

	// A newer call must abort the one already on the wire.
	err := d.Do(context.Background(), func(ctx context.Context) error { return nil })
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	<-done
	if !errors.Is(firstErr, ErrSuperseded) {
		t.Errorf("first call err = %v, want ErrSuperseded", firstErr)
	}
}

func TestDebouncerHonorsCallerContext(t *testing.T) {
	d := NewDebouncer(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := d.Do(ctx, func(ctx context.Context) error {
		t.Error("function ran despite cancelled caller context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDebouncerPoolIsolatesSessions(t *testing.T) {
	p := NewDebouncerPool(20 * time.Millisecond)

	var a, b atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = p.Get("session-a").Do(context.Background(), func(ctx context.Context) error {
			a.Add(1)
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		_ = p.Get("session-b").Do(context.Background(), func(ctx context.Context) error {
			b.Add(1)
			return nil
		})
	}()
	wg.Wait()

	if a.Load() != 1 || b.Load() != 1 {
		t.Errorf("independent sessions should not debounce each other: a=%d b=%d", a.Load(), b.Load())
	}

	if p.Get("session-a") != p.Get("session-a") {
		t.Error("same key should return the same debouncer")
	}
}
