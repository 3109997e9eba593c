package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler()

	t.Run("valid loop", func(t *testing.T) {
		loop := &Loop{
			ID:       "test-1",
			Name:     "Test Loop",
			Interval: time.Minute,
			Handler:  func(ctx context.Context) error { return nil },
		}

		err := s.Register(loop)
		if err != nil {
			t.Errorf("Register failed: %v", err)
		}

		if _, ok := s.loops["test-1"]; !ok {
			t.Error("loop not found in scheduler")
		}

		// Check defaults were set
		if loop.Timeout == 0 {
			t.Error("default timeout not set")
		}
		if !loop.Enabled {
			t.Error("loop should be enabled by default")
		}
		if loop.NextRun == nil {
			t.Error("NextRun not calculated")
		}
	})

	t.Run("empty ID", func(t *testing.T) {
		loop := &Loop{
			Interval: time.Minute,
			Handler:  func(ctx context.Context) error { return nil },
		}

		if err := s.Register(loop); err == nil {
			t.Error("expected error for empty ID")
		}
	})

	t.Run("nil handler", func(t *testing.T) {
		loop := &Loop{
			ID:       "test-2",
			Interval: time.Minute,
		}

		if err := s.Register(loop); err == nil {
			t.Error("expected error for nil handler")
		}
	})

	t.Run("non-positive interval", func(t *testing.T) {
		loop := &Loop{
			ID:      "test-3",
			Handler: func(ctx context.Context) error { return nil },
		}

		if err := s.Register(loop); err == nil {
			t.Error("expected error for zero interval")
		}
	})

	t.Run("with custom timeout", func(t *testing.T) {
		loop := &Loop{
			ID:       "test-4",
			Interval: time.Minute,
			Handler:  func(ctx context.Context) error { return nil },
			Timeout:  10 * time.Minute,
		}

		if err := s.Register(loop); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if loop.Timeout != 10*time.Minute {
			t.Errorf("Timeout = %v, want 10m", loop.Timeout)
		}
	})
}

func TestScheduler_Unregister(t *testing.T) {
	s := NewScheduler()

	loop := &Loop{
		ID:       "test-1",
		Interval: time.Minute,
		Handler:  func(ctx context.Context) error { return nil },
	}
	s.Register(loop)

	if err := s.Unregister("test-1"); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	if _, ok := s.GetLoop("test-1"); ok {
		t.Error("loop still present after Unregister")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler()

	var runs int64
	loop := &Loop{
		ID:       "ticker",
		Interval: 20 * time.Millisecond,
		Handler: func(ctx context.Context) error {
			atomic.AddInt64(&runs, 1)
			return nil
		},
	}
	s.Register(loop)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("expected error on double start")
	}

	time.Sleep(70 * time.Millisecond)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	got := atomic.LoadInt64(&runs)
	if got < 2 {
		t.Errorf("expected at least 2 runs, got %d", got)
	}

	// No further runs after Stop
	time.Sleep(50 * time.Millisecond)
	if after := atomic.LoadInt64(&runs); after != got {
		t.Errorf("loop kept running after Stop: %d -> %d", got, after)
	}
}

func TestScheduler_InitialDelay(t *testing.T) {
	s := NewScheduler()

	var runs int64
	loop := &Loop{
		ID:           "delayed",
		Interval:     time.Minute,
		InitialDelay: 50 * time.Millisecond,
		Handler: func(ctx context.Context) error {
			atomic.AddInt64(&runs, 1)
			return nil
		},
	}
	s.Register(loop)
	s.Start()
	defer s.Stop()

	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt64(&runs) != 0 {
		t.Error("loop ran before initial delay elapsed")
	}

	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt64(&runs) != 1 {
		t.Errorf("expected exactly 1 run after delay, got %d", atomic.LoadInt64(&runs))
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler()

	var runs int64
	loop := &Loop{
		ID:       "manual",
		Interval: time.Hour,
		Handler: func(ctx context.Context) error {
			atomic.AddInt64(&runs, 1)
			return nil
		},
	}
	s.Register(loop)

	if err := s.RunNow("manual"); err != nil {
		t.Fatalf("RunNow failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if atomic.LoadInt64(&runs) != 1 {
		t.Errorf("expected 1 run, got %d", atomic.LoadInt64(&runs))
	}

	if err := s.RunNow("missing"); err == nil {
		t.Error("expected error for unknown loop")
	}
}

func TestScheduler_EnableDisable(t *testing.T) {
	s := NewScheduler()

	var runs int64
	loop := &Loop{
		ID:       "toggled",
		Interval: 20 * time.Millisecond,
		Handler: func(ctx context.Context) error {
			atomic.AddInt64(&runs, 1)
			return nil
		},
	}
	s.Register(loop)
	s.Start()
	defer s.Stop()

	if err := s.Disable("toggled"); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}

	before := atomic.LoadInt64(&runs)
	time.Sleep(60 * time.Millisecond)
	if after := atomic.LoadInt64(&runs); after != before {
		t.Errorf("disabled loop kept running: %d -> %d", before, after)
	}

	if err := s.Enable("toggled"); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if after := atomic.LoadInt64(&runs); after == before {
		t.Error("enabled loop did not resume")
	}

	if err := s.Enable("missing"); err == nil {
		t.Error("expected error for unknown loop")
	}
	if err := s.Disable("missing"); err == nil {
		t.Error("expected error for unknown loop")
	}
}

func TestScheduler_ErrorTracking(t *testing.T) {
	s := NewScheduler()

	loop := &Loop{
		ID:       "failing",
		Interval: time.Hour,
		Handler: func(ctx context.Context) error {
			return errors.New("boom")
		},
	}
	s.Register(loop)

	s.RunNow("failing")
	time.Sleep(30 * time.Millisecond)

	got, _ := s.GetLoop("failing")
	if got.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", got.ErrorCount)
	}
	if got.LastError != "boom" {
		t.Errorf("LastError = %q, want boom", got.LastError)
	}
	if got.RunCount != 1 {
		t.Errorf("RunCount = %d, want 1", got.RunCount)
	}
}

func TestScheduler_ListLoopsReturnsCopies(t *testing.T) {
	s := NewScheduler()

	s.Register(&Loop{
		ID:       "copy",
		Interval: time.Hour,
		Handler:  func(ctx context.Context) error { return nil },
	})

	loops := s.ListLoops()
	if len(loops) != 1 {
		t.Fatalf("ListLoops returned %d loops, want 1", len(loops))
	}
	loops[0].RunCount = 99
	loops[0].LastError = "scribbled"

	got, _ := s.GetLoop("copy")
	if got.RunCount != 0 || got.LastError != "" {
		t.Errorf("mutating a snapshot changed scheduler state: %+v", got)
	}
}

func TestScheduler_RunNowDuringStop(t *testing.T) {
	s := NewScheduler()
	s.Register(&Loop{
		ID:       "r",
		Interval: time.Hour,
		Handler:  func(ctx context.Context) error { return nil },
	})
	s.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			s.RunNow("r")
		}
		close(done)
	}()

	s.Stop()
	<-done
}

func TestScheduler_GetStats(t *testing.T) {
	s := NewScheduler()

	s.Register(&Loop{
		ID:       "a",
		Interval: time.Hour,
		Handler:  func(ctx context.Context) error { return nil },
	})
	s.Register(&Loop{
		ID:       "b",
		Interval: time.Hour,
		Handler:  func(ctx context.Context) error { return nil },
	})
	s.Disable("b")

	stats := s.GetStats()
	if stats.TotalLoops != 2 {
		t.Errorf("TotalLoops = %d, want 2", stats.TotalLoops)
	}
	if stats.EnabledLoops != 1 {
		t.Errorf("EnabledLoops = %d, want 1", stats.EnabledLoops)
	}
	if stats.Started {
		t.Error("Started should be false before Start")
	}

	if got := len(s.ListLoops()); got != 2 {
		t.Errorf("ListLoops returned %d loops, want 2", got)
	}
}
