// Package scheduler runs the daemon's recurring loops.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Scheduler manages scheduled loops
type Scheduler struct {
	loops   map[string]*Loop
	running map[string]context.CancelFunc
	mu      sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		loops:   make(map[string]*Loop),
		running: make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Loop represents a recurring job. InitialDelay postpones the first run
// after Start; every subsequent run follows Interval.
type Loop struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Interval     time.Duration `json:"interval"`
	InitialDelay time.Duration `json:"initial_delay"`
	Handler      Handler       `json:"-"`
	Enabled      bool          `json:"enabled"`
	LastRun      *time.Time    `json:"last_run,omitempty"`
	NextRun      *time.Time    `json:"next_run,omitempty"`
	RunCount     int64         `json:"run_count"`
	ErrorCount   int64         `json:"error_count"`
	LastError    string        `json:"last_error,omitempty"`
	Timeout      time.Duration `json:"timeout"`
}

// Handler is the function executed on each tick
type Handler func(ctx context.Context) error

// Register adds a loop to the scheduler
func (s *Scheduler) Register(loop *Loop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loop.ID == "" {
		return fmt.Errorf("loop ID is required")
	}
	if loop.Handler == nil {
		return fmt.Errorf("loop handler is required")
	}
	if loop.Interval <= 0 {
		return fmt.Errorf("loop interval must be positive")
	}
	if loop.Timeout == 0 {
		loop.Timeout = time.Minute
	}

	loop.Enabled = true

	next := time.Now().Add(loop.InitialDelay)
	loop.NextRun = &next

	s.loops[loop.ID] = loop

	if s.started {
		s.startLoop(loop)
	}

	return nil
}

// Unregister removes a loop from the scheduler
func (s *Scheduler) Unregister(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.running[id]; ok {
		cancel()
		delete(s.running, id)
	}

	delete(s.loops, id)
	return nil
}

// Enable enables a loop
func (s *Scheduler) Enable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loop, ok := s.loops[id]
	if !ok {
		return fmt.Errorf("loop not found: %s", id)
	}

	if loop.Enabled {
		return nil
	}

	loop.Enabled = true
	if s.started {
		s.startLoop(loop)
	}

	return nil
}

// Disable disables a loop
func (s *Scheduler) Disable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loop, ok := s.loops[id]
	if !ok {
		return fmt.Errorf("loop not found: %s", id)
	}

	loop.Enabled = false
	if cancel, ok := s.running[id]; ok {
		cancel()
		delete(s.running, id)
	}

	return nil
}

// Start starts all enabled loops
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	s.started = true

	for _, loop := range s.loops {
		if loop.Enabled {
			s.startLoop(loop)
		}
	}

	return nil
}

// Stop stops the scheduler and waits for in-flight ticks
func (s *Scheduler) Stop() error {
	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()
		return nil
	}

	s.cancel()
	for _, cancel := range s.running {
		cancel()
	}
	s.running = make(map[string]context.CancelFunc)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.started = false
	// Fresh context for a potential restart
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	return nil
}

func (s *Scheduler) startLoop(loop *Loop) {
	loopCtx, cancel := context.WithCancel(s.ctx)
	s.running[loop.ID] = cancel

	s.wg.Add(1)
	go s.run(loopCtx, loop)
}

func (s *Scheduler) run(ctx context.Context, loop *Loop) {
	defer s.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(loop.InitialDelay):
	}

	s.execute(ctx, loop)

	ticker := time.NewTicker(loop.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, loop)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, loop *Loop) {
	execCtx, cancel := context.WithTimeout(ctx, loop.Timeout)
	defer cancel()

	now := time.Now()
	s.mu.Lock()
	loop.LastRun = &now
	loop.RunCount++
	s.mu.Unlock()

	err := loop.Handler(execCtx)

	s.mu.Lock()
	if err != nil {
		loop.ErrorCount++
		loop.LastError = err.Error()
	} else {
		loop.LastError = ""
	}
	next := time.Now().Add(loop.Interval)
	loop.NextRun = &next
	s.mu.Unlock()
}

// RunNow executes a loop's handler immediately, outside its schedule
func (s *Scheduler) RunNow(id string) error {
	s.mu.RLock()
	loop, ok := s.loops[id]
	ctx := s.ctx
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("loop not found: %s", id)
	}

	go s.execute(ctx, loop)
	return nil
}

// GetLoop returns a copy of the loop with the given ID
func (s *Scheduler) GetLoop(id string) (*Loop, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loop, ok := s.loops[id]
	if !ok {
		return nil, false
	}
	cp := *loop
	return &cp, true
}

// ListLoops returns a snapshot of all loops. Copies are returned so callers
// can read counters without holding the scheduler lock.
func (s *Scheduler) ListLoops() []*Loop {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loops := make([]*Loop, 0, len(s.loops))
	for _, loop := range s.loops {
		cp := *loop
		loops = append(loops, &cp)
	}
	return loops
}

// GetStats returns scheduler statistics
func (s *Scheduler) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:      s.started,
		TotalLoops:   len(s.loops),
		RunningLoops: len(s.running),
	}

	for _, loop := range s.loops {
		if loop.Enabled {
			stats.EnabledLoops++
		}
		stats.TotalRuns += loop.RunCount
		stats.TotalErrors += loop.ErrorCount
	}

	return stats
}

// Stats contains scheduler statistics
type Stats struct {
	Started      bool  `json:"started"`
	TotalLoops   int   `json:"total_loops"`
	EnabledLoops int   `json:"enabled_loops"`
	RunningLoops int   `json:"running_loops"`
	TotalRuns    int64 `json:"total_runs"`
	TotalErrors  int64 `json:"total_errors"`
}
