package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Task interface for scheduled tasks
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// Scheduler manages multiple scheduled tasks. Runs of the same task never
// overlap: a tick that arrives while the previous run is still going is
// skipped.
type Scheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   []Task
	wg      sync.WaitGroup
	skipped atomic.Int64
}

// New creates a new task scheduler
func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		tasks:  make([]Task, 0),
	}
}

// AddTask adds a task to the scheduler
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	slog.Info("Starting task scheduler")
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
	slog.Info("Task scheduler started", "task_count", len(s.tasks))
}

// Stop cancels all tasks and waits for in-flight runs to return
func (s *Scheduler) Stop() {
	slog.Info("Stopping task scheduler")
	s.cancel()
	s.wg.Wait()
	slog.Info("Task scheduler stopped")
}

// Skipped returns how many ticks were dropped because a run was in progress
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

// runTask runs a single task on its schedule
func (s *Scheduler) runTask(task Task) {
	defer s.wg.Done()

	var (
		running atomic.Bool
		runs    sync.WaitGroup
	)
	defer runs.Wait()

	trigger := func() {
		if !running.CompareAndSwap(false, true) {
			s.skipped.Add(1)
			slog.Warn("Previous run still in progress, skipping tick", "task", task.Name())
			return
		}
		runs.Add(1)
		go func() {
			defer runs.Done()
			defer running.Store(false)
			s.execute(task)
		}()
	}

	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	// Run immediately on start
	trigger()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			trigger()
		}
	}
}

// execute runs the task once, logging any error or panic so the schedule
// keeps going
func (s *Scheduler) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task panicked", "task", task.Name(), "panic", fmt.Sprint(r))
		}
	}()

	if err := task.Run(s.ctx); err != nil && s.ctx.Err() == nil {
		slog.Error("Error running task", "task", task.Name(), "error", err)
	}
}
