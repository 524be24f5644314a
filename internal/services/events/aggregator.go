package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// LogRefreshTrigger tells the UI to re-fetch logs instead of carrying them.
type LogRefreshTrigger struct {
	Scope     string   // "service" or "run"
	RunIDs    []string // Only for scope=run
	Finished  bool     // Only for scope=run (true when the run reached a terminal state)
	Timestamp time.Time
}

// RunLogAggregator batches service and run log notifications and triggers UI
// refresh on a time interval. Individual log lines still stream as log_event
// messages; the aggregator covers clients that render from the logs API.
//
// Triggers occur:
// - Every threshold (default 10 seconds) for scopes with pending logs
// - Immediately when a run reaches a terminal state, bypassing the debounce,
//   since missing that trigger means the UI never shows the final logs.
type RunLogAggregator struct {
	mu        sync.Mutex
	threshold time.Duration

	hasServiceLogs     bool
	lastServiceTrigger time.Time

	runHasLogs     map[string]bool
	runLastTrigger map[string]time.Time
	runFinished    map[string]bool

	onTrigger func(ctx context.Context, trigger LogRefreshTrigger)

	logger arbor.ILogger
}

// NewRunLogAggregator creates an aggregator with time-based triggering.
func NewRunLogAggregator(
	threshold time.Duration,
	onTrigger func(ctx context.Context, trigger LogRefreshTrigger),
	logger arbor.ILogger,
) *RunLogAggregator {
	if threshold <= 0 {
		threshold = 10 * time.Second
	}

	return &RunLogAggregator{
		threshold:          threshold,
		lastServiceTrigger: time.Now(),
		runHasLogs:         make(map[string]bool),
		runLastTrigger:     make(map[string]time.Time),
		runFinished:        make(map[string]bool),
		onTrigger:          onTrigger,
		logger:             logger,
	}
}

// RecordServiceLog marks a pending service log. Triggering happens on flush.
func (a *RunLogAggregator) RecordServiceLog(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.hasServiceLogs = true
	if a.lastServiceTrigger.IsZero() {
		a.lastServiceTrigger = time.Now()
	}
}

// RecordRunLog marks pending logs for a run. Triggering happens on flush.
func (a *RunLogAggregator) RecordRunLog(ctx context.Context, runID string) {
	if runID == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.runHasLogs[runID] = true
	if _, exists := a.runLastTrigger[runID]; !exists {
		a.runLastTrigger[runID] = time.Now()
	}
}

// TriggerRunImmediately fires a refresh for a finished run, once.
func (a *RunLogAggregator) TriggerRunImmediately(ctx context.Context, runID string) {
	if runID == "" {
		return
	}

	a.mu.Lock()
	if a.runFinished[runID] {
		a.mu.Unlock()
		return
	}
	a.runFinished[runID] = true
	now := time.Now()
	a.runHasLogs[runID] = false
	a.runLastTrigger[runID] = now
	a.mu.Unlock()

	// No logging here: logging feeds log_event which would loop back
	a.safeOnTrigger(ctx, LogRefreshTrigger{
		Scope:     "run",
		RunIDs:    []string{runID},
		Finished:  true,
		Timestamp: now,
	})
}

// FlushAll triggers refresh for all pending logs (used on shutdown).
func (a *RunLogAggregator) FlushAll(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()

	if a.hasServiceLogs {
		a.hasServiceLogs = false
		a.lastServiceTrigger = now
		go a.safeOnTrigger(ctx, LogRefreshTrigger{
			Scope:     "service",
			Timestamp: now,
		})
	}

	runIDs := make([]string, 0, len(a.runHasLogs))
	for runID, hasLogs := range a.runHasLogs {
		if hasLogs {
			runIDs = append(runIDs, runID)
			a.runHasLogs[runID] = false
			a.runLastTrigger[runID] = now
		}
	}

	if len(runIDs) > 0 {
		go a.safeOnTrigger(ctx, LogRefreshTrigger{
			Scope:     "run",
			RunIDs:    runIDs,
			Finished:  false,
			Timestamp: now,
		})
	}
}

// flushPending fires triggers for scopes whose threshold has elapsed.
func (a *RunLogAggregator) flushPending(ctx context.Context) {
	a.mu.Lock()

	now := time.Now()
	var triggers []LogRefreshTrigger

	if a.hasServiceLogs && now.Sub(a.lastServiceTrigger) >= a.threshold {
		a.hasServiceLogs = false
		a.lastServiceTrigger = now
		triggers = append(triggers, LogRefreshTrigger{
			Scope:     "service",
			Timestamp: now,
		})
	}

	runIDs := make([]string, 0, len(a.runHasLogs))
	for runID, hasLogs := range a.runHasLogs {
		if hasLogs && now.Sub(a.runLastTrigger[runID]) >= a.threshold {
			runIDs = append(runIDs, runID)
			a.runHasLogs[runID] = false
			a.runLastTrigger[runID] = now
		}
	}
	if len(runIDs) > 0 {
		triggers = append(triggers, LogRefreshTrigger{
			Scope:     "run",
			RunIDs:    runIDs,
			Finished:  false,
			Timestamp: now,
		})
	}

	a.mu.Unlock()

	for _, trigger := range triggers {
		a.safeOnTrigger(ctx, trigger)
	}
}

// safeOnTrigger wraps onTrigger with panic recovery
func (a *RunLogAggregator) safeOnTrigger(ctx context.Context, trigger LogRefreshTrigger) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("scope", trigger.Scope).
				Msg("PANIC in RunLogAggregator.onTrigger - recovered")
		}
	}()
	a.onTrigger(ctx, trigger)
}

// StartPeriodicFlush starts a background goroutine that flushes pending
// triggers once per second; flushPending enforces the threshold.
func (a *RunLogAggregator) StartPeriodicFlush(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// Flush remaining triggers on shutdown
				a.FlushAll(context.Background())
				return
			case <-ticker.C:
				a.flushPending(ctx)
			}
		}
	}()
}
