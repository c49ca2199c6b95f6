package app

import (
	"fmt"
	"time"

	"knotquiz/internal/domain"
)

// TimerState is the lifecycle position of a Timer.
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerPaused
	TimerStopped
)

func (s TimerState) String() string {
	switch s {
	case TimerIdle:
		return "idle"
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerStopped:
		return "stopped"
	default:
		return fmt.Sprintf("TimerState(%d)", int(s))
	}
}

// Timer measures elapsed wall-clock time excluding paused intervals.
// Reading Elapsed never changes its state; only Start, Pause, Resume and
// Stop do. Invalid transitions return ErrInvalidTimerTransition and leave the
// timer untouched.
type Timer struct {
	now        func() time.Time
	state      TimerState
	startedAt  time.Time
	pausedAt   time.Time
	pausedFor  time.Duration
	finalTotal time.Duration
}

// NewTimer returns an idle timer reading the given clock (time.Now if nil).
func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now}
}

// State returns the current state.
func (t *Timer) State() TimerState {
	return t.state
}

// Start begins timing. Valid only from idle.
func (t *Timer) Start() error {
	if t.state != TimerIdle {
		return t.invalid("start")
	}
	t.startedAt = t.now()
	t.pausedFor = 0
	t.finalTotal = 0
	t.state = TimerRunning
	return nil
}

// Pause freezes elapsed time. Valid only while running.
func (t *Timer) Pause() error {
	if t.state != TimerRunning {
		return t.invalid("pause")
	}
	t.pausedAt = t.now()
	t.state = TimerPaused
	return nil
}

// Resume continues timing after a pause. Valid only while paused.
func (t *Timer) Resume() error {
	if t.state != TimerPaused {
		return t.invalid("resume")
	}
	t.pausedFor += t.now().Sub(t.pausedAt)
	t.pausedAt = time.Time{}
	t.state = TimerRunning
	return nil
}

// Stop finalizes the elapsed total. Valid while running or paused.
func (t *Timer) Stop() error {
	if t.state != TimerRunning && t.state != TimerPaused {
		return t.invalid("stop")
	}
	t.finalTotal = t.Elapsed()
	t.state = TimerStopped
	return nil
}

// Elapsed returns the accumulated running time.
func (t *Timer) Elapsed() time.Duration {
	switch t.state {
	case TimerRunning:
		return t.now().Sub(t.startedAt) - t.pausedFor
	case TimerPaused:
		return t.pausedAt.Sub(t.startedAt) - t.pausedFor
	default:
		return t.finalTotal
	}
}

// ElapsedMs returns Elapsed in whole milliseconds.
func (t *Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}

func (t *Timer) invalid(op string) error {
	return fmt.Errorf("%w: %s while %s", domain.ErrInvalidTimerTransition, op, t.state)
}
