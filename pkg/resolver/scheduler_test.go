package resolver

import (
	"context"
	"testing"
)

func TestSchedulerEmptyScheduleIsNoop(t *testing.T) {
	mgr := newTestManager(t, "")
	sched := NewScheduler(mgr, "", nil)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start with empty schedule: %v", err)
	}
	if sched.IsRunning() {
		t.Error("empty schedule should not start the scheduler")
	}
	if sched.NextRun() != nil {
		t.Error("NextRun should be nil when not running")
	}
}

func TestSchedulerInvalidExpression(t *testing.T) {
	mgr := newTestManager(t, "")
	sched := NewScheduler(mgr, "not a cron line", nil)

	if err := sched.Start(context.Background()); err == nil {
		t.Error("invalid cron expression should fail")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	mgr := newTestManager(t, "")
	sched := NewScheduler(mgr, "*/5 * * * *", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sched.IsRunning() {
		t.Error("scheduler should be running")
	}
	if sched.NextRun() == nil {
		t.Error("NextRun should be set while running")
	}
	if err := sched.Start(ctx); err == nil {
		t.Error("double Start should fail")
	}

	sched.Stop()
	if sched.IsRunning() {
		t.Error("scheduler should have stopped")
	}
	// Stop is idempotent.
	sched.Stop()
}
