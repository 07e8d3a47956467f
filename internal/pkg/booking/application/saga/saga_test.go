package saga_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/thorep/stallplass-sub008/internal/pkg/booking/application/saga"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_ExecutesForwardInOrder(t *testing.T) {
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}

	err := saga.Run(context.Background(), discard(), []saga.Step{
		{Name: "a", Critical: true, Forward: record("a")},
		{Name: "b", Forward: record("b")},
		{Name: "c", Critical: true, Forward: record("c")},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("got order %v; want [a b c]", order)
	}
}

func TestRun_CriticalFailureCompensatesInReverse(t *testing.T) {
	boom := errors.New("step two broke")
	var compensated []string
	undo := func(name string) func(context.Context) error {
		return func(context.Context) error {
			compensated = append(compensated, name)
			return nil
		}
	}

	err := saga.Run(context.Background(), discard(), []saga.Step{
		{Name: "first", Critical: true, Forward: func(context.Context) error { return nil }, Compensate: undo("first")},
		{Name: "second", Critical: true, Forward: func(context.Context) error { return nil }, Compensate: undo("second")},
		{Name: "third", Critical: true, Forward: func(context.Context) error { return boom }},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v; want wrapped step error", err)
	}
	if len(compensated) != 2 || compensated[0] != "second" || compensated[1] != "first" {
		t.Fatalf("got compensation order %v; want [second first]", compensated)
	}
}

func TestRun_BestEffortFailureDoesNotStopOrCompensate(t *testing.T) {
	var compensated bool
	var lastRan bool

	err := saga.Run(context.Background(), discard(), []saga.Step{
		{
			Name:     "keep",
			Critical: true,
			Forward:  func(context.Context) error { return nil },
			Compensate: func(context.Context) error {
				compensated = true
				return nil
			},
		},
		{Name: "flaky", Forward: func(context.Context) error { return errors.New("transient") }},
		{Name: "tail", Forward: func(context.Context) error { lastRan = true; return nil }},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if compensated {
		t.Fatal("best-effort failure must not trigger compensation")
	}
	if !lastRan {
		t.Fatal("steps after a best-effort failure must still run")
	}
}

func TestRun_NilCompensateIsSkipped(t *testing.T) {
	boom := errors.New("later failure")
	var undone bool

	err := saga.Run(context.Background(), discard(), []saga.Step{
		{Name: "no_undo", Critical: true, Forward: func(context.Context) error { return nil }},
		{
			Name:     "with_undo",
			Critical: true,
			Forward:  func(context.Context) error { return nil },
			Compensate: func(context.Context) error {
				undone = true
				return nil
			},
		},
		{Name: "fails", Critical: true, Forward: func(context.Context) error { return boom }},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v; want wrapped step error", err)
	}
	if !undone {
		t.Fatal("compensable step must be undone")
	}
}

func TestRun_CompensationErrorDoesNotMaskStepError(t *testing.T) {
	boom := errors.New("critical failure")

	err := saga.Run(context.Background(), discard(), []saga.Step{
		{
			Name:       "first",
			Critical:   true,
			Forward:    func(context.Context) error { return nil },
			Compensate: func(context.Context) error { return errors.New("undo also failed") },
		},
		{Name: "second", Critical: true, Forward: func(context.Context) error { return boom }},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v; want the original step error", err)
	}
}
