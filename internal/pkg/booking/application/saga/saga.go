package saga

import (
	"context"
	"fmt"
	"log/slog"
)

// Step is one unit of a linear workflow. Critical steps gate the steps after
// them and are compensated when a later critical step fails; best-effort steps
// only get logged on failure and never trigger compensation.
type Step struct {
	Name     string
	Critical bool
	Forward  func(ctx context.Context) error
	// Compensate undoes Forward. Only consulted for critical steps that
	// already completed when a later critical step fails. May be nil.
	Compensate func(ctx context.Context) error
}

// Run executes steps in order. On a critical step failure it compensates the
// previously completed critical steps in reverse order (best-effort, logged)
// and returns the failing step's error. Best-effort step failures are logged
// and skipped.
func Run(ctx context.Context, log *slog.Logger, steps []Step) error {
	if log == nil {
		log = slog.Default()
	}

	var done []Step // completed critical steps, in execution order
	for _, step := range steps {
		err := step.Forward(ctx)
		if err == nil {
			if step.Critical {
				done = append(done, step)
			}
			continue
		}

		if !step.Critical {
			log.Warn("saga: best-effort step failed", "step", step.Name, "error", err)
			continue
		}

		log.Error("saga: critical step failed, compensating", "step", step.Name, "error", err)
		for i := len(done) - 1; i >= 0; i-- {
			prev := done[i]
			if prev.Compensate == nil {
				continue
			}
			if cerr := prev.Compensate(ctx); cerr != nil {
				log.Error("saga: compensation failed", "step", prev.Name, "error", cerr)
			}
		}
		return fmt.Errorf("saga: step %s: %w", step.Name, err)
	}
	return nil
}
