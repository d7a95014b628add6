package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/victoryapp/victory/internal/logging"
)

// SagaError reports which step of a multi-write operation failed and which
// steps had already been applied. The store offers no transactions, so the
// completed steps stay applied.
type SagaError struct {
	Op        string
	Step      string
	Completed []string
	Err       error
}

func (e *SagaError) Error() string {
	if len(e.Completed) == 0 {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %s (after %s): %v", e.Op, e.Step, strings.Join(e.Completed, ", "), e.Err)
}

func (e *SagaError) Unwrap() error { return e.Err }

type step struct {
	name string
	run  func(ctx context.Context) error
}

// runSaga executes steps in order and stops at the first failure.
func runSaga(ctx context.Context, logger logging.Logger, op string, steps ...step) error {
	done := make([]string, 0, len(steps))
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return &SagaError{Op: op, Step: s.name, Completed: done, Err: err}
		}
		if err := s.run(ctx); err != nil {
			logger.Warn(ctx, "saga step failed", "op", op, "step", s.name, "completed", done, "error", err)
			return &SagaError{Op: op, Step: s.name, Completed: done, Err: err}
		}
		done = append(done, s.name)
	}
	logger.Debug(ctx, "saga completed", "op", op)
	return nil
}
