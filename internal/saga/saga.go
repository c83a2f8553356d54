// Package saga runs a sequence of writes that must all land or be undone.
// Each step has a forward action and a compensating action; when a step
// fails, the compensations of the steps that already succeeded run in
// reverse order.
package saga

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrCompensation marks a failure while undoing completed steps. It is
// joined with the error of the step that triggered the unwind.
var ErrCompensation = errors.New("compensation failed")

// Action is a forward or compensating action.
type Action func(ctx context.Context) error

type step struct {
	name string
	do   Action
	undo Action
}

// Saga is an ordered list of steps. It is not safe for concurrent use.
type Saga struct {
	steps []step
	log   *slog.Logger
}

// New returns an empty saga. A nil logger discards.
func New(log *slog.Logger) *Saga {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Saga{log: log}
}

// Step appends a step. undo may be nil when there is nothing to reverse.
func (s *Saga) Step(name string, do, undo Action) *Saga {
	s.steps = append(s.steps, step{name: name, do: do, undo: undo})
	return s
}

// Len returns the number of steps.
func (s *Saga) Len() int { return len(s.steps) }

// Run executes the steps in order and stops at the first failure, then
// unwinds. Compensations run even if ctx is already cancelled.
func (s *Saga) Run(ctx context.Context) error {
	for i, st := range s.steps {
		if err := ctx.Err(); err != nil {
			return s.unwind(ctx, i, st.name, err)
		}
		if err := st.do(ctx); err != nil {
			return s.unwind(ctx, i, st.name, err)
		}
	}
	return nil
}

// unwind compensates steps [0, failed) in reverse.
func (s *Saga) unwind(ctx context.Context, failed int, name string, cause error) error {
	err := fmt.Errorf("%s: %w", name, cause)
	ctx = context.WithoutCancel(ctx)

	var undoErrs []error
	for i := failed - 1; i >= 0; i-- {
		st := s.steps[i]
		if st.undo == nil {
			continue
		}
		if uerr := st.undo(ctx); uerr != nil {
			s.log.Error("saga compensation failed", "step", st.name, "error", uerr)
			undoErrs = append(undoErrs, fmt.Errorf("%w: %s: %w", ErrCompensation, st.name, uerr))
		}
	}
	if len(undoErrs) == 0 {
		s.log.Warn("saga rolled back", "step", name, "error", cause)
		return err
	}
	return errors.Join(append([]error{err}, undoErrs...)...)
}
