package saga

import "context"

// Saga is an ordered, type-checked chain of steps from I to O, runnable
// any number of times. Steps execute one at a time; on failure the
// engine rolls back every step attempted so far in strict LIFO order,
// passing each compensator the exact value that step's Execute received.
type Saga[Rt, I, O any] struct {
	steps []erasedStep[Rt]
}

type compensationRecord[Rt any] struct {
	name        string
	description string
	input       any
	compensate  func(ctx context.Context, rt Rt, in any) error
}

// Run executes the saga to completion or to its first failure. It always
// returns an AuditLog, even on success.
func (s *Saga[Rt, I, O]) Run(ctx context.Context, rt Rt, in I) (O, *AuditLog, error) {
	var zero O
	audit := newAuditLog()
	stack := make([]compensationRecord[Rt], 0, len(s.steps))

	var current any = in
	for _, step := range s.steps {
		audit.recordStart(step.name)
		stack = append(stack, compensationRecord[Rt]{
			name:        step.name,
			description: step.compensationDescription,
			input:       current,
			compensate:  step.compensate,
		})
		out, err := step.execute(ctx, rt, current)
		if err != nil {
			audit.recordFailure(err)
			compErrs := rollback(ctx, rt, stack, audit)
			if len(compErrs) > 0 {
				return zero, audit, &CompensationFailedError{
					FailedStep:         step.name,
					StepError:          err,
					CompensationErrors: compErrs,
				}
			}
			return zero, audit, &StepFailedError{Step: step.name, Cause: err}
		}
		audit.recordSuccess()
		current = out
	}

	final, _ := current.(O)
	return final, audit, nil
}

// rollback walks stack from most recently pushed to oldest, invoking each
// record's compensator with that step's original execute input. It never
// stops early: a compensation failure is recorded and rollback continues.
func rollback[Rt any](ctx context.Context, rt Rt, stack []compensationRecord[Rt], audit *AuditLog) []CompensationError {
	var failures []CompensationError
	for i := len(stack) - 1; i >= 0; i-- {
		rec := stack[i]
		if err := rec.compensate(ctx, rt, rec.input); err != nil {
			audit.recordCompensationFailed(rec.name, rec.description, err)
			failures = append(failures, CompensationError{Step: rec.name, Description: rec.description, Err: err})
			continue
		}
		audit.recordCompensated(rec.name, rec.description)
	}
	return failures
}
