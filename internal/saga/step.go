// Package saga provides a generic, type-checked-at-build-time step chain
// with LIFO compensation on failure.
package saga

import "context"

// Step is one unit of work in a saga. Rt is the caller-supplied runtime
// dependency bundle shared by every step; it is not part of the typed
// data flow between steps.
type Step[I, O, Rt any] interface {
	Name() string
	Execute(ctx context.Context, rt Rt, in I) (O, error)
	Compensate(ctx context.Context, rt Rt, in I) error
	CompensationDescription() string
}

// ReadOnlyCompensationDescription is the conventional description for a
// step whose Compensate is a no-op. Read-only steps still appear in the
// audit log and are marked Compensated (trivially) during rollback.
const ReadOnlyCompensationDescription = "no-op (read-only step)"
