package saga

import "context"

// erasedStep stores a Step[I, O, Rt] behind closures operating on opaque
// values. The type assertions inside execute/compensate are safe because
// Builder/Then only ever wires a step whose I matches the previous step's
// O at compile time — the erased layer downcasts with an assertion rather
// than a runtime type switch, the same trade the type-state builder buys
// in the original saga design this package generalizes.
type erasedStep[Rt any] struct {
	name                    string
	compensationDescription string
	execute                 func(ctx context.Context, rt Rt, in any) (any, error)
	compensate              func(ctx context.Context, rt Rt, in any) error
}

func wrapStep[Rt, I, O any](step Step[I, O, Rt]) erasedStep[Rt] {
	return erasedStep[Rt]{
		name:                    step.Name(),
		compensationDescription: step.CompensationDescription(),
		execute: func(ctx context.Context, rt Rt, in any) (any, error) {
			typedIn := in.(I)
			return step.Execute(ctx, rt, typedIn)
		},
		compensate: func(ctx context.Context, rt Rt, in any) error {
			typedIn := in.(I)
			return step.Compensate(ctx, rt, typedIn)
		},
	}
}
