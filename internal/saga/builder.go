package saga

// Builder is a type-state builder: Rt is the shared runtime, O is the
// output type of the last step appended so far (the saga's input type
// before any step has been added). Then appends a step whose input type
// must equal O — a mismatch is a compile error, not a runtime one.
type Builder[Rt, O any] struct {
	steps []erasedStep[Rt]
}

// NewBuilder starts an empty builder for a saga whose first step accepts I.
func NewBuilder[Rt, I any]() *Builder[Rt, I] {
	return &Builder[Rt, I]{}
}

// Then appends step to the chain. The previous builder's output type O
// must equal step's declared input type — Go's type checker enforces
// this at the call site since step's first type parameter is fixed to O.
func Then[Rt, O, Next any](b *Builder[Rt, O], step Step[O, Next, Rt]) *Builder[Rt, Next] {
	return &Builder[Rt, Next]{steps: append(b.steps, wrapStep[Rt, O, Next](step))}
}

// Build finalizes the chain into a runnable Saga. I is the overall saga
// input type (the type parameter of the very first Builder), O is the
// final output type (the type parameter of b). Both must be supplied
// explicitly since neither is recoverable from b alone.
func Build[Rt, I, O any](b *Builder[Rt, O]) *Saga[Rt, I, O] {
	return &Saga[Rt, I, O]{steps: b.steps}
}
