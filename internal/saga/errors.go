package saga

import "fmt"

// CompensationError records one failed compensation during rollback.
type CompensationError struct {
	Step        string
	Description string
	Err         error
}

func (c CompensationError) Error() string {
	return fmt.Sprintf("%s (%s): %v", c.Step, c.Description, c.Err)
}

func (c CompensationError) Unwrap() error { return c.Err }

// StepFailedError is returned when a step fails and every compensation
// attempted during rollback succeeds.
type StepFailedError struct {
	Step  string
	Cause error
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("step %q failed: %v (rollback completed successfully)", e.Step, e.Cause)
}

func (e *StepFailedError) Unwrap() error { return e.Cause }

// CompensationFailedError is returned when a step fails and at least one
// compensation during rollback also fails. The repository may require
// manual inspection.
type CompensationFailedError struct {
	FailedStep         string
	StepError          error
	CompensationErrors []CompensationError
}

func (e *CompensationFailedError) Error() string {
	return fmt.Sprintf(
		"step %q failed: %v (rollback incomplete: %d compensation(s) failed, repository may need manual inspection)",
		e.FailedStep, e.StepError, len(e.CompensationErrors),
	)
}

func (e *CompensationFailedError) Unwrap() error { return e.StepError }
