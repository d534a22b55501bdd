package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRuntime struct {
	log *[]string
}

// addStep appends n to its input and records the input it saw.
type addStep struct {
	n    int
	name string
}

func (s addStep) Name() string { return s.name }

func (s addStep) Execute(_ context.Context, rt testRuntime, in int) (int, error) {
	*rt.log = append(*rt.log, s.name+":execute:"+itoa(in))
	return in + s.n, nil
}

func (s addStep) Compensate(_ context.Context, rt testRuntime, in int) error {
	*rt.log = append(*rt.log, s.name+":compensate:"+itoa(in))
	return nil
}

func (s addStep) CompensationDescription() string { return "subtract " + itoa(s.n) }

// failingStep always fails.
type failingStep struct{ name string }

func (s failingStep) Name() string { return s.name }

func (s failingStep) Execute(_ context.Context, _ testRuntime, in int) (int, error) {
	return 0, errors.New("boom")
}

func (s failingStep) Compensate(context.Context, testRuntime, int) error { return nil }

func (s failingStep) CompensationDescription() string { return ReadOnlyCompensationDescription }

// badCompensateStep fails its own compensation.
type badCompensateStep struct{ name string }

func (s badCompensateStep) Name() string { return s.name }

func (s badCompensateStep) Execute(_ context.Context, _ testRuntime, in int) (int, error) {
	return in, nil
}

func (s badCompensateStep) Compensate(context.Context, testRuntime, int) error {
	return errors.New("compensation blew up")
}

func (s badCompensateStep) CompensationDescription() string { return "always fails" }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}

func TestSaga_Execute(t *testing.T) {
	t.Run("Should run every step in order and return the final output", func(t *testing.T) {
		b := NewBuilder[testRuntime, int]()
		b2 := Then[testRuntime, int, int](b, addStep{n: 1, name: "a"})
		b3 := Then[testRuntime, int, int](b2, addStep{n: 2, name: "b"})
		s := Build[testRuntime, int, int](b3)

		var log []string
		out, audit, err := s.Run(context.Background(), testRuntime{log: &log}, 10)
		require.NoError(t, err)
		assert.Equal(t, 13, out)
		assert.Equal(t, []string{"a:execute:10", "b:execute:11"}, log)
		assert.Len(t, audit.Records, 2)
		assert.Equal(t, StatusExecuted, audit.Records[0].Status)
		assert.Equal(t, StatusExecuted, audit.Records[1].Status)
	})

	t.Run("Should roll back completed steps in LIFO order on failure", func(t *testing.T) {
		b := NewBuilder[testRuntime, int]()
		b2 := Then[testRuntime, int, int](b, addStep{n: 1, name: "a"})
		b3 := Then[testRuntime, int, int](b2, addStep{n: 2, name: "b"})
		b4 := Then[testRuntime, int, int](b3, failingStep{name: "c"})
		s := Build[testRuntime, int, int](b4)

		var log []string
		_, _, err := s.Run(context.Background(), testRuntime{log: &log}, 10)
		require.Error(t, err)
		var stepErr *StepFailedError
		require.True(t, errors.As(err, &stepErr))
		assert.Equal(t, "c", stepErr.Step)

		assert.Equal(t, []string{
			"a:execute:10",
			"b:execute:11",
			"b:compensate:11",
			"a:compensate:10",
		}, log)
	})

	t.Run("Should pass compensate the exact value execute received, not the output", func(t *testing.T) {
		b := NewBuilder[testRuntime, int]()
		b2 := Then[testRuntime, int, int](b, addStep{n: 5, name: "a"})
		b3 := Then[testRuntime, int, int](b2, failingStep{name: "b"})
		s := Build[testRuntime, int, int](b3)

		var log []string
		_, _, err := s.Run(context.Background(), testRuntime{log: &log}, 7)
		require.Error(t, err)
		assert.Contains(t, log, "a:compensate:7")
		assert.NotContains(t, log, "a:compensate:12")
	})

	t.Run("Should continue rolling back even when a compensation fails", func(t *testing.T) {
		b := NewBuilder[testRuntime, int]()
		b2 := Then[testRuntime, int, int](b, addStep{n: 1, name: "a"})
		b3 := Then[testRuntime, int, int](b2, badCompensateStep{name: "broken"})
		b4 := Then[testRuntime, int, int](b3, failingStep{name: "fails"})
		s := Build[testRuntime, int, int](b4)

		var log []string
		_, audit, err := s.Run(context.Background(), testRuntime{log: &log}, 1)
		require.Error(t, err)
		var compErr *CompensationFailedError
		require.True(t, errors.As(err, &compErr))
		assert.Equal(t, "fails", compErr.FailedStep)
		require.Len(t, compErr.CompensationErrors, 1)
		assert.Equal(t, "broken", compErr.CompensationErrors[0].Step)

		assert.Contains(t, log, "a:compensate:1")

		var sawFailedCompensation, sawCompensatedA bool
		for _, r := range audit.Records {
			if r.Name == "broken" && r.Status == StatusCompensationFailed {
				sawFailedCompensation = true
			}
			if r.Name == "a" && r.Status == StatusCompensated {
				sawCompensatedA = true
			}
		}
		assert.True(t, sawFailedCompensation)
		assert.True(t, sawCompensatedA)
	})

	t.Run("Should mark a read-only step Compensated trivially during rollback", func(t *testing.T) {
		b := NewBuilder[testRuntime, int]()
		b2 := Then[testRuntime, int, int](b, addStep{n: 0, name: "readonly"})
		b3 := Then[testRuntime, int, int](b2, failingStep{name: "fails"})
		s := Build[testRuntime, int, int](b3)

		var log []string
		_, audit, err := s.Run(context.Background(), testRuntime{log: &log}, 3)
		require.Error(t, err)
		found := false
		for _, r := range audit.Records {
			if r.Name == "readonly" && r.Status == StatusCompensated {
				found = true
			}
		}
		assert.True(t, found)
	})
}
