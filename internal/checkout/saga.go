package checkout

import (
	"context"

	"go.uber.org/multierr"
)

// StepName identifies one step of a checkout submission.
type StepName string

const (
	StepCreatePaymentSession StepName = "create_payment_session"
	StepRecordOrder          StepName = "record_order"
)

// step is one fallible call of a submission. A failed critical step aborts the
// sequence; a failed non-critical step is recorded and the sequence continues.
type step struct {
	name     StepName
	critical bool
	run      func(ctx context.Context) error
}

// StepFailure records a step that failed without aborting the submission.
type StepFailure struct {
	Step StepName
	Err  error
}

type sagaResult struct {
	failures []StepFailure
	// deferred combines every non-critical failure.
	deferred error
}

// runSteps executes steps strictly in order, each awaited before the next begins.
func runSteps(ctx context.Context, steps ...step) (sagaResult, error) {
	var result sagaResult
	for _, s := range steps {
		err := s.run(ctx)
		if err == nil {
			continue
		}
		if s.critical {
			return result, err
		}
		result.failures = append(result.failures, StepFailure{Step: s.name, Err: err})
		result.deferred = multierr.Append(result.deferred, err)
	}
	return result, nil
}
