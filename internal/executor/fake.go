package executor

import "context"

// Fixed is a deterministic Executor fake for tests and for embedders that
// have not yet wired a real runtime: every Run call returns the same
// pre-configured Result, or Err if set. Grounded on the teacher's own
// preference for hand-written, dependency-free test doubles over a mocking
// library (spec §9 design notes; see internal/peermanagement/discovery's
// plain-struct fakes).
type Fixed struct {
	Result Result
	Err    error
}

// NewFixed returns a Fixed executor that always succeeds with result.
func NewFixed(result Result) *Fixed {
	return &Fixed{Result: result}
}

// Run returns f.Result, f.Err, ignoring the workload entirely.
func (f *Fixed) Run(ctx context.Context, workload Workload) (Result, error) {
	if f.Err != nil {
		return Result{}, f.Err
	}
	return f.Result, nil
}
