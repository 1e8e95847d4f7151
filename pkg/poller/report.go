package poller

import (
	"errors"
	"fmt"
)

// ErrDataShape indicates that a response didn't carry what we expected from
// it: a missing field, an index out of range, too few rigs.
//
var ErrDataShape = errors.New("unexpected data shape")

// Stage is a step of a poll cycle.
//
type Stage string

const (
	StageFetchGroups     Stage = "FETCH_GROUPS"
	StageFetchAccounting Stage = "FETCH_ACCOUNTING"
	StageFetchRigDetail  Stage = "FETCH_RIG_DETAIL"
	StageAggregate       Stage = "AGGREGATE"
	StagePublish         Stage = "PUBLISH"
)

// StepResult is the outcome of a single step of a cycle.
//
type StepResult struct {
	Stage Stage

	// Step further qualifies the stage when it's made of independent
	// sub-steps (e.g., "balance" and "payouts" for accounting).
	//
	Step string

	Err error
}

func (r StepResult) String() string {
	name := string(r.Stage)
	if r.Step != "" {
		name += "/" + r.Step
	}

	if r.Err != nil {
		return fmt.Sprintf("%s: %v", name, r.Err)
	}

	return name + ": ok"
}

// Report summarizes a poll cycle.
//
type Report struct {
	Steps []StepResult

	// Published is the number of metric updates that made it to the
	// registry.
	//
	Published int
}

func (r *Report) record(stage Stage, step string, err error) {
	r.Steps = append(r.Steps, StepResult{Stage: stage, Step: step, Err: err})
}

// Err joins the errors of every failed step, nil if the cycle went through
// cleanly.
//
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Steps {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Stage, s.Err))
		}
	}

	return errors.Join(errs...)
}

// Result looks up the result of a stage (and optionally step).
//
func (r *Report) Result(stage Stage, step string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Stage == stage && s.Step == step {
			return s, true
		}
	}

	return StepResult{}, false
}
