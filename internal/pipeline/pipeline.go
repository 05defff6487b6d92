// Package pipeline orchestrates the build-and-publish chain: checkout,
// provision, extract, render, artifact, publish. Stages run strictly in
// order; the first fatal error aborts the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Stage is a discrete unit of work in a run.
type Stage func(ctx context.Context, rs *RunState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// namedStage pairs a stage with its report name.
type namedStage struct {
	name string
	fn   Stage
}

// stageObserver is notified after every stage completes, successfully or not.
type stageObserver func(stage, outcome string, duration time.Duration, err error)

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warning-class stage errors are recorded and execution
// continues.
func runStages(ctx context.Context, rs *RunState, stages []namedStage, observe stageObserver) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			rs.Report.Errors = append(rs.Report.Errors, se)
			rs.Report.StageOutcomes[st.name] = string(se.Kind)
			observe(st.name, string(se.Kind), 0, se)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, rs)
		dur := time.Since(t0)
		rs.Report.StageDurations[st.name] = dur

		if err == nil {
			rs.Report.StageOutcomes[st.name] = "success"
			observe(st.name, "success", dur, nil)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Wrap unknown errors as fatal by default.
			se = newFatalStageError(st.name, err)
		}
		rs.Report.StageOutcomes[st.name] = string(se.Kind)
		observe(st.name, string(se.Kind), dur, se)

		switch se.Kind {
		case StageErrorWarning:
			rs.Report.Warnings = append(rs.Report.Warnings, se)
			continue
		default:
			rs.Report.Errors = append(rs.Report.Errors, se)
			return se
		}
	}
	return nil
}
