package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"git.home.luguber.info/inful/docpipe/internal/workspace"
)

func testRunState() *RunState {
	return newRunState("run-test", Trigger{Branch: "master"}, workspace.NewManager(""))
}

type observed struct {
	stage, outcome string
}

func TestRunStagesOrderAndTiming(t *testing.T) {
	rs := testRunState()
	var order []string
	stages := []namedStage{
		{"one", func(context.Context, *RunState) error { order = append(order, "one"); return nil }},
		{"two", func(context.Context, *RunState) error { order = append(order, "two"); return nil }},
	}

	var seen []observed
	err := runStages(context.Background(), rs, stages, func(stage, outcome string, _ time.Duration, _ error) {
		seen = append(seen, observed{stage, outcome})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "one" || order[1] != "two" {
		t.Errorf("unexpected order: %v", order)
	}
	if len(seen) != 2 || seen[0] != (observed{"one", "success"}) {
		t.Errorf("unexpected observations: %v", seen)
	}
	if rs.Report.StageOutcomes["two"] != "success" {
		t.Errorf("outcome not recorded: %v", rs.Report.StageOutcomes)
	}
	if _, ok := rs.Report.StageDurations["one"]; !ok {
		t.Error("duration not recorded")
	}
}

func TestRunStagesFatalAborts(t *testing.T) {
	rs := testRunState()
	boom := errors.New("boom")
	ran := false
	stages := []namedStage{
		{"bad", func(context.Context, *RunState) error { return newFatalStageError("bad", boom) }},
		{"never", func(context.Context, *RunState) error { ran = true; return nil }},
	}

	err := runStages(context.Background(), rs, stages, func(string, string, time.Duration, error) {})
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if ran {
		t.Error("stage after fatal error must not run")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Kind != StageErrorFatal || !errors.Is(err, boom) {
		t.Errorf("unexpected error: %v", err)
	}
	if len(rs.Report.Errors) != 1 {
		t.Errorf("fatal error not recorded on report")
	}
}

func TestRunStagesWarningContinues(t *testing.T) {
	rs := testRunState()
	ran := false
	stages := []namedStage{
		{"warn", func(context.Context, *RunState) error { return newWarnStageError("warn", errors.New("soft")) }},
		{"after", func(context.Context, *RunState) error { ran = true; return nil }},
	}

	err := runStages(context.Background(), rs, stages, func(string, string, time.Duration, error) {})
	if err != nil {
		t.Fatalf("warnings must not abort: %v", err)
	}
	if !ran {
		t.Error("stage after warning must run")
	}
	if len(rs.Report.Warnings) != 1 || len(rs.Report.Errors) != 0 {
		t.Errorf("warning misrecorded: warnings=%v errors=%v", rs.Report.Warnings, rs.Report.Errors)
	}
	if !rs.Report.Succeeded() {
		t.Error("run with only warnings should be a success")
	}
}

func TestRunStagesUnknownErrorIsFatal(t *testing.T) {
	rs := testRunState()
	stages := []namedStage{
		{"plain", func(context.Context, *RunState) error { return errors.New("plain failure") }},
	}
	err := runStages(context.Background(), rs, stages, func(string, string, time.Duration, error) {})
	var se *StageError
	if !errors.As(err, &se) || se.Kind != StageErrorFatal {
		t.Fatalf("plain errors must classify fatal, got %v", err)
	}
}

func TestRunStagesCancellation(t *testing.T) {
	rs := testRunState()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	stages := []namedStage{
		{"skipped", func(context.Context, *RunState) error { ran = true; return nil }},
	}
	err := runStages(ctx, rs, stages, func(string, string, time.Duration, error) {})
	var se *StageError
	if !errors.As(err, &se) || se.Kind != StageErrorCanceled {
		t.Fatalf("expected canceled stage error, got %v", err)
	}
	if ran {
		t.Error("no stage should run after cancellation")
	}
}
