package runstore

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.BeginRun(ctx, "run-1", "master", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.AppendStageEvent(ctx, "run-1", "checkout", "success", 120*time.Millisecond, ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.AppendStageEvent(ctx, "run-1", "render", "fatal", 80*time.Millisecond, "broken reference"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", "failed", "abc123"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	events, err := store.StageEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("stage events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Stage != "checkout" || events[1].Stage != "render" {
		t.Errorf("unexpected event order: %+v", events)
	}
	if events[1].Detail != "broken reference" {
		t.Errorf("detail lost: %+v", events[1])
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "failed" || runs[0].Revision != "abc123" {
		t.Errorf("unexpected run record: %+v", runs)
	}
	if runs[0].FinishedAt.IsZero() {
		t.Error("finished_at not recorded")
	}
}

func TestArtifactIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.BeginRun(ctx, "run-2", "main", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.RecordArtifact(ctx, "run-2", "api-docs", "/artifacts/api-docs-run-2.tar.gz", 4096); err != nil {
		t.Fatalf("record artifact: %v", err)
	}

	artifacts, err := store.Artifacts(ctx, "run-2")
	if err != nil {
		t.Fatalf("artifacts: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}
	a := artifacts[0]
	if a.Name != "api-docs" || a.SizeBytes != 4096 {
		t.Errorf("unexpected artifact: %+v", a)
	}
}

func TestStageEventsEmptyRun(t *testing.T) {
	store := newTestStore(t)
	events, err := store.StageEvents(context.Background(), "missing")
	if err != nil {
		t.Fatalf("stage events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}
