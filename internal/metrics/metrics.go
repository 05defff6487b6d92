// Package metrics records pipeline run metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay zero-overhead unless the daemon wires in the
// Prometheus implementation.
package metrics

import "time"

// Recorder defines the pipeline metrics operations.
type Recorder interface {
	RunStarted(branch string)
	RunCompleted(result string, duration time.Duration)
	StageCompleted(stage, outcome string, duration time.Duration)
	PublishOutcome(outcome string)
}

// NoopRecorder is the default Recorder; every method is a no-op.
type NoopRecorder struct{}

func (NoopRecorder) RunStarted(string)                            {}
func (NoopRecorder) RunCompleted(string, time.Duration)           {}
func (NoopRecorder) StageCompleted(string, string, time.Duration) {}
func (NoopRecorder) PublishOutcome(string)                        {}
